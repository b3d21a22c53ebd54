package dhtmodels

// Acknowledgment reports the outcome of one inbound reading back to the
// device that sent it. Timestamp always echoes the original payload string,
// whatever its shape. Acknowledgments are published and forgotten, never
// persisted.
type Acknowledgment struct {
	Success    bool   `json:"success"`
	DeviceID   string `json:"device_id"`
	MacAddress string `json:"mac_address"`
	Timestamp  string `json:"timestamp"`
	LogID      int64  `json:"log_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SuccessAck builds the acknowledgment for a persisted reading.
func SuccessAck(deviceID, macAddress, timestamp string, logID int64) Acknowledgment {
	return Acknowledgment{
		Success:    true,
		DeviceID:   deviceID,
		MacAddress: macAddress,
		Timestamp:  timestamp,
		LogID:      logID,
		Message:    "Data logged successfully",
	}
}

// FailureAck builds the acknowledgment for a rejected or failed reading.
func FailureAck(deviceID, macAddress, timestamp, reason string) Acknowledgment {
	return Acknowledgment{
		Success:    false,
		DeviceID:   deviceID,
		MacAddress: macAddress,
		Timestamp:  timestamp,
		Error:      reason,
	}
}
