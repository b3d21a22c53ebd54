package dhtmodels

import "time"

// InboundMessage carries the validated fields of one telemetry payload
// through a single handling cycle. It is never persisted as-is; the store
// assigns the log id and returns the durable Reading.
type InboundMessage struct {
	DeviceID    string
	MacAddress  string
	Temperature float64
	Humidity    float64

	// RawTimestamp is the timestamp string exactly as the device sent it,
	// echoed back in acknowledgments.
	RawTimestamp string

	// Timestamp is the parsed value, naive UTC at whole-second precision.
	Timestamp time.Time
}
