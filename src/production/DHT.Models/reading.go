package dhtmodels

import "time"

// DatetimeLayout is the second-precision layout used everywhere a timestamp
// is rendered: stored rows, chart window bounds and derived datetime fields.
const DatetimeLayout = "2006-01-02 15:04:05"

// Reading is one persisted sensor sample. Rows are append-only and never
// updated; LogID is assigned by the store on insert and is the canonical
// tie-break for readings that share a timestamp.
type Reading struct {
	LogID       int64     `json:"log_id" db:"log_id"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	MacAddress  string    `json:"mac_address" db:"mac_address"`
	Temperature float64   `json:"temperature" db:"temperature"`
	Humidity    float64   `json:"humidity" db:"humidity"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// Event converts the reading to its wire form, deriving the formatted
// datetime and epoch fields the dashboard consumes.
func (r Reading) Event() ReadingEvent {
	ts := r.Timestamp.UTC()
	formatted := ts.Format(DatetimeLayout)
	return ReadingEvent{
		LogID:         r.LogID,
		DeviceID:      r.DeviceID,
		MacAddress:    r.MacAddress,
		Temperature:   r.Temperature,
		Humidity:      r.Humidity,
		Timestamp:     formatted,
		Datetime:      formatted,
		UnixTimestamp: ts.Unix(),
	}
}

// ReadingEvent is the wire form of a Reading, used both for live fan-out
// events and for API list rows. On live events Timestamp echoes the string
// the device sent; on stored rows it equals Datetime.
type ReadingEvent struct {
	LogID         int64   `json:"log_id"`
	DeviceID      string  `json:"device_id"`
	MacAddress    string  `json:"mac_address"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Timestamp     string  `json:"timestamp"`
	Datetime      string  `json:"datetime"`
	UnixTimestamp int64   `json:"unix_timestamp"`
}

// Events maps readings to their wire form, keeping order.
func Events(readings []Reading) []ReadingEvent {
	events := make([]ReadingEvent, 0, len(readings))
	for _, r := range readings {
		events = append(events, r.Event())
	}
	return events
}
