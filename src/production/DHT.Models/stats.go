package dhtmodels

// DeviceStats aggregates every persisted reading of one device. Pointer
// fields serialize as null when the device has no rows.
type DeviceStats struct {
	TotalLogs   int64    `json:"total_logs"`
	AvgTemp     *float64 `json:"avg_temp"`
	MinTemp     *float64 `json:"min_temp"`
	MaxTemp     *float64 `json:"max_temp"`
	AvgHumidity *float64 `json:"avg_humidity"`
	MinHumidity *float64 `json:"min_humidity"`
	MaxHumidity *float64 `json:"max_humidity"`
	FirstLog    *string  `json:"first_log"`
	LastLog     *string  `json:"last_log"`
	FirstLogTS  *int64   `json:"first_log_ts"`
	LastLogTS   *int64   `json:"last_log_ts"`
}

// OverviewStats summarizes the whole store.
type OverviewStats struct {
	TotalLogs       int64   `json:"total_logs"`
	UniqueDevices   int64   `json:"unique_devices"`
	LatestTimestamp *int64  `json:"latest_timestamp"`
	LatestTime      *string `json:"latest_time"`
}
