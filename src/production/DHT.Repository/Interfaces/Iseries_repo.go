package interfaces

import (
	"context"
	"time"

	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

// SeriesRepository is the store surface the downsampling engine runs on.
// Window bounds are inclusive; row order is always timestamp then log id.
type SeriesRepository interface {
	// FirstTimestamp returns the device's earliest reading time, or nil
	// when the device has no readings.
	FirstTimestamp(ctx context.Context, deviceID string) (*time.Time, error)

	// LatestByDevice returns the device's most recent reading, or nil when
	// the device has no readings.
	LatestByDevice(ctx context.Context, deviceID string) (*dhtmodels.Reading, error)

	// CountInWindow counts the device's readings inside [start, end].
	CountInWindow(ctx context.Context, deviceID string, start, end time.Time) (int64, error)

	// SampleWindow returns every interval-th reading inside [start, end],
	// starting from the earliest (zero-based row index modulo interval).
	SampleWindow(ctx context.Context, deviceID string, start, end time.Time, interval int64) ([]dhtmodels.Reading, error)
}
