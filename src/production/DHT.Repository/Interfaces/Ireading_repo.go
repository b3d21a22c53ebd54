package interfaces

import (
	"context"

	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

type ReadingRepository interface {
	// Insert operations
	InsertReading(ctx context.Context, msg dhtmodels.InboundMessage) (int64, error)

	// Query operations
	CountLogs(ctx context.Context) (int64, error)
	ListLogs(ctx context.Context, limit, offset int) ([]dhtmodels.Reading, error)
	LatestReadings(ctx context.Context, limit int) ([]dhtmodels.Reading, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]dhtmodels.Reading, error)
	ListByMac(ctx context.Context, macAddress string, limit int) ([]dhtmodels.Reading, error)

	// Statistics
	DeviceStats(ctx context.Context, deviceID string) (*dhtmodels.DeviceStats, error)
	OverviewStats(ctx context.Context) (*dhtmodels.OverviewStats, error)
}
