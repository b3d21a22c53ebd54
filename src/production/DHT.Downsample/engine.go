package downsample

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
	interfaces "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Interfaces"
)

// ErrNoData marks a device with no persisted readings at all. Callers turn
// it into a structured no-data response rather than a transport error.
var ErrNoData = errors.New("no readings recorded for device")

// targetPoints is the resolution the sampling interval aims for: one window
// downsamples to at most about this many rows.
const targetPoints = 100

// Series is one downsampled chart window for a single device.
type Series struct {
	Range        Range
	WindowStart  time.Time
	WindowEnd    time.Time
	TotalRecords int64
	Interval     int64
	History      []dhtmodels.Reading
	Current      dhtmodels.Reading
}

// Engine computes adaptive downsampled series over the reading store.
type Engine struct {
	store  interfaces.SeriesRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewEngine creates a downsampling engine over the given store.
func NewEngine(store interfaces.SeriesRepository, log *logger.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// Series resolves the window for the requested range, counts the rows
// inside it and returns every interval-th row in timestamp-then-log-id
// order; the earliest in-window row is always kept. Current is the
// device's latest reading regardless of window. A device with no readings
// at all yields ErrNoData; an empty window on a known device succeeds with
// zero records.
func (e *Engine) Series(ctx context.Context, deviceID string, rng Range) (*Series, error) {
	latest, err := e.store.LatestByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest reading: %w", err)
	}
	if latest == nil {
		return nil, ErrNoData
	}

	var start, end time.Time
	if rng.Live {
		end = e.now().UTC().Truncate(time.Second)
		start = end.Add(-rng.Duration())
	} else {
		first, err := e.store.FirstTimestamp(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load first timestamp: %w", err)
		}
		if first == nil {
			return nil, ErrNoData
		}
		start = first.UTC()
		end = start.Add(rng.Duration())
	}

	total, err := e.store.CountInWindow(ctx, deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count window: %w", err)
	}

	interval := total / targetPoints
	if interval < 1 {
		interval = 1
	}

	var history []dhtmodels.Reading
	if total > 0 {
		history, err = e.store.SampleWindow(ctx, deviceID, start, end, interval)
		if err != nil {
			return nil, fmt.Errorf("failed to sample window: %w", err)
		}
	}

	e.logger.Logger.Debug().
		Str("device_id", deviceID).
		Str("range", rng.Token).
		Int64("total", total).
		Int64("interval", interval).
		Int("points", len(history)).
		Msg("Computed series")

	return &Series{
		Range:        rng,
		WindowStart:  start,
		WindowEnd:    end,
		TotalRecords: total,
		Interval:     interval,
		History:      history,
		Current:      *latest,
	}, nil
}
