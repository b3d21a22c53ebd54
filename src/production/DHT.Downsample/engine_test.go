package downsample

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

// fakeSeriesStore implements the series surface over an in-memory slice,
// with the same semantics as the SQL implementation: inclusive window
// bounds, timestamp-then-log-id order, zero-based modulo sampling.
type fakeSeriesStore struct {
	readings []dhtmodels.Reading
	err      error
}

func (f *fakeSeriesStore) deviceRows(deviceID string) []dhtmodels.Reading {
	var rows []dhtmodels.Reading
	for _, r := range f.readings {
		if r.DeviceID == deviceID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].LogID < rows[j].LogID
		}
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows
}

func (f *fakeSeriesStore) windowRows(deviceID string, start, end time.Time) []dhtmodels.Reading {
	var rows []dhtmodels.Reading
	for _, r := range f.deviceRows(deviceID) {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			rows = append(rows, r)
		}
	}
	return rows
}

func (f *fakeSeriesStore) FirstTimestamp(_ context.Context, deviceID string) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	rows := f.deviceRows(deviceID)
	if len(rows) == 0 {
		return nil, nil
	}
	first := rows[0].Timestamp
	return &first, nil
}

func (f *fakeSeriesStore) LatestByDevice(_ context.Context, deviceID string) (*dhtmodels.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	rows := f.deviceRows(deviceID)
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (f *fakeSeriesStore) CountInWindow(_ context.Context, deviceID string, start, end time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.windowRows(deviceID, start, end))), nil
}

func (f *fakeSeriesStore) SampleWindow(_ context.Context, deviceID string, start, end time.Time, interval int64) ([]dhtmodels.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	var sampled []dhtmodels.Reading
	for idx, r := range f.windowRows(deviceID, start, end) {
		if int64(idx)%interval == 0 {
			sampled = append(sampled, r)
		}
	}
	return sampled, nil
}

func newTestEngine(store *fakeSeriesStore, now time.Time) *Engine {
	e := NewEngine(store, logger.Nop())
	e.now = func() time.Time { return now }
	return e
}

// minuteReadings builds n readings one minute apart starting at base, with
// log ids 1..n.
func minuteReadings(deviceID string, base time.Time, n int) []dhtmodels.Reading {
	readings := make([]dhtmodels.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, dhtmodels.Reading{
			LogID:       int64(i + 1),
			DeviceID:    deviceID,
			MacAddress:  "AA:BB:CC:DD:EE:FF",
			Temperature: 20 + float64(i)*0.01,
			Humidity:    50,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return readings
}

func TestSeriesNoDataForUnknownDevice(t *testing.T) {
	e := newTestEngine(&fakeSeriesStore{}, time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC))

	_, err := e.Series(context.Background(), "ghost", ParseRange("1d"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestSeriesIntervalKeepsEarliestRow(t *testing.T) {
	base := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	store := &fakeSeriesStore{readings: minuteReadings("esp32-01", base, 250)}
	e := newTestEngine(store, base.Add(48*time.Hour))

	series, err := e.Series(context.Background(), "esp32-01", ParseRange("1d"))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	if series.TotalRecords != 250 {
		t.Fatalf("expected 250 records in window, got %d", series.TotalRecords)
	}
	if series.Interval != 2 {
		t.Fatalf("expected interval 2, got %d", series.Interval)
	}
	if len(series.History) != 125 {
		t.Fatalf("expected 125 sampled points, got %d", len(series.History))
	}
	if series.History[0].LogID != 1 {
		t.Fatalf("earliest row must always be kept, got log id %d", series.History[0].LogID)
	}
	for idx, r := range series.History {
		if want := int64(idx*2 + 1); r.LogID != want {
			t.Fatalf("point %d: expected log id %d, got %d", idx, want, r.LogID)
		}
	}
	if series.Current.LogID != 250 {
		t.Fatalf("current must be the latest reading, got log id %d", series.Current.LogID)
	}
}

func TestSeriesSmallWindowsKeepEveryRow(t *testing.T) {
	base := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	store := &fakeSeriesStore{readings: minuteReadings("esp32-01", base, 99)}
	e := newTestEngine(store, base.Add(48*time.Hour))

	series, err := e.Series(context.Background(), "esp32-01", ParseRange("1d"))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	if series.Interval != 1 {
		t.Fatalf("expected interval 1 under %d records, got %d", targetPoints, series.Interval)
	}
	if len(series.History) != 99 {
		t.Fatalf("expected every row kept, got %d", len(series.History))
	}
}

func TestSeriesFixedWindowAnchoredAtFirstReading(t *testing.T) {
	base := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	readings := minuteReadings("esp32-01", base, 20)
	// a much later reading outside the 30m window
	readings = append(readings, dhtmodels.Reading{
		LogID:     99,
		DeviceID:  "esp32-01",
		Timestamp: base.Add(48 * time.Hour),
	})
	store := &fakeSeriesStore{readings: readings}
	e := newTestEngine(store, base.Add(72*time.Hour))

	series, err := e.Series(context.Background(), "esp32-01", ParseRange("30m"))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	if !series.WindowStart.Equal(base) {
		t.Fatalf("window must anchor at the first reading, got %v", series.WindowStart)
	}
	if !series.WindowEnd.Equal(base.Add(30 * time.Minute)) {
		t.Fatalf("window end must be start plus range, got %v", series.WindowEnd)
	}
	if series.TotalRecords != 20 {
		t.Fatalf("expected 20 records inside the window, got %d", series.TotalRecords)
	}
	if series.Current.LogID != 99 {
		t.Fatalf("current must ignore the window, got log id %d", series.Current.LogID)
	}
}

func TestSeriesLiveWindow(t *testing.T) {
	now := time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeSeriesStore{readings: []dhtmodels.Reading{
		{LogID: 1, DeviceID: "esp32-01", Timestamp: now.Add(-10 * time.Minute)},
		{LogID: 2, DeviceID: "esp32-01", Timestamp: now.Add(-4 * time.Minute)},
		{LogID: 3, DeviceID: "esp32-01", Timestamp: now.Add(-2 * time.Minute)},
	}}
	e := newTestEngine(store, now)

	series, err := e.Series(context.Background(), "esp32-01", ParseRange("live"))
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	if !series.WindowStart.Equal(now.Add(-5*time.Minute)) || !series.WindowEnd.Equal(now) {
		t.Fatalf("live window must be [now-5m, now], got [%v, %v]", series.WindowStart, series.WindowEnd)
	}
	if series.TotalRecords != 2 {
		t.Fatalf("expected 2 records in the live window, got %d", series.TotalRecords)
	}
	if len(series.History) != 2 || series.History[0].LogID != 2 || series.History[1].LogID != 3 {
		t.Fatalf("unexpected live history: %+v", series.History)
	}
}

func TestSeriesEmptyLiveWindowStillSucceeds(t *testing.T) {
	now := time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC)
	store := &fakeSeriesStore{readings: []dhtmodels.Reading{
		{LogID: 1, DeviceID: "esp32-01", Timestamp: now.Add(-2 * time.Hour)},
	}}
	e := newTestEngine(store, now)

	series, err := e.Series(context.Background(), "esp32-01", ParseRange("live"))
	if err != nil {
		t.Fatalf("an idle device must not be a no-data error: %v", err)
	}

	if series.TotalRecords != 0 || len(series.History) != 0 {
		t.Fatalf("expected an empty window, got total=%d points=%d", series.TotalRecords, len(series.History))
	}
	if series.Current.LogID != 1 {
		t.Fatalf("current must still report the latest reading, got %d", series.Current.LogID)
	}
}

func TestSeriesStoreErrorIsNotNoData(t *testing.T) {
	store := &fakeSeriesStore{err: errors.New("connection refused")}
	e := newTestEngine(store, time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC))

	_, err := e.Series(context.Background(), "esp32-01", ParseRange("1d"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNoData) {
		t.Fatal("store failures must stay distinguishable from no-data")
	}
}
