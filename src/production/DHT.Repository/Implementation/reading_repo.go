package implementation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

// Insert operations

// InsertReading appends one reading and returns the store-assigned log id.
func (r *PostgresReadingRepository) InsertReading(ctx context.Context, msg dhtmodels.InboundMessage) (int64, error) {
	query := `
		INSERT INTO sensor_data (device_id, mac_address, temperature, humidity, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING log_id
	`

	var logID int64
	err := r.db.QueryRowContext(ctx, query,
		msg.DeviceID,
		msg.MacAddress,
		msg.Temperature,
		msg.Humidity,
		msg.Timestamp.UTC().Truncate(time.Second),
	).Scan(&logID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}

	return logID, nil
}

// Query operations

func (r *PostgresReadingRepository) CountLogs(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresReadingRepository) ListLogs(ctx context.Context, limit, offset int) ([]dhtmodels.Reading, error) {
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM sensor_data
		ORDER BY timestamp DESC, log_id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) LatestReadings(ctx context.Context, limit int) ([]dhtmodels.Reading, error) {
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM sensor_data
		ORDER BY timestamp DESC, log_id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]dhtmodels.Reading, error) {
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM sensor_data
		WHERE device_id = $1
		ORDER BY timestamp DESC, log_id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) ListByMac(ctx context.Context, macAddress string, limit int) ([]dhtmodels.Reading, error) {
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM sensor_data
		WHERE mac_address = $1
		ORDER BY timestamp DESC, log_id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, macAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

// Statistics

func (r *PostgresReadingRepository) DeviceStats(ctx context.Context, deviceID string) (*dhtmodels.DeviceStats, error) {
	query := `
		SELECT
			COUNT(*),
			AVG(temperature), MIN(temperature), MAX(temperature),
			AVG(humidity), MIN(humidity), MAX(humidity),
			MIN(timestamp), MAX(timestamp)
		FROM sensor_data
		WHERE device_id = $1
	`

	var (
		stats             dhtmodels.DeviceStats
		avgTemp, minTemp  sql.NullFloat64
		maxTemp, avgHum   sql.NullFloat64
		minHum, maxHum    sql.NullFloat64
		firstLog, lastLog sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&stats.TotalLogs,
		&avgTemp, &minTemp, &maxTemp,
		&avgHum, &minHum, &maxHum,
		&firstLog, &lastLog,
	)
	if err != nil {
		return nil, err
	}

	stats.AvgTemp = nullFloat(avgTemp)
	stats.MinTemp = nullFloat(minTemp)
	stats.MaxTemp = nullFloat(maxTemp)
	stats.AvgHumidity = nullFloat(avgHum)
	stats.MinHumidity = nullFloat(minHum)
	stats.MaxHumidity = nullFloat(maxHum)
	if firstLog.Valid {
		formatted := firstLog.Time.UTC().Format(dhtmodels.DatetimeLayout)
		epoch := firstLog.Time.UTC().Unix()
		stats.FirstLog = &formatted
		stats.FirstLogTS = &epoch
	}
	if lastLog.Valid {
		formatted := lastLog.Time.UTC().Format(dhtmodels.DatetimeLayout)
		epoch := lastLog.Time.UTC().Unix()
		stats.LastLog = &formatted
		stats.LastLogTS = &epoch
	}

	return &stats, nil
}

func (r *PostgresReadingRepository) OverviewStats(ctx context.Context) (*dhtmodels.OverviewStats, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT device_id), MAX(timestamp)
		FROM sensor_data
	`

	var (
		stats  dhtmodels.OverviewStats
		latest sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalLogs, &stats.UniqueDevices, &latest)
	if err != nil {
		return nil, err
	}

	if latest.Valid {
		formatted := latest.Time.UTC().Format(dhtmodels.DatetimeLayout)
		epoch := latest.Time.UTC().Unix()
		stats.LatestTime = &formatted
		stats.LatestTimestamp = &epoch
	}

	return &stats, nil
}

// Series operations

func (r *PostgresReadingRepository) FirstTimestamp(ctx context.Context, deviceID string) (*time.Time, error) {
	query := `
		SELECT timestamp
		FROM sensor_data
		WHERE device_id = $1
		ORDER BY timestamp ASC, log_id ASC
		LIMIT 1
	`

	var first time.Time
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&first)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	first = first.UTC()
	return &first, nil
}

func (r *PostgresReadingRepository) LatestByDevice(ctx context.Context, deviceID string) (*dhtmodels.Reading, error) {
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM sensor_data
		WHERE device_id = $1
		ORDER BY timestamp DESC, log_id DESC
		LIMIT 1
	`

	var reading dhtmodels.Reading
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&reading.LogID,
		&reading.DeviceID,
		&reading.MacAddress,
		&reading.Temperature,
		&reading.Humidity,
		&reading.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &reading, nil
}

func (r *PostgresReadingRepository) CountInWindow(ctx context.Context, deviceID string, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM sensor_data
		WHERE device_id = $1 AND timestamp BETWEEN $2 AND $3
	`

	var total int64
	err := r.db.QueryRowContext(ctx, query, deviceID, start, end).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresReadingRepository) SampleWindow(ctx context.Context, deviceID string, start, end time.Time, interval int64) ([]dhtmodels.Reading, error) {
	if interval < 1 {
		interval = 1
	}

	// Zero-based row index over the ordered window; keeping index % interval
	// rows always retains the earliest one.
	query := `
		SELECT log_id, device_id, mac_address, temperature, humidity, timestamp
		FROM (
			SELECT log_id, device_id, mac_address, temperature, humidity, timestamp,
				ROW_NUMBER() OVER (ORDER BY timestamp ASC, log_id ASC) - 1 AS row_idx
			FROM sensor_data
			WHERE device_id = $1 AND timestamp BETWEEN $2 AND $3
		) windowed
		WHERE row_idx % $4 = 0
		ORDER BY row_idx
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, start, end, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) scanReadings(rows *sql.Rows) ([]dhtmodels.Reading, error) {
	var readings []dhtmodels.Reading

	for rows.Next() {
		var reading dhtmodels.Reading

		if err := rows.Scan(
			&reading.LogID,
			&reading.DeviceID,
			&reading.MacAddress,
			&reading.Temperature,
			&reading.Humidity,
			&reading.Timestamp,
		); err != nil {
			return nil, err
		}

		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
