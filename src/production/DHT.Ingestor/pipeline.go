package dhtingestor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
	interfaces "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Interfaces"
)

// requiredFields of every data payload, in report order.
var requiredFields = []string{"device_id", "mac_address", "temperature", "humidity", "timestamp"}

// AckPublisher delivers per-message acknowledgments back to the broker.
type AckPublisher interface {
	PublishAck(ctx context.Context, ack dhtmodels.Acknowledgment) error
}

// LiveBroadcaster fans persisted readings out to stream subscribers.
type LiveBroadcaster interface {
	Publish(ev dhtmodels.ReadingEvent)
}

// Pipeline takes one raw payload through validation, persistence,
// acknowledgment and live broadcast. It holds no per-message state and is
// safe for concurrent Handle calls.
type Pipeline struct {
	repo       interfaces.ReadingRepository
	acks       AckPublisher
	live       LiveBroadcaster
	logger     *logger.Logger
	ackTimeout time.Duration
}

func NewPipeline(repo interfaces.ReadingRepository, acks AckPublisher, live LiveBroadcaster, log *logger.Logger, ackTimeout time.Duration) *Pipeline {
	return &Pipeline{
		repo:       repo,
		acks:       acks,
		live:       live,
		logger:     log,
		ackTimeout: ackTimeout,
	}
}

// Handle processes one payload end to end. Payloads that do not decode as a
// JSON object are dropped without an acknowledgment; every decoded payload
// gets exactly one ack, success or failure.
func (p *Pipeline) Handle(ctx context.Context, payload []byte) {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		p.logger.Logger.Error().Err(err).Str("payload", string(payload)).Msg("Dropping undecodable payload")
		return
	}

	// From here on every outcome echoes whatever identity fields the
	// payload carried, even partial ones.
	msg := dhtmodels.InboundMessage{
		DeviceID:     coerceString(data["device_id"]),
		MacAddress:   coerceString(data["mac_address"]),
		RawTimestamp: coerceString(data["timestamp"]),
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		p.reject(ctx, msg, fmt.Sprintf("Missing fields: %v", missing))
		return
	}

	temperature, err := coerceFloat(data["temperature"])
	if err != nil {
		p.reject(ctx, msg, fmt.Sprintf("Field 'temperature' must be numeric, got %s", jsonTypeName(data["temperature"])))
		return
	}
	humidity, err := coerceFloat(data["humidity"])
	if err != nil {
		p.reject(ctx, msg, fmt.Sprintf("Field 'humidity' must be numeric, got %s", jsonTypeName(data["humidity"])))
		return
	}
	msg.Temperature = temperature
	msg.Humidity = humidity

	rawTS, ok := data["timestamp"].(string)
	if !ok {
		p.reject(ctx, msg, fmt.Sprintf("Timestamp must be ISO 8601 string (e.g., '2025-01-11T12:30:45'), got %s", jsonTypeName(data["timestamp"])))
		return
	}

	ts, err := parseTimestamp(rawTS)
	if err != nil {
		p.reject(ctx, msg, fmt.Sprintf("Invalid datetime format: '%s'. Use ISO 8601 (e.g., '2025-01-11T12:30:45')", rawTS))
		return
	}
	msg.Timestamp = ts

	insertCtx, cancel := context.WithTimeout(ctx, p.ackTimeout)
	defer cancel()

	logID, err := p.repo.InsertReading(insertCtx, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Logger.Error().Str("device_id", msg.DeviceID).Dur("timeout", p.ackTimeout).Msg("Database insertion timed out")
			p.reject(ctx, msg, "Database timeout")
			return
		}
		p.logger.Logger.Error().Err(err).Str("device_id", msg.DeviceID).Msg("Database insertion failed")
		p.reject(ctx, msg, "Database insertion failed")
		return
	}

	p.publishAck(ctx, dhtmodels.SuccessAck(msg.DeviceID, msg.MacAddress, msg.RawTimestamp, logID))

	reading := dhtmodels.Reading{
		LogID:       logID,
		DeviceID:    msg.DeviceID,
		MacAddress:  msg.MacAddress,
		Temperature: msg.Temperature,
		Humidity:    msg.Humidity,
		Timestamp:   msg.Timestamp,
	}
	ev := reading.Event()
	// Live events echo the timestamp string exactly as the device sent it.
	ev.Timestamp = msg.RawTimestamp
	p.live.Publish(ev)
}

func (p *Pipeline) reject(ctx context.Context, msg dhtmodels.InboundMessage, reason string) {
	p.logger.Logger.Warn().
		Str("device_id", msg.DeviceID).
		Str("mac_address", msg.MacAddress).
		Str("reason", reason).
		Msg("Rejecting payload")
	p.publishAck(ctx, dhtmodels.FailureAck(msg.DeviceID, msg.MacAddress, msg.RawTimestamp, reason))
}

// publishAck is best effort. Failures are logged and never retried; the
// reading itself is already settled either way.
func (p *Pipeline) publishAck(ctx context.Context, ack dhtmodels.Acknowledgment) {
	if err := p.acks.PublishAck(ctx, ack); err != nil {
		p.logger.Logger.Error().Err(err).Str("device_id", ack.DeviceID).Msg("Failed to publish ack")
	}
}

// coerceString renders a decoded JSON value for ack echoing. Numbers are
// formatted without an exponent so device ids sent as numbers round-trip.
func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// coerceFloat accepts JSON numbers and numeric strings, which firmware in
// the field actually sends.
func coerceFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("not numeric")
	}
}

// jsonTypeName names a decoded JSON value's type for error messages.
func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
