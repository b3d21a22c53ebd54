package dhtingestor

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

// AckChannel publishes acknowledgments on the ack topic over the same broker
// connection the data arrives on.
type AckChannel struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *logger.Logger
}

func NewAckChannel(client mqtt.Client, topic string, qos byte, log *logger.Logger) *AckChannel {
	return &AckChannel{
		client: client,
		topic:  topic,
		qos:    qos,
		logger: log,
	}
}

func (a *AckChannel) PublishAck(_ context.Context, ack dhtmodels.Acknowledgment) error {
	if a.client == nil || !a.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected, cannot send ack")
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		return fmt.Errorf("failed to marshal ack: %w", err)
	}

	if token := a.client.Publish(a.topic, a.qos, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish ack to %s: %w", a.topic, token.Error())
	}

	a.logger.Logger.Debug().
		Str("topic", a.topic).
		Bool("success", ack.Success).
		Str("device_id", ack.DeviceID).
		Msg("Sent ack")
	return nil
}
