package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "dht")
	t.Setenv("POSTGRES_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("unexpected port: %q", cfg.Server.Port)
	}
	if cfg.MQTT.BrokerHost != "broker.emqx.io" || cfg.MQTT.BrokerPort != 8883 {
		t.Errorf("unexpected broker: %s:%d", cfg.MQTT.BrokerHost, cfg.MQTT.BrokerPort)
	}
	if cfg.MQTT.DataTopic != "sensors/dht/data" || cfg.MQTT.AckTopic != "sensors/dht/ack" {
		t.Errorf("unexpected topics: %q %q", cfg.MQTT.DataTopic, cfg.MQTT.AckTopic)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("unexpected qos: %d", cfg.MQTT.QoS)
	}
	if cfg.MQTT.AckTimeout != 3*time.Second {
		t.Errorf("unexpected ack timeout: %v", cfg.MQTT.AckTimeout)
	}
	if cfg.MQTT.KeepAlive != 60*time.Second {
		t.Errorf("unexpected keepalive: %v", cfg.MQTT.KeepAlive)
	}
	if !cfg.MQTT.UseTLS {
		t.Error("TLS should default to on")
	}
	if cfg.Ingest.QueueSize != 4096 || cfg.Ingest.Concurrency != 0 {
		t.Errorf("unexpected ingest config: %+v", cfg.Ingest)
	}
	if cfg.Broadcast.BufferSize != 64 {
		t.Errorf("unexpected broadcast buffer: %d", cfg.Broadcast.BufferSize)
	}
	if cfg.Database.MaxConns != 20 || cfg.Database.MinConns != 5 {
		t.Errorf("unexpected pool sizes: %+v", cfg.Database)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("MQTT_ACK_TIMEOUT", "5")
	t.Setenv("MQTT_TLS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("unexpected port: %q", cfg.Server.Port)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("unexpected qos: %d", cfg.MQTT.QoS)
	}
	if cfg.MQTT.AckTimeout != 5*time.Second {
		t.Errorf("unexpected ack timeout: %v", cfg.MQTT.AckTimeout)
	}
	if cfg.MQTT.UseTLS {
		t.Error("TLS should be off")
	}
	origins := cfg.CORS.AllowedOrigins
	if len(origins) != 2 || origins[0] != "http://a.example" || origins[1] != "http://b.example" {
		t.Errorf("unexpected origins: %v", origins)
	}
}

func TestLoadRequiresDatabaseCredentials(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestValidateRejectsSharedTopic(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MQTT_TOPIC_SENSOR_DATA", "sensors/dht/shared")
	t.Setenv("MQTT_TOPIC_ACK", "sensors/dht/shared")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for identical data and ack topics")
	}
}

func TestBrokerURLScheme(t *testing.T) {
	cfg := &Config{}
	cfg.MQTT.BrokerHost = "broker.emqx.io"
	cfg.MQTT.BrokerPort = 8883
	cfg.MQTT.UseTLS = true
	if got := cfg.GetMQTTBrokerURL(); got != "tcps://broker.emqx.io:8883" {
		t.Errorf("unexpected TLS url: %q", got)
	}

	cfg.MQTT.UseTLS = false
	cfg.MQTT.BrokerPort = 1883
	if got := cfg.GetMQTTBrokerURL(); got != "tcp://broker.emqx.io:1883" {
		t.Errorf("unexpected plain url: %q", got)
	}
}
