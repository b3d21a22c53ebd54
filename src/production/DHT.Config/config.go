package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Application version reported by /health
	Version string `json:"version"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// MQTT configuration
	MQTT MQTTConfig `json:"mqtt"`

	// Ingest configuration
	Ingest IngestConfig `json:"ingest"`

	// Broadcast configuration
	Broadcast BroadcastConfig `json:"broadcast"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
	MinConns int    `json:"min_conns"`
}

// MQTTConfig holds broker, topic and ack configuration
type MQTTConfig struct {
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"broker_pass"`
	UseTLS      bool          `json:"use_tls"`
	CACertPath  string        `json:"ca_cert_path"`
	DataTopic   string        `json:"data_topic"`
	AckTopic    string        `json:"ack_topic"`
	QoS         int           `json:"qos"`
	ClientID    string        `json:"client_id"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`

	// AckTimeout bounds the persistence attempt for a single reading;
	// exceeding it turns into a "Database timeout" ack.
	AckTimeout time.Duration `json:"ack_timeout"`
}

// IngestConfig bounds the inbound message handling
type IngestConfig struct {
	// QueueSize is the capacity of the raw payload queue fed by the MQTT
	// callback.
	QueueSize int `json:"queue_size"`

	// Concurrency caps in-flight message handling. Zero means match the
	// database MaxConns.
	Concurrency int `json:"concurrency"`
}

// BroadcastConfig bounds the live fan-out
type BroadcastConfig struct {
	// BufferSize is the per-subscriber event buffer; on overflow the oldest
	// queued event is dropped.
	BufferSize int `json:"buffer_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// Load loads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	if err := godotenv.Load(); err != nil {
		// Silently ignore .env file loading errors
		// This allows the application to work with environment variables set directly
	}

	config := &Config{
		Version: getEnv("APP_VERSION", "0.1.4"),
		Server: ServerConfig{
			Port:        getEnv("PORT", "8000"),
			ReadTimeout: getDuration("READ_TIMEOUT", 30*time.Second),
			// Zero write timeout: the event stream stays open until the
			// client disconnects.
			WriteTimeout: getDuration("WRITE_TIMEOUT", 0),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", ""),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "dht_logger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: getInt("POSTGRES_MAX_CONNS", 20),
			MinConns: getInt("POSTGRES_MIN_CONNS", 5),
		},
		MQTT: MQTTConfig{
			BrokerHost:  getEnv("MQTT_BROKER_URL", "broker.emqx.io"),
			BrokerPort:  getInt("MQTT_BROKER_PORT", 8883),
			BrokerUser:  getEnv("MQTT_USERNAME", ""),
			BrokerPass:  getEnv("MQTT_PASSWORD", ""),
			UseTLS:      getBool("MQTT_TLS", true),
			CACertPath:  getEnv("MQTT_CA_CERT_FILE", "emqxsl-ca.crt"),
			DataTopic:   getEnv("MQTT_TOPIC_SENSOR_DATA", "sensors/dht/data"),
			AckTopic:    getEnv("MQTT_TOPIC_ACK", "sensors/dht/ack"),
			QoS:         getInt("MQTT_QOS", 1),
			ClientID:    getEnv("MQTT_CLIENT_ID", "dht-logger"),
			KeepAlive:   time.Duration(getInt("MQTT_KEEPALIVE", 60)) * time.Second,
			PingTimeout: time.Duration(getInt("MQTT_PING_TIMEOUT", 10)) * time.Second,
			AckTimeout:  time.Duration(getInt("MQTT_ACK_TIMEOUT", 3)) * time.Second,
		},
		Ingest: IngestConfig{
			QueueSize:   getInt("INGEST_QUEUE_SIZE", 4096),
			Concurrency: getInt("INGEST_CONCURRENCY", 0),
		},
		Broadcast: BroadcastConfig{
			BufferSize: getInt("BROADCAST_BUFFER_SIZE", 64),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: getBool("LOG_ENABLE_CALLER", false),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
			ExposedHeaders:   getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getInt("CORS_MAX_AGE", 43200), // 12 hours
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	}
	if c.MQTT.DataTopic == "" || c.MQTT.AckTopic == "" {
		return fmt.Errorf("MQTT data and ack topics are required")
	}
	if c.MQTT.DataTopic == c.MQTT.AckTopic {
		return fmt.Errorf("MQTT data and ack topics must differ")
	}
	if c.MQTT.AckTimeout <= 0 {
		return fmt.Errorf("MQTT_ACK_TIMEOUT must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *Config) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.MQTT.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.BrokerHost, c.MQTT.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
