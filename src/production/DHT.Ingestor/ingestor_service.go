package dhtingestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	config "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Config"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	interfaces "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Interfaces"
)

// Ingestor owns the broker connection and the bounded handling pool. The
// paho callback queues raw payloads; a single dispatcher drains the queue
// and runs each payload through the pipeline on its own goroutine, with
// in-flight handling capped by a semaphore sized to the database pool.
type Ingestor struct {
	cfg      *config.Config
	repo     interfaces.ReadingRepository
	live     LiveBroadcaster
	client   mqtt.Client
	pipeline *Pipeline
	sem      *semaphore.Weighted
	msgCh    chan []byte
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logger.Logger
}

func New(cfg *config.Config, repo interfaces.ReadingRepository, live LiveBroadcaster, log *logger.Logger) *Ingestor {
	workers := cfg.Ingest.Concurrency
	if workers < 1 {
		workers = cfg.Database.MaxConns
	}
	return &Ingestor{
		cfg:    cfg,
		repo:   repo,
		live:   live,
		sem:    semaphore.NewWeighted(int64(workers)),
		msgCh:  make(chan []byte, cfg.Ingest.QueueSize),
		logger: log,
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	i.ctx, i.cancel = context.WithCancel(ctx)

	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.GetMQTTBrokerURL()).
		SetClientID(i.clientID()).
		SetOrderMatters(false).
		SetKeepAlive(i.cfg.MQTT.KeepAlive).
		SetPingTimeout(i.cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if i.cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(i.cfg.MQTT.BrokerUser)
		opts.SetPassword(i.cfg.MQTT.BrokerPass)
	}

	if i.cfg.MQTT.UseTLS {
		tlsCfg, err := i.tlsConfig(i.cfg.MQTT.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		topic := i.cfg.MQTT.DataTopic
		i.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, byte(i.cfg.MQTT.QoS), i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	i.client = mqtt.NewClient(opts)
	if tk := i.client.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	acks := NewAckChannel(i.client, i.cfg.MQTT.AckTopic, byte(i.cfg.MQTT.QoS), i.logger)
	i.pipeline = NewPipeline(i.repo, acks, i.live, i.logger, i.cfg.MQTT.AckTimeout)

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.dispatch(i.ctx)
	}()

	return nil
}

// Stop cancels in-flight handling, disconnects from the broker and waits for
// the dispatcher and all handlers to finish.
func (i *Ingestor) Stop() {
	if i.cancel != nil {
		i.cancel()
	}
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(500)
	}
	close(i.msgCh)
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.client != nil && i.client.IsConnected()
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.logger.Logger.Debug().Str("topic", m.Topic()).Str("payload", string(m.Payload())).Msg("Received MQTT message")

	// paho reuses the message buffer after this callback returns.
	payload := make([]byte, len(m.Payload()))
	copy(payload, m.Payload())

	select {
	case i.msgCh <- payload:
	case <-i.ctx.Done():
	}
}

// dispatch drains the queue for the life of the context. Each payload gets
// its own goroutine once a semaphore permit is free, so a slow database
// bounds concurrency instead of piling up goroutines.
func (i *Ingestor) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-i.msgCh:
			if !ok {
				return
			}
			if err := i.sem.Acquire(ctx, 1); err != nil {
				return
			}
			i.wg.Add(1)
			go func(p []byte) {
				defer i.wg.Done()
				defer i.sem.Release(1)
				i.pipeline.Handle(ctx, p)
			}(payload)
		}
	}
}

// clientID suffixes the configured id so reconnecting instances never evict
// each other from the broker.
func (i *Ingestor) clientID() string {
	return fmt.Sprintf("%s-%s", i.cfg.MQTT.ClientID, uuid.NewString()[:8])
}

func (i *Ingestor) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
