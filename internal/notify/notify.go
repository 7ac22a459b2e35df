// Package notify publishes recording session events over MQTT.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smadhas/BIDFeeder/internal/recorder"
)

const (
	DefaultQueueSize      = 16
	DefaultConnectTimeout = 30 * time.Second
	DefaultPublishTimeout = 10 * time.Second

	sessionTopic = "session"
	quiesceMs    = 250
)

var ErrNotConnected = errors.New("not connected to MQTT broker")

// Event names carried in the payload.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventAborted   = "aborted"
)

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topic          string // events go to <Topic>/session
	QueueSize      int
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
}

// NewClient builds a paho client for cfg. It does not connect.
func NewClient(cfg Config) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	return mqtt.NewClient(opts)
}

// Event is the JSON payload of one session event.
type Event struct {
	Event     string     `json:"event"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Started   time.Time  `json:"started"`
	Ended     *time.Time `json:"ended,omitempty"`
	Frames    int        `json:"frames"`
	Completed bool       `json:"completed"`
}

func newEvent(kind string, info recorder.SessionInfo) Event {
	ev := Event{
		Event:     kind,
		ID:        info.ID,
		Name:      info.Name,
		Started:   info.StartedAt,
		Frames:    info.Frames,
		Completed: info.Completed,
	}
	if !info.EndedAt.IsZero() {
		ended := info.EndedAt
		ev.Ended = &ended
	}
	return ev
}

// Publisher is a recorder.Listener that hands events to a background
// worker. Events are dropped when the queue is full so the recording loop
// never waits on the broker.
type Publisher struct {
	client Client
	cfg    Config
	topic  string
	log    *slog.Logger

	mu      sync.Mutex
	closed  bool
	queue   chan Event
	done    chan struct{}
	dropped atomic.Int64
}

var _ recorder.Listener = (*Publisher)(nil)

// NewPublisher starts the publish worker. Close must be called to stop it.
func NewPublisher(client Client, cfg Config, log *slog.Logger) *Publisher {
	cfg.setDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	p := &Publisher{
		client: client,
		cfg:    cfg,
		topic:  cfg.Topic + "/" + sessionTopic,
		log:    log,
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Connect connects the client to the broker.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.ConnectTimeout):
		return fmt.Errorf("connect to %s: timeout after %s", p.cfg.Broker, p.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", p.cfg.Broker, err)
	}
	p.log.Info("connected to MQTT broker", slog.String("broker", p.cfg.Broker))
	return nil
}

func (p *Publisher) SessionStarted(info recorder.SessionInfo) {
	p.enqueue(newEvent(EventStarted, info))
}

func (p *Publisher) SessionCompleted(info recorder.SessionInfo) {
	p.enqueue(newEvent(EventCompleted, info))
}

func (p *Publisher) SessionAborted(info recorder.SessionInfo) {
	p.enqueue(newEvent(EventAborted, info))
}

// Dropped returns the number of events discarded because the queue was
// full or the publisher was closed.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) enqueue(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
		p.log.Warn("notification queue full, dropping event",
			slog.String("event", ev.Event),
			slog.String("session", ev.Name))
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		if err := p.publish(ev); err != nil {
			p.log.Warn("unable to publish session event",
				slog.String("event", ev.Event),
				slog.String("session", ev.Name),
				slog.Any("error", err))
		}
	}
}

func (p *Publisher) publish(ev Event) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("publish to %s: timeout", p.topic)
	}
	return token.Error()
}

// Close drains the queue, waits for the worker and disconnects. It is
// safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	if p.client.IsConnected() {
		p.client.Disconnect(quiesceMs)
	}
	return nil
}
