// Package telemetry sends anonymous, opt-in usage events. It never records
// prompt text, tool arguments, or tool results.
package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients. The abstraction allows
// mocking in tests and a no-op implementation when telemetry is off.
type Client interface {
	// Track sends an event asynchronously; a no-op when telemetry is disabled.
	Track(event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is the subset of the PostHog client this package uses, so tests
// can substitute their own.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// Config controls the PostHog client. Telemetry is opt-in: a zero Config
// yields a client that sends nothing.
type Config struct {
	Enabled bool
	APIKey  string
	// Host is an optional self-hosted endpoint
	Host    string
	Version string
	// AnonymousID is a stable random install ID; generated when empty
	AnonymousID string
}

// PostHogClient wraps the PostHog SDK for async event dispatch.
type PostHogClient struct {
	mu      sync.RWMutex
	client  enqueuer
	cfg     Config
	enabled bool
}

// New creates a telemetry client. When telemetry is disabled or no API key is
// configured, the returned client is inert but still safe to use.
func New(cfg Config) (*PostHogClient, error) {
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.New().String()
	}
	if !cfg.Enabled || cfg.APIKey == "" {
		return &PostHogClient{cfg: cfg, enabled: false}, nil
	}

	phConfig := posthog.Config{
		// Small batches and a short interval: a CLI process exits quickly
		BatchSize: 10,
		Interval:  1 * time.Second,
		// Transport warnings must never pollute CLI output
		Logger: quietLogger{},
	}
	if cfg.Host != "" {
		phConfig.Endpoint = cfg.Host
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return &PostHogClient{client: client, cfg: cfg, enabled: true}, nil
}

// newWithEnqueuer builds an enabled client around a custom enqueuer (tests).
func newWithEnqueuer(enq enqueuer, cfg Config) *PostHogClient {
	return &PostHogClient{client: enq, cfg: cfg, enabled: true}
}

// Track enqueues one event with the standard property set attached.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.enabled || c.client == nil {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("cli_version", c.cfg.Version)
	// No person profiles: events stay anonymous
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.cfg.AnonymousID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes the queue; the SDK bounds the wait internally.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// NoopClient does nothing; used when telemetry is off.
type NoopClient struct{}

func (NoopClient) Track(string, map[string]any) {}
func (NoopClient) Close() error                 { return nil }

// quietLogger suppresses PostHog client logs.
type quietLogger struct{}

func (quietLogger) Debugf(string, ...interface{}) {}
func (quietLogger) Logf(string, ...interface{})   {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Errorf(string, ...interface{}) {}
