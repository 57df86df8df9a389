package session

import (
	"context"
	"sync"
)

// Client owns the process-wide service handles for one backend project. It is
// constructed once, initialized once, and shared by reference; the handles it
// publishes are read-only for consumers.
type Client struct {
	backend Backend
	config  Config
	logger  Logger

	initOnce sync.Once
	initErr  error
	ready    chan struct{}

	auth  IdentityService
	store DocumentStore
}

// NewClient builds a Client for the given backend and config. A missing or
// placeholder project id is logged as a diagnostic but does not block
// construction; the backend is given the config as-is.
func NewClient(backend Backend, cfg Config) *Client {
	c := &Client{
		backend: backend,
		config:  cfg,
		logger:  defLogger{},
		ready:   make(chan struct{}),
	}

	if err := cfg.Validate(); err != nil {
		c.logger.Warn("config looks unusable, check your project settings", "project_id", cfg.ProjectID, "error", err)
	}

	return c
}

func (c *Client) WithLogger(logger Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Initialize creates the identity-service and document-store handles exactly
// once. Calling it again returns the result of the first call. Handle
// creation is local; no network round-trip is needed before readiness.
func (c *Client) Initialize() error {
	c.initOnce.Do(func() {
		auth, err := c.backend.NewIdentityService(c.config)
		if err != nil {
			c.initErr = err
			return
		}

		store, err := c.backend.NewDocumentStore(c.config)
		if err != nil {
			c.initErr = err
			return
		}

		c.auth = auth
		c.store = store
		close(c.ready)

		c.logger.Debug("client initialized", "project_id", c.config.ProjectID)
	})

	return c.initErr
}

// Ready is closed once both handles exist
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady blocks until the client is initialized or the context ends
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Auth returns the identity-service handle. ok is false until Initialize has
// completed, so consumers never observe a partial handle set.
func (c *Client) Auth() (IdentityService, bool) {
	select {
	case <-c.ready:
		return c.auth, true
	default:
		return nil, false
	}
}

// Store returns the document-store handle once the client is ready
func (c *Client) Store() (DocumentStore, bool) {
	select {
	case <-c.ready:
		return c.store, true
	default:
		return nil, false
	}
}

// Config returns the config the client was built with
func (c *Client) Config() Config {
	return c.config
}
