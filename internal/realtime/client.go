package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"click-war/internal/config"
	firebaseclient "click-war/internal/firebase"
	"click-war/internal/logger"

	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

const defaultPollInterval = time.Second

// UpdateFunc receives the current value of the node and returns the value
// to commit. Returning an error, typically ErrAbort, abandons the
// transaction. It may be called several times if concurrent writes
// conflict, so it must not have side effects beyond its return value.
type UpdateFunc func(current Snapshot) (any, error)

// Client is the shared handle to the database.
type Client struct {
	db           Database
	root         Reference
	log          *logger.Logger
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for subscription diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPollInterval sets how often subscriptions check for changes.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New builds a Client over database.
func New(database Database, opts ...Option) (*Client, error) {
	if database == nil {
		return nil, ErrNoDatabase
	}
	c := &Client{
		db:           database,
		log:          logger.Nop(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.root = database.NewRef("/")
	return c, nil
}

// Connect validates cfg, initializes the Firebase app and returns a Client
// bound to the configured database. opts are appended after the credentials
// derived from cfg.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...option.ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	clientOpts := append(firebaseclient.CredentialOptions(cfg.CredentialsFile), opts...)
	dbClient, err := firebaseclient.NewRealtimeDBClient(ctx, cfg.Firebase, clientOpts...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("project", cfg.Firebase.ProjectID).
		Str("database", cfg.Firebase.DatabaseURL).
		Msg("realtime database client ready")

	return New(FromFirebase(dbClient), WithLogger(log), WithPollInterval(cfg.PollInterval))
}

// Root returns the reference to the database's top-level node.
func (c *Client) Root() Reference {
	return c.root
}

// Ref returns the reference at path, relative to the root.
func (c *Client) Ref(path string) Reference {
	return c.db.NewRef(path)
}

// Get reads the value at ref once.
func (c *Client) Get(ctx context.Context, ref Reference) (Snapshot, error) {
	if ref == nil {
		return Snapshot{}, ErrNilReference
	}
	var raw json.RawMessage
	if err := ref.Get(ctx, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("get %s: %w", ref.Path(), err)
	}
	return NewSnapshot(ref.Path(), raw), nil
}

// Set overwrites the node at ref with v. v may contain Value directives.
func (c *Client) Set(ctx context.Context, ref Reference, v any) error {
	if ref == nil {
		return ErrNilReference
	}
	if err := ref.Set(ctx, v); err != nil {
		return fmt.Errorf("set %s: %w", ref.Path(), err)
	}
	return nil
}

// Update writes each child path in values below ref, leaving siblings intact.
func (c *Client) Update(ctx context.Context, ref Reference, values map[string]any) error {
	if ref == nil {
		return ErrNilReference
	}
	if err := ref.Update(ctx, values); err != nil {
		return fmt.Errorf("update %s: %w", ref.Path(), err)
	}
	return nil
}

// Transaction runs fn against the current value of ref and commits its
// result under the service's optimistic concurrency control. An error from
// fn, including ErrAbort, is returned unchanged and nothing is written.
func (c *Client) Transaction(ctx context.Context, ref Reference, fn UpdateFunc) error {
	if ref == nil {
		return ErrNilReference
	}
	if fn == nil {
		return fmt.Errorf("transaction %s: update function is nil", ref.Path())
	}

	path := ref.Path()
	err := ref.Transaction(ctx, func(node db.TransactionNode) (any, error) {
		var raw json.RawMessage
		if err := node.Unmarshal(&raw); err != nil {
			return nil, fmt.Errorf("decode transaction node: %w", err)
		}
		return fn(NewSnapshot(path, raw))
	})
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("transaction not committed")
		return err
	}
	return nil
}
