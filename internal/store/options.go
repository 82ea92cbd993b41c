package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// SetupFunc runs on the pinned connection after it opens and before the
// statement set is prepared. It is the hook for whoever owns the schema.
type SetupFunc func(ctx context.Context, conn *sql.Conn) error

// Option configures Open.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	retry       RetryPolicy
	busyTimeout time.Duration
	setup       SetupFunc
}

func defaultOptions() options {
	return options{
		logger: slog.New(slog.DiscardHandler),
		retry:  DefaultRetryPolicy(),
	}
}

// WithLogger sets the logger used for lifecycle and retry records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryPolicy sets the busy retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = p.normalized()
	}
}

// WithBusyTimeout sets the engine-level busy timeout (PRAGMA busy_timeout).
// Zero, the default, makes the engine report busy immediately and leaves
// waiting to the retry policy.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.busyTimeout = d
		}
	}
}

// WithSetup registers a hook that runs on the new connection before the
// statements are prepared.
func WithSetup(fn SetupFunc) Option {
	return func(o *options) {
		o.setup = fn
	}
}
