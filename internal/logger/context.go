package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds connection-scoped logging context that every service
// attaches to the context passed down to its protocol handlers.
type LogContext struct {
	TraceID      string
	SpanID       string
	Service      string // speeddaemon, lrcp, vcs, pestcontrol, jobcentre, ...
	ConnectionID uint64
	ClientAddr   string
	Role         string // camera, dispatcher, client, authority, ...
	StartTime    time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a freshly accepted connection.
func NewLogContext(service string, connID uint64, clientAddr string) *LogContext {
	return &LogContext{
		Service:      service,
		ConnectionID: connID,
		ClientAddr:   clientAddr,
		StartTime:    time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithRole returns a copy with the role set (camera, dispatcher, client, authority).
func (lc *LogContext) WithRole(role string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Role = role
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
