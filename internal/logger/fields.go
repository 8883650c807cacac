package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all ten services for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Service & Connection
	// ========================================================================
	KeyService      = "service"      // speeddaemon, lrcp, vcs, pestcontrol, jobcentre, ...
	KeyConnectionID = "connection_id" // per-connection sequence number assigned on accept
	KeySessionID    = "session_id"    // LRCP session ID
	KeyClientAddr   = "client_addr"   // remote address (ip:port)
	KeyRole         = "role"          // camera, dispatcher, client, authority

	// ========================================================================
	// Protocol-specific identifiers
	// ========================================================================
	KeyRoad    = "road"
	KeyPlate   = "plate"
	KeyQueue   = "queue"
	KeyJobID   = "job_id"
	KeySite    = "site"
	KeySpecies = "species"
	KeyPath    = "path"
	KeyRev     = "revision"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyBytes      = "bytes"
)

// Err returns a slog.Attr for an error, or a zero Attr (dropped by slog) if nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Service returns a slog.Attr identifying the emitting service.
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// ConnectionID returns a slog.Attr for the per-connection sequence number.
func ConnectionID(id uint64) slog.Attr {
	return slog.Uint64(KeyConnectionID, id)
}

// ClientAddr returns a slog.Attr for the remote address.
func ClientAddr(addr string) slog.Attr {
	return slog.String(KeyClientAddr, addr)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
