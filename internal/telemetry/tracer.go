package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for protocol operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes (protocol-agnostic)
	// ========================================================================
	AttrClientAddr = "client.address"

	// ========================================================================
	// Protocol attributes (protocol-agnostic)
	// ========================================================================
	AttrService      = "service.name" // speeddaemon, lrcp, vcs, pestcontrol, jobcentre, ...
	AttrOperation    = "protocol.operation"
	AttrConnectionID = "protocol.connection_id"
	AttrRole         = "protocol.role" // camera, dispatcher, client, authority

	// ========================================================================
	// Speed Enforcement Dispatcher
	// ========================================================================
	AttrRoad  = "speeddaemon.road"
	AttrPlate = "speeddaemon.plate"

	// ========================================================================
	// Job Centre
	// ========================================================================
	AttrQueue = "jobcentre.queue"
	AttrJobID = "jobcentre.job_id"

	// ========================================================================
	// Pest Control Mediator
	// ========================================================================
	AttrSite    = "pestcontrol.site"
	AttrSpecies = "pestcontrol.species"

	// ========================================================================
	// Versioned File Store
	// ========================================================================
	AttrPath = "vcs.path"
	AttrRev  = "vcs.revision"

	// ========================================================================
	// Byte counters
	// ========================================================================
	AttrBytesRead  = "io.bytes_read"
	AttrBytesWrite = "io.bytes_written"
)

// Span names for operations.
const (
	SpanDispatch = "speeddaemon.dispatch"
	SpanTicket   = "speeddaemon.ticket"

	SpanSessionRead  = "lrcp.session_read"
	SpanSessionWrite = "lrcp.session_write"

	SpanFilePut  = "vcs.put"
	SpanFileGet  = "vcs.get"
	SpanFileList = "vcs.list"

	SpanMediate = "pestcontrol.mediate"
	SpanPolicy  = "pestcontrol.policy"

	SpanJobPut    = "jobcentre.put"
	SpanJobGet    = "jobcentre.get"
	SpanJobDelete = "jobcentre.delete"
	SpanJobAbort  = "jobcentre.abort"
)

// ClientAddr returns an attribute for the remote address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Service returns an attribute identifying the emitting service.
func Service(name string) attribute.KeyValue {
	return attribute.String(AttrService, name)
}

// Operation returns an attribute for a generic operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// ConnectionID returns an attribute for the per-connection sequence number.
func ConnectionID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrConnectionID, int64(id))
}

// Role returns an attribute for a connection's protocol role.
func Role(role string) attribute.KeyValue {
	return attribute.String(AttrRole, role)
}

// Road returns an attribute for a Speed Enforcement Dispatcher road ID.
func Road(road uint16) attribute.KeyValue {
	return attribute.Int64(AttrRoad, int64(road))
}

// Plate returns an attribute for an observed license plate.
func Plate(plate string) attribute.KeyValue {
	return attribute.String(AttrPlate, plate)
}

// Queue returns an attribute for a Job Centre queue name.
func Queue(queue string) attribute.KeyValue {
	return attribute.String(AttrQueue, queue)
}

// JobID returns an attribute for a Job Centre job ID.
func JobID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrJobID, int64(id))
}

// Site returns an attribute for a Pest Control site ID.
func Site(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrSite, int64(id))
}

// Species returns an attribute for a Pest Control species name.
func Species(name string) attribute.KeyValue {
	return attribute.String(AttrSpecies, name)
}

// Path returns an attribute for a Versioned File Store path.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// Revision returns an attribute for a Versioned File Store revision number.
func Revision(rev int) attribute.KeyValue {
	return attribute.Int(AttrRev, rev)
}

// BytesRead returns an attribute for bytes read off the wire.
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRead, n)
}

// BytesWrite returns an attribute for bytes written to the wire.
func BytesWrite(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesWrite, n)
}

// StartProtocolSpan starts a span for a protocol operation, tagging it with
// the service name and a generic operation label.
func StartProtocolSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Service(service),
		Operation(operation),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, service+"."+operation, trace.WithAttributes(allAttrs...))
}
