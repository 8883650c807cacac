// Package jobcentre implements an in-memory priority job queue: clients put
// jobs onto named queues, get the highest-priority job across a set of
// queues (optionally blocking until one arrives), and delete or abort jobs
// they hold.
package jobcentre

import "encoding/json"

// Job is one unit of work. Priority and Queue are preserved verbatim across
// a put/abort/disconnect-requeue cycle; ID is assigned once and never
// reused.
type Job struct {
	ID       uint64
	Queue    string
	Priority int
	Payload  json.RawMessage
}
