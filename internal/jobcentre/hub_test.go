package jobcentre

import (
	"encoding/json"
	"testing"
)

func TestGetReturnsHighestPriorityAcrossQueues(t *testing.T) {
	h := NewHub()
	h.Put("q1", 1, json.RawMessage(`{}`))
	wantID := h.Put("q2", 5, json.RawMessage(`{}`))
	h.Put("q1", 3, json.RawMessage(`{}`))

	job, w := h.Get(1, []string{"q1", "q2"}, false)
	if w != nil || job == nil {
		t.Fatalf("expected a job, got job=%v wait=%v", job, w)
	}
	if job.ID != wantID {
		t.Fatalf("got job %d, want %d", job.ID, wantID)
	}
}

func TestGetTiesBreakByEarliestID(t *testing.T) {
	h := NewHub()
	first := h.Put("q", 5, json.RawMessage(`{}`))
	h.Put("q", 5, json.RawMessage(`{}`))

	job, _ := h.Get(1, []string{"q"}, false)
	if job.ID != first {
		t.Fatalf("got job %d, want earliest %d", job.ID, first)
	}
}

func TestAbortPreservesOriginalPriorityOrdering(t *testing.T) {
	h := NewHub()
	aborted := h.Put("q", 10, json.RawMessage(`{"n":1}`))
	h.Put("q", 5, json.RawMessage(`{"n":2}`))

	job, _ := h.Get(1, []string{"q"}, false)
	if job.ID != aborted {
		t.Fatalf("expected to reserve job %d first", aborted)
	}
	if ok := h.Abort(1, aborted); !ok {
		t.Fatal("abort should have succeeded")
	}

	// Reinserted job kept its original priority (10), so it must still
	// outrank the priority-5 job still sitting in the queue.
	job2, _ := h.Get(1, []string{"q"}, false)
	if job2.ID != aborted {
		t.Fatalf("got job %d after abort, want the reinserted high-priority job %d", job2.ID, aborted)
	}
}

func TestDeleteRemovesQueuedJob(t *testing.T) {
	h := NewHub()
	id := h.Put("q", 1, json.RawMessage(`{}`))
	if !h.Delete(id) {
		t.Fatal("delete should report found")
	}
	if job, _ := h.Get(1, []string{"q"}, false); job != nil {
		t.Fatalf("expected no job after delete, got %v", job)
	}
}

func TestDeleteRemovesReservedJob(t *testing.T) {
	h := NewHub()
	id := h.Put("q", 1, json.RawMessage(`{}`))
	h.Get(1, []string{"q"}, false)
	if !h.Delete(id) {
		t.Fatal("delete should report found for reserved job")
	}
	if h.Abort(1, id) {
		t.Fatal("abort should fail once the job has been deleted")
	}
}

func TestAbortRejectsNonOwningClient(t *testing.T) {
	h := NewHub()
	id := h.Put("q", 1, json.RawMessage(`{}`))
	h.Get(1, []string{"q"}, false)
	if h.Abort(2, id) {
		t.Fatal("abort should fail for a client that doesn't hold the job")
	}
}

func TestGetWaitIsSatisfiedByLaterPut(t *testing.T) {
	h := NewHub()
	job, w := h.Get(1, []string{"q"}, true)
	if job != nil || w == nil {
		t.Fatalf("expected a registered wait, got job=%v wait=%v", job, w)
	}

	id := h.Put("q", 7, json.RawMessage(`{"x":1}`))
	select {
	case delivered := <-w.deliver:
		if delivered.ID != id {
			t.Fatalf("got job %d, want %d", delivered.ID, id)
		}
	default:
		t.Fatal("expected the wait to be satisfied synchronously by Put")
	}
}

func TestDisconnectReclaimsReservedJobs(t *testing.T) {
	h := NewHub()
	id := h.Put("q", 1, json.RawMessage(`{}`))
	h.Get(1, []string{"q"}, false)

	h.Disconnect(1)

	job, _ := h.Get(2, []string{"q"}, false)
	if job == nil || job.ID != id {
		t.Fatalf("expected reclaimed job %d to be available, got %v", id, job)
	}
}
