package jobcentre

import (
	"encoding/json"
	"sync"
)

// reservation records which client currently holds a popped job, so Abort
// and disconnect-reclaim can find it and restore it to its origin queue.
type reservation struct {
	clientID uint64
	job      *Job
}

type clientState struct {
	workingOn map[uint64]*Job
	waits     map[*wait]struct{}
}

// Hub is the shared, mutex-guarded state behind every connection: the named
// queues, the jobs currently reserved by a client, and outstanding waits.
type Hub struct {
	mu       sync.Mutex
	nextID   uint64
	queues   map[string]*queue
	reserved map[uint64]*reservation
	clients  map[uint64]*clientState
}

func NewHub() *Hub {
	return &Hub{
		queues:   make(map[string]*queue),
		reserved: make(map[uint64]*reservation),
		clients:  make(map[uint64]*clientState),
	}
}

func (h *Hub) queueFor(name string) *queue {
	q, ok := h.queues[name]
	if !ok {
		q = newQueue()
		h.queues[name] = q
	}
	return q
}

func (h *Hub) clientFor(id uint64) *clientState {
	c, ok := h.clients[id]
	if !ok {
		c = &clientState{workingOn: make(map[uint64]*Job), waits: make(map[*wait]struct{})}
		h.clients[id] = c
	}
	return c
}

// Put assigns a new job id and either hands the job straight to the oldest
// client waiting on queueName or inserts it with max-priority-first
// ordering.
func (h *Hub) Put(queueName string, priority int, payload json.RawMessage) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	job := &Job{ID: h.nextID, Queue: queueName, Priority: priority, Payload: payload}

	q := h.queueFor(queueName)
	if w := q.popWaiter(); w != nil {
		h.deliverDirect(w, job)
		return job.ID
	}
	q.push(job)
	return job.ID
}

// deliverDirect reserves job for w's client, drops w's registration from
// every queue it named, and wakes the blocked get.
func (h *Hub) deliverDirect(w *wait, job *Job) {
	h.removeWaitEverywhere(w)
	h.reserve(w.clientID, job)
	w.deliver <- job
}

func (h *Hub) removeWaitEverywhere(w *wait) {
	for _, name := range w.queues {
		if q, ok := h.queues[name]; ok {
			q.removeWaiter(w)
		}
	}
	delete(h.clientFor(w.clientID).waits, w)
}

func (h *Hub) reserve(clientID uint64, job *Job) {
	h.reserved[job.ID] = &reservation{clientID: clientID, job: job}
	h.clientFor(clientID).workingOn[job.ID] = job
}

// Get scans queueNames for the job with the highest priority (ties broken
// by earliest id) and reserves it for clientID. If none is available and
// wait is requested, it registers a multi-queue wait and returns it instead
// of a job; the caller blocks on w.deliver for the eventual delivery.
func (h *Hub) Get(clientID uint64, queueNames []string, wantWait bool) (*Job, *wait) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var best *Job
	var bestQueue string
	for _, name := range queueNames {
		q, ok := h.queues[name]
		if !ok {
			continue
		}
		j := q.peek()
		if j == nil {
			continue
		}
		if best == nil || j.Priority > best.Priority || (j.Priority == best.Priority && j.ID < best.ID) {
			best = j
			bestQueue = name
		}
	}
	if best != nil {
		job := h.queueFor(bestQueue).pop()
		h.reserve(clientID, job)
		return job, nil
	}
	if !wantWait {
		return nil, nil
	}

	w := &wait{clientID: clientID, queues: append([]string(nil), queueNames...), deliver: make(chan *Job, 1)}
	for _, name := range queueNames {
		h.queueFor(name).addWaiter(w)
	}
	h.clientFor(clientID).waits[w] = struct{}{}
	return nil, w
}

// Delete removes id whether it is still queued or currently reserved by
// some client, reporting whether it was found.
func (h *Hub) Delete(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if res, ok := h.reserved[id]; ok {
		delete(h.reserved, id)
		delete(h.clientFor(res.clientID).workingOn, id)
		return true
	}
	for _, q := range h.queues {
		if q.discard(id) {
			return true
		}
	}
	return false
}

// Abort returns id to its original queue at its original priority, but only
// if clientID currently reserves it.
func (h *Hub) Abort(clientID, id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, ok := h.reserved[id]
	if !ok || res.clientID != clientID {
		return false
	}
	delete(h.reserved, id)
	delete(h.clientFor(clientID).workingOn, id)
	h.requeue(res.job)
	return true
}

// requeue reinserts job into its original queue, delivering it directly to
// a waiter there if one is registered.
func (h *Hub) requeue(job *Job) {
	q := h.queueFor(job.Queue)
	if w := q.popWaiter(); w != nil {
		h.deliverDirect(w, job)
		return
	}
	q.push(job)
}

// Disconnect reclaims every job clientID held, reinserting each into its
// origin queue (each reclaim eligible to satisfy a pending waiter there),
// and forgets the client's outstanding waits.
func (h *Hub) Disconnect(clientID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	for w := range c.waits {
		for _, name := range w.queues {
			if q, ok := h.queues[name]; ok {
				q.removeWaiter(w)
			}
		}
	}
	for id, job := range c.workingOn {
		delete(h.reserved, id)
		h.requeue(job)
	}
	delete(h.clients, clientID)
}
