package jobcentre

import "container/heap"

// jobHeap orders jobs highest-priority-first, ties broken by earliest id
// (insertion order). The heap stores every pushed job; discard marks an id
// logically deleted instead of scanning to remove it, matching the
// queued-job delete/abort invariant.
type jobHeap []*Job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].ID < h[j].ID
}
func (h *jobHeap) Push(x any) { *h = append(*h, x.(*Job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// wait is one outstanding get{wait:true} spanning one or more queues. It is
// registered with every named queue until a matching put/abort/disconnect
// delivers a job or the owning connection closes.
type wait struct {
	clientID uint64
	queues   []string
	deliver  chan *Job
}

// queue is one named job queue: a max-heap of live jobs plus the FIFO of
// waiters registered against it.
type queue struct {
	jobs    jobHeap
	present map[uint64]bool
	waiters []*wait
}

func newQueue() *queue {
	return &queue{present: make(map[uint64]bool)}
}

func (q *queue) push(j *Job) {
	heap.Push(&q.jobs, j)
	q.present[j.ID] = true
}

// peek returns the highest-priority live job without removing it, skipping
// and discarding any logically-deleted heap entries it encounters.
func (q *queue) peek() *Job {
	for len(q.jobs) > 0 {
		j := q.jobs[0]
		if q.present[j.ID] {
			return j
		}
		heap.Pop(&q.jobs)
	}
	return nil
}

// pop removes and returns the highest-priority live job.
func (q *queue) pop() *Job {
	for len(q.jobs) > 0 {
		j := heap.Pop(&q.jobs).(*Job)
		if q.present[j.ID] {
			delete(q.present, j.ID)
			return j
		}
	}
	return nil
}

// discard logically deletes id if it is still queued (not yet popped).
func (q *queue) discard(id uint64) bool {
	if !q.present[id] {
		return false
	}
	delete(q.present, id)
	return true
}

func (q *queue) addWaiter(w *wait) { q.waiters = append(q.waiters, w) }

// popWaiter removes and returns the oldest registered waiter, if any.
func (q *queue) popWaiter() *wait {
	if len(q.waiters) == 0 {
		return nil
	}
	w := q.waiters[0]
	q.waiters = q.waiters[1:]
	return w
}

func (q *queue) removeWaiter(w *wait) {
	for i, cand := range q.waiters {
		if cand == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}
