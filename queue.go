package scpi

import "sync"

// Queue is a fixed-capacity FIFO of failure records and the interpreter's
// default Reporter. When a record arrives on a full queue, the most recent
// entry is replaced by a -350 Queue overflow record (IEEE 488.2 21.8.1),
// so the oldest errors are never lost silently.
type Queue struct {
	mu   sync.Mutex
	recs []Record
	cap  int
}

// NewQueue returns a queue holding at most capacity records.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultLimits().MaxErrors
	}
	return &Queue{recs: make([]Record, 0, capacity), cap: capacity}
}

// Report implements Reporter.
func (q *Queue) Report(rec Record) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.recs) == q.cap {
		q.recs[len(q.recs)-1] = Record{
			Code:    CodeBufferOverflow,
			Number:  ErrQueueOverflow.Number,
			Message: ErrQueueOverflow.Text,
			Offset:  -1,
		}
		return
	}
	q.recs = append(q.recs, rec)
}

// Pop removes and returns the oldest record.
func (q *Queue) Pop() (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.recs) == 0 {
		return Record{}, false
	}
	rec := q.recs[0]
	copy(q.recs, q.recs[1:])
	q.recs = q.recs[:len(q.recs)-1]
	return rec, true
}

// Count returns the number of queued records.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.recs)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recs = q.recs[:0]
}
