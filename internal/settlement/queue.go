// Package settlement processes outgoing settlement jobs sequentially, one
// at a time, grounded on the original worker-queue pattern used to avoid
// racing a settlement engine's own nonce/state handling.
package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Job describes one settlement to attempt: move Amount units of
// settlement-engine currency to Account's peer.
type Job struct {
	Account  ilpservice.AccountID
	Amount   int64
	QueuedAt time.Time
}

// Settler is the external settlement-engine collaborator; its HTTP
// surface is a contract this package never implements directly.
type Settler interface {
	Settle(ctx context.Context, job Job) error
}

// Queue runs jobs through Settler one at a time via a single worker
// goroutine, so overlapping settlements to the same engine never race.
type Queue struct {
	jobs    chan Job
	settler Settler
	onEach  func(job Job, err error)

	wg      sync.WaitGroup
	mu      sync.Mutex
	pending int
}

// NewQueue starts the worker goroutine and returns a ready Queue.
// onResult, if non-nil, is called after every attempt (success or
// failure) for logging/metrics hookup.
func NewQueue(settler Settler, bufferSize int, onResult func(job Job, err error)) *Queue {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	q := &Queue{
		jobs:    make(chan Job, bufferSize),
		settler: settler,
		onEach:  onResult,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue queues a settlement job. Never blocks past the buffer size;
// callers that overrun it intentionally back-pressure the caller rather
// than silently dropping a settlement.
func (q *Queue) Enqueue(job Job) {
	q.mu.Lock()
	q.pending++
	q.mu.Unlock()

	job.QueuedAt = time.Now()
	q.jobs <- job
}

// Pending reports the number of jobs queued or in flight.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		err := q.settler.Settle(context.Background(), job)
		if q.onEach != nil {
			q.onEach(job, err)
		}
		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
	}
}

// Close drains remaining jobs and stops the worker.
func (q *Queue) Close() {
	close(q.jobs)
	q.wg.Wait()
}
