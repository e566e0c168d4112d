package queue

import (
	"context"
	"sync"
)

// Memory is an in-process Queue used by tests and local runs. FIFO,
// unbounded, safe for concurrent use.
type Memory[J any] struct {
	mu   sync.Mutex
	jobs []J
}

// NewMemory returns an empty in-memory queue.
func NewMemory[J any]() *Memory[J] {
	return &Memory[J]{}
}

func (q *Memory[J]) Publish(ctx context.Context, job J) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *Memory[J]) PullNext(ctx context.Context) (*J, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

// Len returns the number of queued jobs.
func (q *Memory[J]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
