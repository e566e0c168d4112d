package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/queue"
)

type countingProcessor struct {
	mu   sync.Mutex
	jobs []models.SectioningJob
	err  error
	done chan struct{}
	want int
}

func (p *countingProcessor) Process(ctx context.Context, job models.SectioningJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	if len(p.jobs) == p.want && p.done != nil {
		close(p.done)
	}
	return p.err
}

func (p *countingProcessor) processed() []models.SectioningJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.SectioningJob(nil), p.jobs...)
}

func TestRunnerRun(t *testing.T) {
	t.Run("drains queued jobs in order", func(t *testing.T) {
		q := queue.NewMemory[models.SectioningJob]()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		for _, id := range []string{"a", "b", "c"} {
			if err := q.Publish(ctx, models.SectioningJob{BookID: id}); err != nil {
				t.Fatal(err)
			}
		}

		proc := &countingProcessor{done: make(chan struct{}), want: 3}
		r := NewRunner[models.SectioningJob](q, proc, RunnerConfig{IdleWait: time.Millisecond})

		errCh := make(chan error, 1)
		go func() { errCh <- r.Run(ctx) }()

		select {
		case <-proc.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
		cancel()
		if err := <-errCh; err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		got := proc.processed()
		if len(got) != 3 {
			t.Fatalf("processed %d jobs, want 3", len(got))
		}
		for i, id := range []string{"a", "b", "c"} {
			if got[i].BookID != id {
				t.Errorf("job %d = %q, want %q", i, got[i].BookID, id)
			}
		}
	})

	t.Run("job failure does not stop the loop", func(t *testing.T) {
		q := queue.NewMemory[models.SectioningJob]()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		for _, id := range []string{"a", "b"} {
			if err := q.Publish(ctx, models.SectioningJob{BookID: id}); err != nil {
				t.Fatal(err)
			}
		}

		proc := &countingProcessor{done: make(chan struct{}), want: 2, err: errors.New("boom")}
		r := NewRunner[models.SectioningJob](q, proc, RunnerConfig{IdleWait: time.Millisecond})

		errCh := make(chan error, 1)
		go func() { errCh <- r.Run(ctx) }()

		select {
		case <-proc.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
		cancel()
		if err := <-errCh; err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})

	t.Run("backoff ceiling never sits below the initial wait", func(t *testing.T) {
		q := queue.NewMemory[models.SectioningJob]()
		r := NewRunner[models.SectioningJob](q, &countingProcessor{}, RunnerConfig{
			IdleWait: time.Minute, // larger than the default ceiling
		})

		if r.maxIdleWait < r.idleWait {
			t.Fatalf("maxIdleWait %v < idleWait %v", r.maxIdleWait, r.idleWait)
		}
		if got := r.nextWait(r.idleWait); got < r.idleWait {
			t.Errorf("backoff shrank the wait: %v -> %v", r.idleWait, got)
		}
	})

	t.Run("stops promptly on cancellation while idle", func(t *testing.T) {
		q := queue.NewMemory[models.SectioningJob]()
		ctx, cancel := context.WithCancel(context.Background())

		r := NewRunner[models.SectioningJob](q, &countingProcessor{}, RunnerConfig{
			IdleWait:    10 * time.Second,
			MaxIdleWait: 10 * time.Second,
		})

		errCh := make(chan error, 1)
		go func() { errCh <- r.Run(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("runner did not stop on cancellation")
		}
	})
}
