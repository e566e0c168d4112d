// Package queue is the durable job queue contract between the HTTP layer
// (producer) and the background processors (consumers).
//
// Delivery is at-least-once with no ordering guarantee: the same job may be
// seen by multiple processor instances and more than once by the same one.
// Consumers must be idempotent; dedup happens through persisted state, never
// at the queue level.
package queue

import "context"

// Queue carries jobs of one type, serialized as UTF-8 JSON.
type Queue[J any] interface {
	// Publish enqueues one job.
	Publish(ctx context.Context, job J) error

	// PullNext returns the next job, or nil when the queue is currently
	// empty. It never blocks indefinitely waiting for work; polling cadence
	// is the caller's concern.
	PullNext(ctx context.Context) (*J, error)
}
