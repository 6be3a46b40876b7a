package core

import "context"

// Resource is a per-worker handle to an external collaborator, typically
// a database session. A resource is owned by exactly one worker, created
// lazily on first use, flushed (not closed) after each rule to bound
// transaction size, rolled back when the rule fails, and closed only at
// executor teardown.
type Resource interface {
	// Flush makes the work done since the last flush durable while
	// keeping the resource usable.
	Flush() error

	// Rollback discards the work done since the last flush.
	Rollback() error

	// Close releases the resource. The resource is unusable afterward.
	Close() error
}

// ResourceFactory creates worker-scoped resources. Implementations must
// be safe for concurrent use; the resources they return need not be.
type ResourceFactory interface {
	Acquire(ctx context.Context, workerID int) (Resource, error)
}
