package tx

import (
	"context"
	"sync"
	"time"

	dErrors "lineage/pkg/domain-errors"
)

const defaultMemoryTxTimeout = 5 * time.Second

// Snapshotter is an in-memory store that can take part in a MemoryRunner
// transaction. Snapshot captures the current state and returns the function
// that puts it back.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner serializes transactions with a coarse lock and restores every
// participant when fn fails. Reads outside a transaction may observe
// uncommitted writes.
type MemoryRunner struct {
	mu      sync.Mutex
	parts   []Snapshotter
	timeout time.Duration
}

func NewMemoryRunner(parts ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{parts: parts, timeout: defaultMemoryTxTimeout}
}

type memoryTxKey struct{}

func (t *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	// Nested calls join the outer transaction.
	if ctx.Value(memoryTxKey{}) == t {
		return fn(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), len(t.parts))
	for i, p := range t.parts {
		restores[i] = p.Snapshot()
	}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, t)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
