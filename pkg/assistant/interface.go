package assistant

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout marks a backend call that made no progress within its budget.
var ErrTimeout = errors.New("assistant: call exceeded time budget")

// Fragment is one incremental piece of generated text. A non-nil Err
// terminates the sequence; no further fragments follow it.
type Fragment struct {
	Text string
	Err  error
}

// Budgets holds the per-call time limits an assistant enforces. For Invoke
// the budget bounds the whole call; for Stream it bounds the gap until the
// next fragment.
type Budgets struct {
	Invoke time.Duration
	Stream time.Duration
}

// Assistant is the uniform capability over a language-model backend.
// Implementations must be safe for concurrent use across connections and
// must return promptly once ctx is cancelled.
type Assistant interface {
	// Invoke runs a blocking single-result call.
	Invoke(ctx context.Context, prompt string) (string, error)

	// Stream starts an incremental-output call. The returned channel yields
	// fragments in generation order and is closed on normal exhaustion. The
	// sequence is not restartable; each request needs a fresh call.
	Stream(ctx context.Context, prompt string) (<-chan Fragment, error)
}

// IsTimeout reports whether err represents an exceeded time budget.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
