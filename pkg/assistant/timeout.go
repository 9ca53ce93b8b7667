package assistant

import (
	"context"
	"time"
)

// GuardStream enforces a progress budget on a fragment sequence: if no
// fragment arrives within budget, a terminal ErrTimeout fragment is emitted
// and the upstream channel is abandoned. Providers wrap their raw output
// with this so the relay never distinguishes between them.
func GuardStream(ctx context.Context, in <-chan Fragment, budget time.Duration) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		timer := time.NewTimer(budget)
		defer timer.Stop()
		for {
			select {
			case frag, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- frag:
				case <-ctx.Done():
					return
				}
				if frag.Err != nil {
					return
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(budget)
			case <-timer.C:
				select {
				case out <- Fragment{Err: ErrTimeout}:
				case <-ctx.Done():
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
