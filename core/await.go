package core

import "context"

// Await polls f until it completes, parking the calling goroutine on a
// Signal between polls. If ctx ends first, f is cancelled before Await
// returns, so whatever f armed is disarmed by the time the caller proceeds.
func Await(ctx context.Context, f Future) error {
	sig := NewSignal()
	for {
		ready, err := f.Poll(sig)
		if ready {
			return err
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			f.Cancel()
			return ctx.Err()
		}
	}
}
