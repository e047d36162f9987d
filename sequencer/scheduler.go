package sequencer

import (
	"context"
	"time"

	"gridseq/debug"
	"gridseq/midi"
)

// TickInterval is the pause between scheduler passes
const TickInterval = 10 * time.Millisecond

// Source yields the input received since the last call without blocking
type Source interface {
	Drain() []midi.Batch
}

// Run ticks the engine until ctx is done, then shuts it down. It is the only
// goroutine touching the engine. Snapshots go to updates when the receiver
// is ready; stale ones are dropped.
func Run(ctx context.Context, e *Engine, src Source, updates chan<- Snapshot) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			debug.Log("play", "scheduler stopping")
			return e.Shutdown()
		case <-timer.C:
		}

		if err := e.Tick(time.Now(), src.Drain()); err != nil {
			debug.Error("play", err)
			return err
		}

		if updates != nil {
			select {
			case updates <- e.Snapshot():
			default:
			}
		}

		timer.Reset(TickInterval)
	}
}
