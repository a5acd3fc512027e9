// Package reindexbus implements the Reindex Bus (spec.md §4.H): a
// single-producer single-consumer, capacity-1 channel carrying unit
// "refresh happened" signals from the CDC applier to the batch
// ingester. A coalescing channel, not LISTEN/NOTIFY — the applier and
// ingester are in-process (Design Notes §9).
package reindexbus

// Bus is a single-slot coalescing signal channel.
type Bus struct {
	ch chan struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{ch: make(chan struct{}, 1)}
}

// Signal posts a refresh notification. Non-blocking: if one is already
// pending, this send is dropped — one pending refresh is as good as
// many (spec.md §4.D step 7).
func (b *Bus) Signal() {
	select {
	case b.ch <- struct{}{}:
	default:
	}
}

// Wait returns the channel signals arrive on; a receive from it blocks
// until a signal is pending.
func (b *Bus) Wait() <-chan struct{} {
	return b.ch
}
