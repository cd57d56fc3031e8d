package service

import "sync/atomic"

// BusyFlag marks an analysis in flight. The zero value is idle.
type BusyFlag struct {
	busy atomic.Bool
}

// TryAcquire sets the flag and reports whether it was idle.
func (b *BusyFlag) TryAcquire() bool {
	return b.busy.CompareAndSwap(false, true)
}

// Release clears the flag.
func (b *BusyFlag) Release() {
	b.busy.Store(false)
}

// IsBusy reports whether an analysis is in flight.
func (b *BusyFlag) IsBusy() bool {
	return b.busy.Load()
}
