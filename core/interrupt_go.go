//go:build !tinygo

package core

import (
	"sync"
	"sync/atomic"
)

// State is the saved interrupt state returned by EnterCritical.
type State uintptr

// criticalMu stands in for "interrupts off plus the cross-core spinlock" on
// the host, where simulated ISRs run on ordinary goroutines.
var criticalMu sync.Mutex

// EnterCritical starts a critical section shared between task and interrupt
// context. Critical sections do not nest.
func EnterCritical() State {
	criticalMu.Lock()
	return 0
}

// ExitCritical ends the critical section started by EnterCritical.
func ExitCritical(state State) {
	criticalMu.Unlock()
}

var hostCore atomic.Int32

// CurrentCore returns the index of the executing core. On the host it is
// whatever SetCurrentCore last selected.
func CurrentCore() int {
	return int(hostCore.Load())
}

// SetCurrentCore selects the core that host code pretends to run on.
func SetCurrentCore(core int) {
	hostCore.Store(int32(core))
}
