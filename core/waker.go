package core

// Waker tells a suspended task that it may be resumed. Wake must not block:
// it is called from interrupt handlers.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to the Waker interface.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

// Signal is a Waker backed by a one-slot channel. Wakes that arrive while a
// previous one is still pending coalesce.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns an unsignalled Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Wake marks the signal. It never blocks.
func (s *Signal) Wake() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives one value per coalesced wake.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}
