package core

import "rpasync/hw"

// WakerRegistry is a fixed table of single-slot waker cells, one per
// (core, resource) pair, for one class of interrupt-bearing resource.
//
// A slot holds at most one waiter. Registering replaces the previous
// occupant; waking empties the slot. Callers must not run two waits on the
// same resource from the same core: the earlier waiter would be dropped.
// Delays claim their alarm channel and pin waits claim their (core, pin)
// slot, and refuse a second waiter with ErrBusy.
type WakerRegistry struct {
	name      string
	resources int
	slots     [hw.NumCores][]Waker
}

// NewWakerRegistry returns a registry with room for resources entries per core.
func NewWakerRegistry(name string, resources int) *WakerRegistry {
	r := &WakerRegistry{name: name, resources: resources}
	for i := range r.slots {
		r.slots[i] = make([]Waker, resources)
	}
	return r
}

// Resources returns the number of resources per core.
func (r *WakerRegistry) Resources() int {
	return r.resources
}

func (r *WakerRegistry) valid(core, resource int) bool {
	if !hw.ValidCore(core) {
		LogError(r.name + ": invalid core " + Itoa(core))
		return false
	}
	if resource < 0 || resource >= r.resources {
		LogError(r.name + ": invalid resource " + Itoa(resource))
		return false
	}
	return true
}

// Register stores w in the slot for (core, resource).
func (r *WakerRegistry) Register(core, resource int, w Waker) {
	if !r.valid(core, resource) {
		return
	}
	state := EnterCritical()
	r.slots[core][resource] = w
	ExitCritical(state)
}

// Wake takes the waker out of the slot for (core, resource) and wakes it.
// It is a no-op for an empty slot and is safe to call from an ISR.
func (r *WakerRegistry) Wake(core, resource int) {
	if !r.valid(core, resource) {
		return
	}
	state := EnterCritical()
	w := r.slots[core][resource]
	r.slots[core][resource] = nil
	ExitCritical(state)
	if w != nil {
		w.Wake()
	}
}

// Registered reports whether the slot for (core, resource) holds a waker
// that has not been woken yet.
func (r *WakerRegistry) Registered(core, resource int) bool {
	if !r.valid(core, resource) {
		return false
	}
	state := EnterCritical()
	ok := r.slots[core][resource] != nil
	ExitCritical(state)
	return ok
}

// Refresh replaces the waker in the slot for (core, resource) only if the
// slot is still occupied, and reports whether it was. A false result means
// the previous waker has already been woken.
func (r *WakerRegistry) Refresh(core, resource int, w Waker) bool {
	if !r.valid(core, resource) {
		return false
	}
	state := EnterCritical()
	ok := r.slots[core][resource] != nil
	if ok {
		r.slots[core][resource] = w
	}
	ExitCritical(state)
	return ok
}

// Clear empties the slot for (core, resource) without waking.
func (r *WakerRegistry) Clear(core, resource int) {
	if !r.valid(core, resource) {
		return
	}
	state := EnterCritical()
	r.slots[core][resource] = nil
	ExitCritical(state)
}

// Reset empties every slot.
func (r *WakerRegistry) Reset() {
	state := EnterCritical()
	for c := range r.slots {
		for i := range r.slots[c] {
			r.slots[c][i] = nil
		}
	}
	ExitCritical(state)
}
