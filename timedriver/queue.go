package timedriver

import (
	"context"
	"time"

	"rpasync/core"
)

// sleeper is one entry of the queue's deadline-sorted list.
type sleeper struct {
	wake   uint64
	next   *sleeper
	waker  core.Waker
	queued bool
	fired  bool
}

// Queue multiplexes any number of sleeping tasks onto one alarm. Sleepers
// are kept sorted by deadline and the alarm always tracks the earliest.
type Queue struct {
	clock Clock
	alarm AlarmHandle
	head  *sleeper
}

// NewQueue allocates an alarm from clock for the queue.
func NewQueue(clock Clock) (*Queue, error) {
	h, ok := clock.AllocateAlarm()
	if !ok {
		return nil, ErrNoAlarm
	}
	q := &Queue{clock: clock, alarm: h}
	clock.SetAlarmCallback(h, q.onAlarm, nil)
	return q, nil
}

// Alarm returns the alarm the queue runs on.
func (q *Queue) Alarm() AlarmHandle {
	return q.alarm
}

// insert links s in deadline order; equal deadlines keep arrival order.
// Must be called inside the critical section.
func (q *Queue) insert(s *sleeper) {
	s.queued = true
	if q.head == nil || s.wake < q.head.wake {
		s.next = q.head
		q.head = s
		return
	}
	cur := q.head
	for cur.next != nil && cur.next.wake <= s.wake {
		cur = cur.next
	}
	s.next = cur.next
	cur.next = s
}

// remove unlinks s. Must be called inside the critical section.
func (q *Queue) remove(s *sleeper) {
	if !s.queued {
		return
	}
	s.queued = false
	if q.head == s {
		q.head = s.next
		s.next = nil
		return
	}
	for cur := q.head; cur != nil; cur = cur.next {
		if cur.next == s {
			cur.next = s.next
			s.next = nil
			return
		}
	}
}

func (q *Queue) earliest() (uint64, bool) {
	state := core.EnterCritical()
	defer core.ExitCritical(state)
	if q.head == nil {
		return 0, false
	}
	return q.head.wake, true
}

// dispatch wakes every sleeper whose deadline has passed, one at a time so
// no waker runs inside the critical section.
func (q *Queue) dispatch() {
	for {
		state := core.EnterCritical()
		s := q.head
		if s == nil || s.wake > q.clock.Now() {
			core.ExitCritical(state)
			return
		}
		q.head = s.next
		s.next = nil
		s.queued = false
		s.fired = true
		w := s.waker
		s.waker = nil
		core.ExitCritical(state)

		if w != nil {
			w.Wake()
		}
	}
}

// reprogram points the alarm at the earliest deadline. A deadline that is
// already due is dispatched directly and the next one tried.
func (q *Queue) reprogram() {
	for {
		next, ok := q.earliest()
		if !ok {
			return
		}
		if !q.clock.SetAlarm(q.alarm, next) {
			q.dispatch()
			continue
		}
		// an earlier sleeper may have been queued while the alarm was set
		if cur, ok := q.earliest(); !ok || cur == next {
			return
		}
	}
}

func (q *Queue) onAlarm(any) {
	q.dispatch()
	q.reprogram()
}

// Len returns the number of queued sleepers.
func (q *Queue) Len() int {
	state := core.EnterCritical()
	defer core.ExitCritical(state)
	n := 0
	for s := q.head; s != nil; s = s.next {
		n++
	}
	return n
}

// At returns a future that completes once the clock reaches deadline.
func (q *Queue) At(deadline uint64) core.Future {
	return &sleepFuture{q: q, node: sleeper{wake: deadline}}
}

// After returns a future that completes us microseconds after its first
// poll.
func (q *Queue) After(us uint64) core.Future {
	return &sleepFuture{q: q, us: us, relative: true}
}

// Sleep blocks for d, rounded up to whole microseconds.
func (q *Queue) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return core.Await(ctx, q.After(core.CeilDiv(uint64(d), uint64(time.Microsecond))))
}

type sleepFuture struct {
	q        *Queue
	node     sleeper
	us       uint64
	relative bool
	state    core.FutureState
	err      error
}

func (f *sleepFuture) Poll(w core.Waker) (bool, error) {
	switch f.state {
	case core.FutureDone:
		core.LogError("poll invoked after ready")
		return true, f.err
	case core.FutureArmed:
		state := core.EnterCritical()
		fired := f.node.fired
		if !fired {
			f.node.waker = w
		}
		core.ExitCritical(state)
		if fired {
			f.state = core.FutureDone
			return true, nil
		}
		return false, nil
	}

	if f.relative {
		if f.us == 0 {
			f.state = core.FutureDone
			return true, nil
		}
		f.node.wake = f.q.clock.Now() + f.us
	}

	state := core.EnterCritical()
	f.node.waker = w
	f.q.insert(&f.node)
	core.ExitCritical(state)
	f.state = core.FutureArmed

	f.q.reprogram()
	return false, nil
}

func (f *sleepFuture) Cancel() {
	if f.state == core.FutureDone {
		return
	}
	if f.state == core.FutureArmed {
		state := core.EnterCritical()
		f.q.remove(&f.node)
		f.node.waker = nil
		core.ExitCritical(state)
	}
	f.state = core.FutureDone
	f.err = core.ErrCancelled
}
