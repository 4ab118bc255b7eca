package core

import (
	"errors"

	"rpasync/hw"
)

// ErrTimerReserved is returned when a timer is claimed by a second owner.
// The time driver programs every alarm channel of its timer, so that timer
// cannot also back delays.
var ErrTimerReserved = errors.New("timer already reserved")

var timerOwners = map[*hw.Timer]string{}

// ClaimTimer records owner as the user of t. Claiming again with the same
// owner succeeds.
func ClaimTimer(t *hw.Timer, owner string) error {
	state := EnterCritical()
	defer ExitCritical(state)
	if cur, ok := timerOwners[t]; ok && cur != owner {
		return ErrTimerReserved
	}
	timerOwners[t] = owner
	return nil
}

// TimerOwner returns the owner recorded for t, if any.
func TimerOwner(t *hw.Timer) (string, bool) {
	state := EnterCritical()
	defer ExitCritical(state)
	owner, ok := timerOwners[t]
	return owner, ok
}
