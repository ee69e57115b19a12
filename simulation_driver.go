// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package tickwheel

import "time"

// SimulationDriver owns no goroutine and advances no real clock: callers
// drive it by calling NextEvent, which skips straight to the next
// non-empty tick and processes it. Cancellation is synchronous, unlike
// ThreadDriver's command-channel round trip. This is what this module's
// own tests use for deterministic timing, and is exported for downstream
// consumers' tests too.
type SimulationDriver struct {
	wheel      *CancellableWheel[TimerID, timerEntry]
	isShutdown bool
}

// NewSimulationDriver returns an empty SimulationDriver.
func NewSimulationDriver() *SimulationDriver {
	return &SimulationDriver{wheel: NewCancellableWheel[TimerID, timerEntry]()}
}

// ScheduleOnce implements Driver.
func (sd *SimulationDriver) ScheduleOnce(delay time.Duration, cb func()) (TimerID, error) {
	return sd.schedule(delay, 0, func() bool { cb(); return false })
}

// SchedulePeriodic implements Driver.
func (sd *SimulationDriver) SchedulePeriodic(initial, period time.Duration, cb func() bool) (TimerID, error) {
	return sd.schedule(initial, period, cb)
}

func (sd *SimulationDriver) schedule(delay, period time.Duration, cb Callback) (TimerID, error) {
	if sd.isShutdown {
		return 0, ErrShutdown
	}
	id := nextTimerID()
	entry := timerEntry{id: id, delay: delay, period: period, cb: cb}
	if _, err := sd.wheel.Insert(entry); err != nil {
		return 0, err
	}
	return id, nil
}

// Cancel implements Driver.
func (sd *SimulationDriver) Cancel(id TimerID) error {
	if sd.isShutdown {
		return ErrShutdown
	}
	_, err := sd.wheel.Cancel(id)
	return err
}

// Shutdown implements Driver. Idempotent; entries still scheduled are
// simply never reachable again, mirroring ThreadDriver dropping them.
func (sd *SimulationDriver) Shutdown() {
	sd.isShutdown = true
}

// NextEvent skips straight to the next tick at which something is due (via
// CanSkip/Skip), processes it, and returns the number of entries that
// fired. Returns 0 without advancing if nothing is scheduled.
func (sd *SimulationDriver) NextEvent() int {
	if sd.isShutdown {
		return 0
	}
	dec := sd.wheel.CanSkip()
	switch dec.Kind {
	case SkipEmpty:
		return 0
	case SkipMillis:
		sd.wheel.Skip(dec.Millis)
	}
	fired := sd.wheel.TickRefs()
	// dispatch's returned finished-count is intentionally unused here:
	// SimulationDriver has no outstanding-timer gauge, matching that it
	// is a test/demo harness, not a production metrics source.
	dispatch(sd.wheel, fired)
	return len(fired)
}

// Len reports how many timers are currently outstanding.
func (sd *SimulationDriver) Len() int {
	return sd.wheel.Len()
}
