// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package tickwheel

import (
	"time"
	"weak"

	"github.com/coreflux/tickwheel/internal/entrystate"
)

// entryBox is the strong handle a CancellableWheel's side table owns.
// The wheel itself only ever holds a weak.Pointer to one of these; state
// tracks liveness explicitly rather than relying on when the garbage
// collector actually reclaims the box; weak.Pointer only governs memory
// lifetime, not the cancellation decision itself.
type entryBox[E any] struct {
	entry E
	state entrystate.State
}

// Ref is an opaque strong reference to an entry already known to a
// CancellableWheel, returned by Insert so a caller doing periodic
// rescheduling can hand it straight back to InsertRef without needing a
// fresh box allocation for every fire.
type Ref[E any] struct {
	box *entryBox[E]
}

// Entry returns the entry this reference points at.
func (r Ref[E]) Entry() E {
	return r.box.entry
}

// CancellableWheel wraps a QuadWheel with O(1) cancellation: entries live
// in the wheel only as weak handles, while a side table keyed by entry id
// holds the owning strong handle. Cancellation never walks the wheel; it
// only removes the side-table entry, and the corresponding weak handle is
// reaped the next time its slot is visited.
type CancellableWheel[ID comparable, E IdentifiableEntry[ID]] struct {
	wheel  *QuadWheel[weak.Pointer[entryBox[E]]]
	timers map[ID]*entryBox[E]
}

// NewCancellableWheel returns an empty CancellableWheel.
func NewCancellableWheel[ID comparable, E IdentifiableEntry[ID]]() *CancellableWheel[ID, E] {
	cw := &CancellableWheel[ID, E]{
		timers: make(map[ID]*entryBox[E]),
	}
	cw.wheel = NewQuadWheel[weak.Pointer[entryBox[E]]](cw.prune)
	return cw
}

// prune is the pruner fixed into the underlying QuadWheel: keep a weak
// handle iff it still upgrades to a box that is still marked Live.
func (cw *CancellableWheel[ID, E]) prune(wp weak.Pointer[entryBox[E]]) bool {
	box := wp.Value()
	if box == nil {
		return false
	}
	return box.state.Has(entrystate.Live)
}

func millisOf(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}

func (cw *CancellableWheel[ID, E]) insertBox(id ID, box *entryBox[E]) error {
	wp := weak.Make(box)
	if err := cw.wheel.InsertWithDelay(wp, millisOf(box.entry.Delay())); err != nil {
		return NewExpiredError(box.entry)
	}
	cw.timers[id] = box
	return nil
}

// Insert wraps entry in a strong handle, inserts a weak handle into the
// underlying wheel, and records the strong handle keyed by entry.ID(). On
// failure (zero or negative delay) the strong handle is unwrapped and the
// caller gets the entry back via ExpiredError.
func (cw *CancellableWheel[ID, E]) Insert(entry E) (Ref[E], error) {
	box := &entryBox[E]{entry: entry, state: entrystate.New(entrystate.Live)}
	if err := cw.insertBox(entry.ID(), box); err != nil {
		return Ref[E]{}, err
	}
	return Ref[E]{box: box}, nil
}

// InsertRef re-arms an already-boxed entry (typically one just yielded by
// Tick for a periodic reschedule) using its current Delay(), without
// allocating a new box. The caller retains ref and may keep reusing it
// across fires.
func (cw *CancellableWheel[ID, E]) InsertRef(ref Ref[E]) error {
	box := ref.box
	box.state.Set(entrystate.Live)
	if err := cw.insertBox(box.entry.ID(), box); err != nil {
		box.state.Clear(entrystate.Live)
		return err
	}
	return nil
}

// Cancel removes id from the side table. It does not walk the wheel: the
// corresponding weak handle is left to be discarded on its next visit.
// Per the double-yield invariant, a given Insert causes exactly one
// entry to ever come back out of either Cancel or Tick.
func (cw *CancellableWheel[ID, E]) Cancel(id ID) (E, error) {
	box, ok := cw.timers[id]
	if !ok {
		var zero E
		return zero, ErrNotFound
	}
	delete(cw.timers, id)
	box.state.Clear(entrystate.Live)
	return box.entry, nil
}

// TickRefs advances the underlying wheel by one tick and returns a strong
// Ref for every entry that is both due and still live. Drivers that need
// to re-arm a fired periodic entry should prefer this over Tick, passing
// the Ref straight back to InsertRef so the box backing it is reused
// instead of being reallocated on every fire.
func (cw *CancellableWheel[ID, E]) TickRefs() []Ref[E] {
	due := cw.wheel.Tick()
	if len(due) == 0 {
		return nil
	}
	out := make([]Ref[E], 0, len(due))
	for _, wp := range due {
		box := wp.Value()
		if box == nil {
			continue
		}
		if !box.state.TestAndClear(entrystate.Live) {
			// lost the race to a concurrent Cancel, or already yielded.
			continue
		}
		delete(cw.timers, box.entry.ID())
		out = append(out, Ref[E]{box: box})
	}
	return out
}

// Tick advances the underlying wheel by one tick and returns every entry
// that is both due and still live.
func (cw *CancellableWheel[ID, E]) Tick() []E {
	refs := cw.TickRefs()
	if len(refs) == 0 {
		return nil
	}
	out := make([]E, len(refs))
	for i, r := range refs {
		out[i] = r.Entry()
	}
	return out
}

// CanSkip reports SkipEmpty when no entry is live; otherwise it passes
// through to the underlying QuadWheel, whose bound also counts cancelled
// entries not yet reaped, so it can be shorter than the distance to the
// next live expiry.
func (cw *CancellableWheel[ID, E]) CanSkip() SkipDecision {
	if len(cw.timers) == 0 {
		return SkipDecision{Kind: SkipEmpty}
	}
	return cw.wheel.CanSkip()
}

// Skip passes through to the underlying QuadWheel.
func (cw *CancellableWheel[ID, E]) Skip(n uint64) {
	cw.wheel.Skip(n)
}

// Len returns the number of entries currently live in the side table.
func (cw *CancellableWheel[ID, E]) Len() int {
	return len(cw.timers)
}
