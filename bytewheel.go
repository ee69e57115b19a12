// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package tickwheel

import "github.com/coreflux/tickwheel/internal/ring"

// byteWheelSize is the number of slots in a single byte wheel: one slot
// per value a byte can take.
const byteWheelSize = 256

// ByteWheel is a single rotating array of 256 slots, each an unordered
// bag of entries. It is the leaf building block of QuadWheel and is
// itself oblivious to delay encoding or cascading; QuadWheel is the layer
// that interprets offsets.
type ByteWheel[E any] struct {
	slots [byteWheelSize]ring.List[E]
	cur   int
}

// NewByteWheel returns an initialised, empty ByteWheel.
func NewByteWheel[E any]() *ByteWheel[E] {
	w := &ByteWheel[E]{}
	for i := range w.slots {
		w.slots[i].Init()
	}
	return w
}

// InsertAtOffset appends entry to the slot offset positions ahead of the
// wheel's current index, wrapping modulo 256.
func (w *ByteWheel[E]) InsertAtOffset(entry E, offset uint8) {
	idx := (w.cur + int(offset)) & (byteWheelSize - 1)
	w.slots[idx].PushBack(ring.NewNode(entry))
}

// Tick drains the current slot, advances the index by one, and reports
// whether the advance wrapped back to slot 0.
func (w *ByteWheel[E]) Tick() (drained []E, wrapped bool) {
	drained = w.slots[w.cur].DrainAll()
	w.cur = (w.cur + 1) & (byteWheelSize - 1)
	wrapped = w.cur == 0
	return drained, wrapped
}

// Advance moves the wheel's current index forward by n slots without
// draining anything, and reports how many times the index wrapped past
// slot 255 (i.e. how many times the next-higher wheel must itself
// advance). Used by QuadWheel.Skip to jump a whole idle stretch in one
// step instead of draining+advancing one slot at a time; correct only
// when every slot being jumped over is empty, which is exactly what
// Skip's CanSkip-bounded contract guarantees.
func (w *ByteWheel[E]) Advance(n uint64) (wraps uint64) {
	total := uint64(w.cur) + n
	wraps = total / byteWheelSize
	w.cur = int(total % byteWheelSize)
	return wraps
}

// IsEmpty reports whether every slot is currently empty.
func (w *ByteWheel[E]) IsEmpty() bool {
	for i := range w.slots {
		if !w.slots[i].Empty() {
			return false
		}
	}
	return true
}

// CurrentIndex returns the wheel's current slot index, mostly useful for
// debugging and tests.
func (w *ByteWheel[E]) CurrentIndex() int {
	return w.cur
}

// PeekAtOffset returns the contents of the slot offset positions ahead of
// the current index without draining it. Used by CanSkip to inspect an
// occupied slot's items so it can report an exact (not merely safe) skip
// bound instead of treating the slot's visit time as the firing time.
func (w *ByteWheel[E]) PeekAtOffset(offset int) []E {
	idx := (w.cur + offset) & (byteWheelSize - 1)
	var out []E
	w.slots[idx].ForEach(func(n *ring.Node[E]) bool {
		out = append(out, n.Value)
		return true
	})
	return out
}

// NextOccupiedOffset scans forward from the current slot (inclusive) and
// returns the offset of the first non-empty slot, or -1 if the entire
// wheel is empty. It never mutates the wheel.
func (w *ByteWheel[E]) NextOccupiedOffset() int {
	for o := 0; o < byteWheelSize; o++ {
		idx := (w.cur + o) & (byteWheelSize - 1)
		if !w.slots[idx].Empty() {
			return o
		}
	}
	return -1
}
