// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package ring implements a generic intrusive doubly-linked circular list
// with a head sentinel, the slot storage used by the byte wheel. Nodes
// carry their own links so insertion and removal never allocate once the
// node exists.
package ring

// Node is one element of a List. The zero value is a detached node.
type Node[T any] struct {
	next, prev *Node[T]
	Value      T
}

// Detached reports whether n is not currently linked into any List.
func (n *Node[T]) Detached() bool {
	return n.next == nil && n.prev == nil
}

// NewNode returns a detached node carrying v.
func NewNode[T any](v T) *Node[T] {
	return &Node[T]{Value: v}
}

// List is a circular doubly-linked list with a head sentinel node. The
// zero value is not ready to use; call Init first.
type List[T any] struct {
	head Node[T]
}

// Init (re)initialises lst as an empty circular list.
func (lst *List[T]) Init() {
	lst.head.next = &lst.head
	lst.head.prev = &lst.head
}

// Empty reports whether the list currently holds no nodes.
func (lst *List[T]) Empty() bool {
	return lst.head.next == &lst.head
}

// PushBack appends n at the end of the list. n must be detached.
func (lst *List[T]) PushBack(n *Node[T]) {
	if !n.Detached() {
		panic("ring: PushBack called on an attached node")
	}
	n.prev = lst.head.prev
	n.next = &lst.head
	n.prev.next = n
	lst.head.prev = n
}

// PushFront inserts n at the start of the list. n must be detached.
func (lst *List[T]) PushFront(n *Node[T]) {
	if !n.Detached() {
		panic("ring: PushFront called on an attached node")
	}
	n.prev = &lst.head
	n.next = lst.head.next
	n.next.prev = n
	lst.head.next = n
}

// Remove detaches n from whichever list it is linked into.
func (lst *List[T]) Remove(n *Node[T]) {
	if n.Detached() {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next, n.prev = nil, nil
}

// ForEach calls f for every node in iteration order, stopping early if f
// returns false. f must not remove nodes other than the one it is given;
// use DrainAll to consume the whole list destructively instead.
func (lst *List[T]) ForEach(f func(n *Node[T]) bool) {
	for v := lst.head.next; v != &lst.head; v = v.next {
		if !f(v) {
			return
		}
	}
}

// DrainAll detaches every node currently in the list and returns their
// values, leaving the list empty. Iteration order matches the list's own
// order, which callers must not depend on (matches the source wheel's
// "unordered bag" contract for a slot).
func (lst *List[T]) DrainAll() []T {
	if lst.Empty() {
		return nil
	}
	out := make([]T, 0, 4)
	v := lst.head.next
	for v != &lst.head {
		next := v.next
		v.next, v.prev = nil, nil
		out = append(out, v.Value)
		v = next
	}
	lst.Init()
	return out
}
