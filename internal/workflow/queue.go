package workflow

import "slices"

// Queue is a FIFO backed by a slice with a moving head.
type Queue[T any] struct {
	items []T
	head  int
}

// Push appends v at the tail.
func (q *Queue[T]) Push(v T) {
	q.items = append(q.items, v)
}

// Pop removes and returns the head. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (v T, ok bool) {
	if q.Len() == 0 {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

// PushFront puts v back at the head.
func (q *Queue[T]) PushFront(v T) {
	if q.head > 0 {
		q.head--
		q.items[q.head] = v
		return
	}
	q.items = slices.Insert(q.items, 0, v)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// Items returns a copy of the queue contents, head first.
func (q *Queue[T]) Items() []T {
	return slices.Clone(q.items[q.head:])
}

// SortStable reorders the queue by cmp. Equal elements keep their order.
func (q *Queue[T]) SortStable(cmp func(a, b T) int) {
	live := slices.Clone(q.items[q.head:])
	slices.SortStableFunc(live, cmp)
	q.items = live
	q.head = 0
}

// Clear empties the queue.
func (q *Queue[T]) Clear() {
	q.items = nil
	q.head = 0
}

// Stack is a LIFO.
type Stack[T any] struct {
	items []T
}

// Push places v on top.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top. ok is false when the stack is empty.
func (s *Stack[T]) Pop() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	v = s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Len returns the stack depth.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the stack contents, top first.
func (s *Stack[T]) Items() []T {
	out := slices.Clone(s.items)
	slices.Reverse(out)
	return out
}

// Clear empties the stack.
func (s *Stack[T]) Clear() {
	s.items = nil
}
