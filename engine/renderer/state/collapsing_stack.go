// Package state holds the traversal state of the renderer: a set of collapsing stacks that scene
// visitors push on node entry and pop on node exit.
package state

// CollapsingStack is a value stack whose Push duplicates the top instead of taking a new value.
// A visitor pushes on entering a node, overwrites the top while interpreting the node, and pops on
// leaving it, which restores the parent's value unconditionally.
//
// The stack also remembers the value each level started with, so Changed can tell whether the current
// level actually modified its value. Equality is supplied by the caller.
type CollapsingStack[T any] struct {
	values []T
	pushed []T
	eq     func(a, b T) bool
}

// Equal is the equality function for comparable value types.
func Equal[T comparable](a, b T) bool {
	return a == b
}

// NewCollapsingStack creates a stack holding only the base value.
//
// Parameters:
//   - base: the bottom value, which Pop never removes
//   - eq: the equality used by Changed; must not be nil
//
// Returns:
//   - *CollapsingStack[T]: the stack
func NewCollapsingStack[T any](base T, eq func(a, b T) bool) *CollapsingStack[T] {
	if eq == nil {
		panic("state: nil equality function")
	}
	return &CollapsingStack[T]{
		values: []T{base},
		pushed: []T{base},
		eq:     eq,
	}
}

// Reset drops every level and replaces the base value.
func (s *CollapsingStack[T]) Reset(base T) {
	s.values = append(s.values[:0], base)
	s.pushed = append(s.pushed[:0], base)
}

// Push adds a level holding a copy of the current top.
func (s *CollapsingStack[T]) Push() {
	top := s.values[len(s.values)-1]
	s.values = append(s.values, top)
	s.pushed = append(s.pushed, top)
}

// Pop removes the top level, revealing the previous value. The base level is never removed.
//
// Returns:
//   - bool: false if only the base level was left
func (s *CollapsingStack[T]) Pop() bool {
	if len(s.values) == 1 {
		return false
	}
	last := len(s.values) - 1
	var zero T
	s.values[last] = zero
	s.pushed[last] = zero
	s.values = s.values[:last]
	s.pushed = s.pushed[:last]
	return true
}

// Top returns the current value.
func (s *CollapsingStack[T]) Top() T {
	return s.values[len(s.values)-1]
}

// SetTop replaces the current value.
func (s *CollapsingStack[T]) SetTop(v T) {
	s.values[len(s.values)-1] = v
}

// Depth returns the number of levels above the base.
func (s *CollapsingStack[T]) Depth() int {
	return len(s.values) - 1
}

// Changed reports whether the top differs from the value its level was pushed with. Writing a value
// equal to the pushed one does not count as a change.
func (s *CollapsingStack[T]) Changed() bool {
	last := len(s.values) - 1
	return !s.eq(s.values[last], s.pushed[last])
}
