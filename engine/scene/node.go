package scene

import (
	"slices"
	"sync/atomic"
)

// node is the implementation of the Node interface.
type node struct {
	name       string
	local      *Transform
	components []Component
	children   []Node
	enabled    atomic.Bool
}

// Node is an element of the scene graph. A node has an optional local transform, an ordered list of
// components and an ordered list of children. Visitors read nodes but never modify them.
//
// The graph is expected to be a tree. Visitors do not detect cycles.
type Node interface {
	// Name returns the node's label.
	Name() string

	// Enabled reports whether the node and its subtree take part in traversals.
	Enabled() bool

	// SetEnabled enables or disables the node and its subtree.
	//
	// Parameters:
	//   - enabled: false to skip the subtree in every traversal
	SetEnabled(enabled bool)

	// Local returns the node's own transform, or nil if it has none.
	//
	// Returns:
	//   - *Transform: the local transform or nil
	Local() *Transform

	// SetLocal replaces the node's own transform. nil removes it.
	//
	// Parameters:
	//   - t: the new transform
	SetLocal(t *Transform)

	// Components returns the node's components in declaration order.
	// The returned slice must not be modified.
	//
	// Returns:
	//   - []Component: the components
	Components() []Component

	// AddComponent appends a component.
	//
	// Parameters:
	//   - c: the component to append
	AddComponent(c Component)

	// RemoveComponent removes the first occurrence of a component.
	//
	// Parameters:
	//   - c: the component to remove
	//
	// Returns:
	//   - bool: false if the node did not hold the component
	RemoveComponent(c Component) bool

	// Children returns the node's children in order.
	// The returned slice must not be modified.
	//
	// Returns:
	//   - []Node: the children
	Children() []Node

	// AddChild appends a child node.
	//
	// Parameters:
	//   - child: the node to append
	AddChild(child Node)

	// RemoveChild removes the first occurrence of a child node.
	//
	// Parameters:
	//   - child: the node to remove
	//
	// Returns:
	//   - bool: false if child was not a child of this node
	RemoveChild(child Node) bool
}

var _ Node = &node{}

// NewNode creates a new enabled Node configured with the provided options.
//
// Parameters:
//   - options: variadic list of NodeBuilderOption functions to configure the node
//
// Returns:
//   - Node: the new node
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{}
	n.enabled.Store(true)
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Enabled() bool {
	return n.enabled.Load()
}

func (n *node) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

func (n *node) Local() *Transform {
	return n.local
}

func (n *node) SetLocal(t *Transform) {
	n.local = t
}

func (n *node) Components() []Component {
	return n.components
}

func (n *node) AddComponent(c Component) {
	if c == nil {
		return
	}
	n.components = append(n.components, c)
}

func (n *node) RemoveComponent(c Component) bool {
	i := slices.Index(n.components, c)
	if i < 0 {
		return false
	}
	n.components = slices.Delete(n.components, i, i+1)
	return true
}

func (n *node) Children() []Node {
	return n.children
}

func (n *node) AddChild(child Node) {
	if child == nil {
		return
	}
	n.children = append(n.children, child)
}

func (n *node) RemoveChild(child Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	return true
}
