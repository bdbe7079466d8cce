package scene

// NodeBuilderOption is a functional option for configuring a Node during construction.
type NodeBuilderOption func(*node)

// WithName sets the node's label.
//
// Parameters:
//   - name: the label
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithName(name string) NodeBuilderOption {
	return func(n *node) {
		n.name = name
	}
}

// WithEnabled sets whether the node takes part in traversals.
//
// Parameters:
//   - enabled: false to skip the node and its subtree
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithEnabled(enabled bool) NodeBuilderOption {
	return func(n *node) {
		n.enabled.Store(enabled)
	}
}

// WithTransform sets the node's local transform.
//
// Parameters:
//   - t: the local transform
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTransform(t *Transform) NodeBuilderOption {
	return func(n *node) {
		n.local = t
	}
}

// WithPosition sets the node's local translation, creating an identity transform if needed.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		if n.local == nil {
			n.local = NewTransform()
		}
		n.local.Position = [3]float32{x, y, z}
	}
}

// WithComponents appends components in order.
//
// Parameters:
//   - components: the components to attach
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithComponents(components ...Component) NodeBuilderOption {
	return func(n *node) {
		for _, c := range components {
			n.AddComponent(c)
		}
	}
}

// WithChildren appends child nodes in order.
//
// Parameters:
//   - children: the child nodes
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		for _, c := range children {
			n.AddChild(c)
		}
	}
}
