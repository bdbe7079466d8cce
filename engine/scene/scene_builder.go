package scene

import "github.com/go-gl/mathgl/mgl32"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRoot replaces the scene's root node.
//
// Parameters:
//   - root: the root node; nil keeps the default root
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRoot(root Node) SceneBuilderOption {
	return func(s *scene) {
		if root != nil {
			s.root = root
		}
	}
}

// WithNodes appends nodes under the root.
//
// Parameters:
//   - nodes: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		for _, n := range nodes {
			s.root.AddChild(n)
		}
	}
}

// WithAmbient sets the ambient light color.
//
// Parameters:
//   - c: the linear RGB color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbient(c mgl32.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = c
	}
}
