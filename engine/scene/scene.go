// Package scene defines the scene graph the renderer traverses: nodes with an optional local
// transform, ordered components and ordered children, rooted in a Scene.
package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns a root Node and the scene-wide settings. Scenes can be hot-swapped via the Active flag
// to switch between different views or levels.
// The name, active flag and ambient color are safe for concurrent access; the node graph is not.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Root returns the root node of the scene graph.
	Root() Node

	// Ambient returns the ambient light color.
	Ambient() mgl32.Vec3

	// SetAmbient sets the ambient light color.
	//
	// Parameters:
	//   - c: the linear RGB color
	SetAmbient(c mgl32.Vec3)

	// Find returns the first node in depth-first pre-order whose name matches.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the node, or nil if none matches
	Find(name string) Node
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu      sync.RWMutex
	name    string
	active  bool
	ambient mgl32.Vec3
	root    Node
}

var _ Scene = &scene{}

// NewScene creates an active Scene with an empty root node.
//
// Parameters:
//   - name: the scene identifier
//   - options: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:    name,
		active:  true,
		ambient: mgl32.Vec3{0.03, 0.03, 0.03},
		root:    NewNode(WithName("root")),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Root() Node {
	return s.root
}

func (s *scene) Ambient() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *scene) SetAmbient(c mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = c
}

func (s *scene) Find(name string) Node {
	return find(s.root, name)
}

func find(n Node, name string) Node {
	if n.Name() == name {
		return n
	}
	for _, c := range n.Children() {
		if found := find(c, name); found != nil {
			return found
		}
	}
	return nil
}
