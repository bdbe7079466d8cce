package model

// ModelBuilderOption is a function that configures a model instance during construction.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry is an option builder that sets the mesh vertices and triangle list indices.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: the triangle list indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the geometry option to a model
func WithGeometry(vertices []GPUVertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
		m.indices = indices
	}
}
