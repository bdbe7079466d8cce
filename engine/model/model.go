package model

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshHandle identifies a mesh uploaded to a render backend.
type MeshHandle uint64

// model is the implementation of the Model interface.
type model struct {
	name     string
	vertices []GPUVertex
	indices  []uint32
	bounds   common.AABB

	vertexData, indexData []byte
	version               uint64

	handle    MeshHandle
	hasHandle bool
}

// Model defines the interface for an indexed triangle mesh attached to scene nodes.
//
// The model keeps CPU copies of its geometry for picking and culling, along with the interleaved
// payloads a backend uploads. After SetGeometry the version changes and backends re-upload.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices returns the mesh vertices.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// Indices returns the triangle list indices.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// IndexCount returns the number of indices in the mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// TriangleCount returns the number of triangles in the mesh.
	//
	// Returns:
	//   - int: the triangle count
	TriangleCount() int

	// Triangle returns the model-space corners of the i-th triangle.
	//
	// Parameters:
	//   - i: the triangle index, in [0, TriangleCount())
	//
	// Returns:
	//   - a, b, c: the triangle corners
	Triangle(i int) (a, b, c mgl32.Vec3)

	// Bounds returns the model-space bounding box of the mesh.
	//
	// Returns:
	//   - common.AABB: the local bounds
	Bounds() common.AABB

	// VertexData returns the interleaved vertex payload for GPU upload.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the uint32 index payload for GPU upload.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// Version is incremented whenever the geometry changes.
	//
	// Returns:
	//   - uint64: the geometry version
	Version() uint64

	// SetGeometry replaces the mesh geometry and recomputes bounds and payloads.
	//
	// Parameters:
	//   - vertices: the new vertices
	//   - indices: the new triangle list indices
	SetGeometry(vertices []GPUVertex, indices []uint32)

	// Handle returns the backend mesh handle, if the mesh has been uploaded.
	//
	// Returns:
	//   - MeshHandle: the handle
	//   - bool: false if the mesh has not been uploaded
	Handle() (MeshHandle, bool)

	// SetHandle records the backend mesh handle after upload.
	//
	// Parameters:
	//   - h: the handle
	SetHandle(h MeshHandle)

	// ComponentType identifies the model as a scene component.
	//
	// Returns:
	//   - string: "mesh"
	ComponentType() string
}

var _ Model = &model{}

// NewModel creates a new Model configured with the provided options.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: a new Model instance
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	m.SetGeometry(m.vertices, m.indices)
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) TriangleCount() int {
	return len(m.indices) / 3
}

func (m *model) Triangle(i int) (a, b, c mgl32.Vec3) {
	a = m.vertices[m.indices[i*3]].Position
	b = m.vertices[m.indices[i*3+1]].Position
	c = m.vertices[m.indices[i*3+2]].Position
	return a, b, c
}

func (m *model) Bounds() common.AABB {
	return m.bounds
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) Version() uint64 {
	return m.version
}

func (m *model) SetGeometry(vertices []GPUVertex, indices []uint32) {
	m.vertices = vertices
	m.indices = indices
	m.bounds = ComputeBounds(vertices)
	m.vertexData = common.SliceToBytes(vertices)
	m.indexData = common.SliceToBytes(indices)
	m.version++
}

func (m *model) Handle() (MeshHandle, bool) {
	return m.handle, m.hasHandle
}

func (m *model) SetHandle(h MeshHandle) {
	m.handle = h
	m.hasHandle = true
}

func (m *model) ComponentType() string {
	return "mesh"
}
