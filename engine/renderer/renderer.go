// Package renderer drives one frame: it collects draw items from the scene graph, flushes dirty
// effect uniforms, writes the per-draw built-ins, draws, and finally lets the effect manager release
// the effects disposed during the frame.
package renderer

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/light"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/effect_manager"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/Carmen-Shannon/oxy-core/engine/visitor"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// UniformLights is the name of the uniform the light buffer is written to, when a program declares it.
const UniformLights = "lights"

// meshEntry records the uploaded version of a mesh.
type meshEntry struct {
	handle  model.MeshHandle
	version uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend backend.Backend
	effects effect_manager.EffectManager
	visitor *visitor.RenderVisitor
	lights  *visitor.LightVisitor
	logger  *zap.Logger

	meshes  map[model.Model]meshEntry
	ambient mgl32.Vec3

	// Pre-creation config collected from builder options
	path     common.RenderPath
	layers   []state.RenderLayer
	culling  bool
	workers  int
	injected effect_manager.EffectManager
}

// Renderer defines the interface for the rendering system.
//
// A frame is a single call to RenderFrame. Everything happens on the calling goroutine, which must be
// the graphics thread of the backend.
type Renderer interface {
	// Backend returns the render backend draws are issued to.
	Backend() backend.Backend

	// Effects returns the effect manager owning every compiled effect.
	Effects() effect_manager.EffectManager

	// Lights returns the light visitor whose records persist across frames.
	Lights() *visitor.LightVisitor

	// RenderPath returns the render path effects are compiled for.
	RenderPath() common.RenderPath

	// SetRenderPath changes the render path. Effects already compiled for the other path stay cached.
	//
	// Parameters:
	//   - p: the render path
	SetRenderPath(p common.RenderPath)

	// SetLayers restricts drawing to the given layers. No layers enables every layer.
	//
	// Parameters:
	//   - layers: the enabled layers
	SetLayers(layers ...state.RenderLayer)

	// SetAmbient sets the ambient color written with the light buffer.
	//
	// Parameters:
	//   - c: the linear RGB color
	SetAmbient(c mgl32.Vec3)

	// RenderFrame renders the graph under root as seen from cam.
	//
	// Draw items are sorted by layer, then by effect identity. Each item flushes its effect's dirty
	// uniforms, writes the model, view and projection built-ins, the light buffer when the program
	// declares one, and is drawn once per pass. After the frame is submitted the effect manager runs
	// its cleanup, so effects disposed during the frame are released only after their last draw.
	//
	// Parameters:
	//   - root: the graph root
	//   - cam: the camera to render from
	//
	// Returns:
	//   - profiler.FrameStats: the frame counters
	//   - error: joined compile, upload, draw and submission errors
	RenderFrame(root scene.Node, cam visitor.CameraResult) (profiler.FrameStats, error)

	// ReleaseMesh releases the uploaded copy of a mesh.
	//
	// Parameters:
	//   - m: the mesh
	ReleaseMesh(m model.Model)

	// Release releases every uploaded mesh and the effect manager's programs and workers. The
	// renderer must not draw afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing through b.
//
// Parameters:
//   - b: the render backend; must not be nil
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(b backend.Backend, options ...RendererBuilderOption) Renderer {
	if b == nil {
		panic("renderer: nil backend")
	}
	r := &renderer{
		backend: b,
		logger:  zap.NewNop(),
		meshes:  make(map[model.Model]meshEntry),
		ambient: mgl32.Vec3{0.03, 0.03, 0.03},
		path:    common.RenderPathForward,
		workers: 4,
	}
	for _, opt := range options {
		opt(r)
	}

	r.effects = r.injected
	if r.effects == nil {
		r.effects = effect_manager.NewEffectManager(b,
			effect_manager.WithLogger(r.logger),
			effect_manager.WithWorkers(r.workers),
		)
	}
	r.visitor = visitor.NewRenderVisitor(r.effects,
		visitor.WithRenderPath(r.path),
		visitor.WithLayers(r.layers...),
		visitor.WithFrustumCulling(r.culling),
		visitor.WithLogger(r.logger),
	)
	r.lights = visitor.NewLightVisitor()
	return r
}

func (r *renderer) Backend() backend.Backend {
	return r.backend
}

func (r *renderer) Effects() effect_manager.EffectManager {
	return r.effects
}

func (r *renderer) Lights() *visitor.LightVisitor {
	return r.lights
}

func (r *renderer) RenderPath() common.RenderPath {
	return r.visitor.Path()
}

func (r *renderer) SetRenderPath(p common.RenderPath) {
	r.visitor.SetPath(p)
}

func (r *renderer) SetLayers(layers ...state.RenderLayer) {
	r.visitor.SetLayers(layers...)
}

func (r *renderer) SetAmbient(c mgl32.Vec3) {
	r.ambient = c
}

func (r *renderer) RenderFrame(root scene.Node, cam visitor.CameraResult) (profiler.FrameStats, error) {
	var stats profiler.FrameStats

	r.visitor.SetViewProjection(cam.ViewProjection())
	items, collectErr := r.visitor.Collect(root)
	sortItems(items)
	lightData := r.lightBuffer(root)

	if err := r.backend.BeginFrame(); err != nil {
		return stats, errors.Join(collectErr, fmt.Errorf("renderer: begin frame: %w", err))
	}

	var drawErr error
	for _, item := range items {
		mesh, err := r.ensureMesh(item.Mesh)
		if err != nil {
			drawErr = err
			break
		}
		stats.UniformWrites += item.Compiled.FlushUniforms(r.backend)
		for _, pass := range item.Compiled.Passes() {
			r.writeBuiltins(pass.Program, item.Model, cam, lightData)
			if err := r.backend.Draw(pass.Program.Handle, mesh, item.Mesh.IndexCount()); err != nil {
				drawErr = fmt.Errorf("renderer: draw %q: %w", item.Node.Name(), err)
				break
			}
			stats.DrawCalls++
		}
		if drawErr != nil {
			break
		}
	}

	var endErr error
	if err := r.backend.EndFrame(); err != nil {
		endErr = fmt.Errorf("renderer: end frame: %w", err)
	}

	removed := r.effects.Cleanup()
	stats.EffectsReleased = len(removed)
	if len(removed) > 0 {
		r.logger.Debug("released effects", zap.Int("count", len(removed)))
	}
	return stats, errors.Join(collectErr, drawErr, endErr)
}

func (r *renderer) ReleaseMesh(m model.Model) {
	entry, ok := r.meshes[m]
	if !ok {
		return
	}
	r.backend.ReleaseMesh(entry.handle)
	delete(r.meshes, m)
}

func (r *renderer) Release() {
	for m, entry := range r.meshes {
		r.backend.ReleaseMesh(entry.handle)
		delete(r.meshes, m)
	}
	r.effects.Release()
	r.logger.Debug("renderer released")
}

// sortItems orders items by layer, then by effect identity, keeping traversal order otherwise.
func sortItems(items []visitor.DrawItem) {
	slices.SortStableFunc(items, func(a, b visitor.DrawItem) int {
		if c := cmp.Compare(a.Layer, b.Layer); c != 0 {
			return c
		}
		ida, idb := a.Effect.ID(), b.Effect.ID()
		return bytes.Compare(ida[:], idb[:])
	})
}

// ensureMesh uploads a mesh on first use and again whenever its geometry version changes.
func (r *renderer) ensureMesh(m model.Model) (model.MeshHandle, error) {
	entry, ok := r.meshes[m]
	if ok && entry.version == m.Version() {
		return entry.handle, nil
	}
	if ok {
		r.backend.ReleaseMesh(entry.handle)
		delete(r.meshes, m)
	}
	h, err := r.backend.UploadMesh(m)
	if err != nil {
		return 0, fmt.Errorf("renderer: upload mesh %q: %w", m.Name(), err)
	}
	m.SetHandle(h)
	r.meshes[m] = meshEntry{handle: h, version: m.Version()}
	return h, nil
}

// writeBuiltins writes the uniforms the renderer owns. Programs that do not declare them are skipped.
func (r *renderer) writeBuiltins(p backend.Program, world mgl32.Mat4, cam visitor.CameraResult, lightData []byte) {
	if loc, ok := p.Uniforms[shader.UniformModel]; ok {
		r.backend.SetUniform(p.Handle, loc, world)
	}
	if loc, ok := p.Uniforms[shader.UniformView]; ok {
		r.backend.SetUniform(p.Handle, loc, cam.View)
	}
	if loc, ok := p.Uniforms[shader.UniformProjection]; ok {
		r.backend.SetUniform(p.Handle, loc, cam.Projection)
	}
	if loc, ok := p.Uniforms[UniformLights]; ok {
		r.backend.SetUniform(p.Handle, loc, lightData)
	}
}

// lightBuffer marshals the enabled lights of the graph.
func (r *renderer) lightBuffer(root scene.Node) []byte {
	var gpu []light.GPULight
	for res := range r.lights.Convert(root) {
		if !res.Light.Enabled() {
			continue
		}
		gpu = append(gpu, res.GPU())
	}
	return light.MarshalLightBuffer(gpu, r.ambient)
}
