package backend

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"go.uber.org/zap"
)

var (
	// ErrNoFrame is returned by Draw and EndFrame when BeginFrame has not been called.
	ErrNoFrame = errors.New("backend: no frame is being recorded")

	// ErrSurfaceNotConfigured is returned when a program is compiled before ConfigureSurface.
	ErrSurfaceNotConfigured = errors.New("backend: surface is not configured")

	errGeometryStage = errors.New("WGSL has no geometry stage")
	errNoFragment    = errors.New("a fragment source is required")
)

// wgpuProgram holds every GPU object created for one compiled program.
type wgpuProgram struct {
	label          string
	modules        []*wgpu.ShaderModule
	layouts        []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.RenderPipeline

	// groups is indexed by bind group number.
	groups []*bindGroupProvider
	// samplerFor maps a texture binding to the sampler binding named "<texture>_sampler", if any.
	samplerFor map[bindingKey]uint32
}

func (p *wgpuProgram) release() {
	for _, g := range p.groups {
		g.release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
	}
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
	for _, m := range p.modules {
		m.Release()
	}
}

type wgpuMesh struct {
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
}

type wgpuTexture struct {
	version uint64
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) release() {
	t.view.Release()
	t.texture.Release()
}

// wgpuBackend is the WebGPU implementation of the WGPUBackend interface.
type wgpuBackend struct {
	mu     *sync.Mutex
	logger *zap.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode          PresentMode
	sampleCount          MSAASampleCount
	clearColor           wgpu.Color
	forceFallbackAdapter bool

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	nextHandle     uint64
	programs       map[ProgramHandle]*wgpuProgram
	meshes         map[model.MeshHandle]*wgpuMesh
	textures       map[texture.Texture]*wgpuTexture
	defaultTexture *wgpuTexture
}

// WGPUBackend is the WebGPU render backend. Beyond the Backend contract it owns the presentation
// surface and must be told when the surface size changes.
type WGPUBackend interface {
	Backend

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to ConfigureSurface is required for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Device returns the underlying WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Release destroys every program, mesh and texture, then the device and surface.
	Release()
}

var _ WGPUBackend = &wgpuBackend{}

// NewWGPUBackend creates the WebGPU backend for a window surface. The calling goroutine is locked to its
// OS thread, and every later call must come from that goroutine.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - options: variadic list of WGPUBackendBuilderOption functions to configure the backend
//
// Returns:
//   - WGPUBackend: the backend
//   - error: an error if no adapter or device could be acquired
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendBuilderOption) (WGPUBackend, error) {
	if surfaceDescriptor == nil {
		panic("backend: nil surface descriptor")
	}
	runtime.LockOSThread()

	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		logger:      zap.NewNop(),
		presentMode: PresentModeUncapped,
		sampleCount: MSAA4x,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		programs:    make(map[ProgramHandle]*wgpuProgram),
		meshes:      make(map[model.MeshHandle]*wgpuMesh),
		textures:    make(map[texture.Texture]*wgpuTexture),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("backend: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	white, err := b.createTexture("Default Texture", common.TextureStagingData{
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: default texture: %w", err)
	}
	b.defaultTexture = white

	b.logger.Info("webgpu backend ready",
		zap.Uint32("msaa", uint32(b.sampleCount)),
		zap.Stringer("present_mode", b.presentMode),
		zap.Bool("fallback_adapter", b.forceFallbackAdapter),
	)
	return b, nil
}

func (b *wgpuBackend) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = mode
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode.wgpu(),
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}

	if msaaEnabled {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}

	b.logger.Debug("surface configured", zap.Int("width", width), zap.Int("height", height))
}

func (b *wgpuBackend) CompileProgram(src ProgramSource) (Program, error) {
	if src.Geometry != "" {
		return Program{}, &CompileError{Label: src.Label, Stage: shader.StageGeometry, Err: errGeometryStage}
	}
	if src.Fragment == "" {
		return Program{}, &CompileError{Label: src.Label, Stage: shader.StageFragment, Err: errNoFragment}
	}

	vs, err := reflectStage(src.Label, shader.StageVertex, src.Vertex)
	if err != nil {
		return Program{}, err
	}
	fs, err := reflectStage(src.Label, shader.StageFragment, src.Fragment)
	if err != nil {
		return Program{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return Program{}, ErrSurfaceNotConfigured
	}

	p := &wgpuProgram{
		label:      src.Label,
		samplerFor: make(map[bindingKey]uint32),
	}
	if err := b.buildPipeline(p, vs, fs, src.State); err != nil {
		p.release()
		return Program{}, &CompileError{Label: src.Label, Stage: shader.StageFragment, Err: err}
	}

	uniforms := make(map[string]UniformLocation)
	samplers := make(map[string]bindingKey)
	for _, s := range []shader.Shader{vs, fs} {
		for _, u := range s.Uniforms() {
			if _, seen := uniforms[u.Name]; seen {
				continue
			}
			uniforms[u.Name] = UniformLocation{
				Group:   u.Group,
				Binding: u.Binding,
				Offset:  u.Offset,
				Size:    u.Size,
				Kind:    u.Kind,
			}
			if u.Kind == shader.UniformSampler {
				samplers[u.Name] = bindingKey{group: u.Group, binding: u.Binding}
			}
		}
	}
	for name, loc := range uniforms {
		if loc.Kind != shader.UniformTexture {
			continue
		}
		if s, ok := samplers[name+"_sampler"]; ok && s.group == loc.Group {
			p.samplerFor[bindingKey{group: loc.Group, binding: loc.Binding}] = s.binding
		}
	}

	b.nextHandle++
	h := ProgramHandle(b.nextHandle)
	b.programs[h] = p

	b.logger.Debug("program compiled",
		zap.String("label", src.Label),
		zap.Uint64("handle", uint64(h)),
		zap.Int("uniforms", len(uniforms)),
	)
	return Program{Handle: h, Uniforms: uniforms}, nil
}

// reflectStage validates a stage source with naga and reflects its layouts.
func reflectStage(label string, stage shader.Stage, source string) (shader.Shader, error) {
	if _, err := naga.Compile(source); err != nil {
		return nil, &CompileError{Label: label, Stage: stage, Err: err}
	}
	s, err := shader.NewShader(label+"/"+stage.String(), stage, source)
	if err != nil {
		return nil, &CompileError{Label: label, Stage: stage, Err: err}
	}
	return s, nil
}

// buildPipeline creates the shader modules, bind group layouts, pipeline layout, render pipeline and
// bind group providers of p. On error the partially built program is left for the caller to release.
func (b *wgpuBackend) buildPipeline(p *wgpuProgram, vs, fs shader.Shader, state effect.RenderState) error {
	vsModule, err := b.device.CreateShaderModule(vs.Module())
	if err != nil {
		return err
	}
	p.modules = append(p.modules, vsModule)
	fsModule, err := b.device.CreateShaderModule(fs.Module())
	if err != nil {
		return err
	}
	p.modules = append(p.modules, fsModule)

	merged := mergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	groupCount := 0
	for g := range merged {
		if int(g)+1 > groupCount {
			groupCount = int(g) + 1
		}
	}
	p.layouts = make([]*wgpu.BindGroupLayout, groupCount)
	p.groups = make([]*bindGroupProvider, groupCount)
	for g := 0; g < groupCount; g++ {
		// Unused group numbers still need an (empty) layout to keep the pipeline layout contiguous.
		desc := merged[uint32(g)]
		desc.Label = fmt.Sprintf("%s Group %d", p.label, g)
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		p.layouts[g] = layout

		provider := newBindGroupProvider(p.label, uint32(g), layout, desc.Entries)
		for _, e := range desc.Entries {
			switch {
			case isTextureEntry(e):
				provider.textureViews[e.Binding] = b.defaultTexture.view
			case isSamplerEntry(e):
				staging := common.SamplerStagingData{}
				if e.Sampler.Type == wgpu.SamplerBindingTypeComparison {
					staging.Compare = wgpu.CompareFunctionLess
				}
				samp, sampErr := b.createSampler(p.label, staging)
				if sampErr != nil {
					return sampErr
				}
				provider.samplers[e.Binding] = samp
			}
		}
		p.groups[g] = provider
	}

	p.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.label,
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		return err
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: state.WriteMask,
	}
	if state.BlendEnabled {
		colorTarget.Blend = state.BlendState
	}
	depthCompare := wgpu.CompareFunctionLess
	if !state.DepthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	p.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.label + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: vs.EntryPoint(),
			Buffers:    vs.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: fs.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  state.Topology,
			FrontFace: state.FrontFace,
			CullMode:  state.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled:   state.DepthWriteEnabled,
			DepthCompare:        depthCompare,
			DepthBias:           state.DepthBias,
			DepthBiasSlopeScale: state.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	return err
}

func (b *wgpuBackend) ReleaseProgram(h ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[h]
	if !ok {
		return
	}
	delete(b.programs, h)
	p.release()
	b.logger.Debug("program released", zap.String("label", p.label), zap.Uint64("handle", uint64(h)))
}

func (b *wgpuBackend) SetUniform(h ProgramHandle, loc UniformLocation, v effect.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[h]
	if !ok || int(loc.Group) >= len(p.groups) {
		return
	}
	group := p.groups[loc.Group]

	switch loc.Kind {
	case shader.UniformBufferMember:
		data := effect.Encode(v)
		if loc.Size > 0 && uint64(len(data)) > loc.Size {
			data = data[:loc.Size]
		}
		group.write(loc.Binding, loc.Offset, data)
	case shader.UniformTexture:
		view, err := b.textureView(v)
		if err != nil {
			b.logger.Warn("texture upload failed", zap.String("program", p.label), zap.Error(err))
			view = b.defaultTexture.view
		}
		group.setTextureView(loc.Binding, view)

		tex, isTexture := v.(texture.Texture)
		samplerBinding, hasSampler := p.samplerFor[bindingKey{group: loc.Group, binding: loc.Binding}]
		if isTexture && hasSampler && tex.Sampler() != nil {
			samp, err := b.createSampler(p.label, *tex.Sampler())
			if err != nil {
				b.logger.Warn("sampler creation failed", zap.String("program", p.label), zap.Error(err))
				return
			}
			group.setSampler(samplerBinding, samp)
		}
	case shader.UniformSampler:
		if tex, ok := v.(texture.Texture); ok && tex.Sampler() != nil {
			samp, err := b.createSampler(p.label, *tex.Sampler())
			if err != nil {
				b.logger.Warn("sampler creation failed", zap.String("program", p.label), zap.Error(err))
				return
			}
			group.setSampler(loc.Binding, samp)
		}
	}
}

// textureView returns the GPU view for a texture parameter value, uploading or re-uploading the texture
// when its version changed. A nil value maps to the default white texture.
func (b *wgpuBackend) textureView(v effect.Value) (*wgpu.TextureView, error) {
	tex, ok := v.(texture.Texture)
	if !ok || tex == nil {
		return b.defaultTexture.view, nil
	}
	cached, ok := b.textures[tex]
	if ok && cached.version == tex.Version() {
		return cached.view, nil
	}

	staging, err := tex.Decode()
	if err != nil {
		return nil, err
	}
	uploaded, err := b.createTexture(tex.Name(), staging)
	if err != nil {
		return nil, err
	}
	uploaded.version = tex.Version()
	b.textures[tex] = uploaded

	if cached != nil {
		for _, p := range b.programs {
			for _, g := range p.groups {
				g.replaceTextureView(cached.view, uploaded.view)
			}
		}
		cached.release()
	}
	return uploaded.view, nil
}

func (b *wgpuBackend) createTexture(label string, stagingData common.TextureStagingData) (*wgpuTexture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTexture{texture: tex, view: view}, nil
}

func (b *wgpuBackend) createSampler(label string, samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error) {
	return b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
		Compare:       samplerStagingData.Compare,
	})
}

func (b *wgpuBackend) UploadMesh(m model.Model) (model.MeshHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vertexData, indexData := m.VertexData(), m.IndexData()
	if len(vertexData) == 0 || len(indexData) == 0 {
		return 0, fmt.Errorf("backend: mesh %q has no geometry", m.Name())
	}

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, err
	}
	b.queue.WriteBuffer(vb, 0, vertexData)

	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return 0, err
	}
	b.queue.WriteBuffer(ib, 0, indexData)

	b.nextHandle++
	h := model.MeshHandle(b.nextHandle)
	b.meshes[h] = &wgpuMesh{vertexBuffer: vb, indexBuffer: ib}
	return h, nil
}

func (b *wgpuBackend) ReleaseMesh(h model.MeshHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.meshes[h]
	if !ok {
		return
	}
	delete(b.meshes, h)
	m.vertexBuffer.Release()
	m.indexBuffer.Release()
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.renderPassDescriptor == nil {
		return ErrSurfaceNotConfigured
	}
	if b.frameSurface != nil {
		return fmt.Errorf("backend: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	for _, p := range b.programs {
		for _, g := range p.groups {
			g.resetFrame()
		}
	}
	return nil
}

func (b *wgpuBackend) Draw(h ProgramHandle, mesh model.MeshHandle, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	p, ok := b.programs[h]
	if !ok {
		return fmt.Errorf("backend: unknown program %d", h)
	}
	m, ok := b.meshes[mesh]
	if !ok {
		return fmt.Errorf("backend: unknown mesh %d", mesh)
	}

	b.framePass.SetPipeline(p.pipeline)
	for i, g := range p.groups {
		bg, err := g.nextSlot(b.device, b.queue)
		if err != nil {
			return fmt.Errorf("backend: bind group %d of %s: %w", i, p.label, err)
		}
		b.framePass.SetBindGroup(uint32(i), bg, nil)
	}

	b.framePass.SetVertexBuffer(0, m.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(m.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(indexCount), 1, 0, 0, 0)
	return nil
}

func (b *wgpuBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
		b.surface.Present()
	}

	b.frameEncoder.Release()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameEncoder = nil
	b.framePass = nil
	b.frameSurface = nil
	b.frameView = nil

	if err != nil {
		return fmt.Errorf("backend: finish frame: %w", err)
	}
	return nil
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h, p := range b.programs {
		p.release()
		delete(b.programs, h)
	}
	for h, m := range b.meshes {
		m.vertexBuffer.Release()
		m.indexBuffer.Release()
		delete(b.meshes, h)
	}
	for t, tex := range b.textures {
		tex.release()
		delete(b.textures, t)
	}
	if b.defaultTexture != nil {
		b.defaultTexture.release()
		b.defaultTexture = nil
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

// mergeBindGroupLayouts merges the bind group layout descriptors from a vertex and fragment shader
// into a unified set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either shader:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one shader are included with their original visibility
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[uint32]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[uint32]wgpu.BindGroupLayoutDescriptor,
) map[uint32]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[uint32]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[uint32]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
