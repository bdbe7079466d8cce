// Package engine runs the fixed-rate update loop and the render loop over a set of scenes.
package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/config"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/Carmen-Shannon/oxy-core/engine/visitor"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// The tick loop runs on its own goroutine; frames are rendered from the window's message loop on
// the main goroutine, which owns the graphics device.
type engine struct {
	cfg    config.Config
	logger *zap.Logger

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	// mu guards the fields below it that are set after construction.
	mu sync.Mutex

	// frameMu keeps the tick callback, frames and resizes from running concurrently.
	frameMu sync.Mutex

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	// surface is set when the engine created the backend and must release it.
	surface backend.WGPUBackend

	cameras    *visitor.CameraVisitor
	allCameras *visitor.CameraVisitor

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	lastRender       time.Time
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Config returns the configuration the engine was built from.
	Config() config.Config

	// Logger returns the engine logger.
	Logger() *zap.Logger

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic and scene graph changes. The callback never runs concurrently with a frame.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame, on the graphics thread.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given key.
	// Each frame renders the active scene with the highest key that contains an active camera.
	//
	// Parameters:
	//   - key: the scene key
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes by key.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run starts the engine loop and blocks on the window message loop until the window closes or
	// Quit is called. It must be called on the goroutine that created the engine.
	//
	// Returns:
	//   - error: an error releasing the window
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates an Engine from a configuration. Unless supplied through options it builds the
// logger, the window, the WebGPU backend and the renderer from cfg. Because the backend locks the
// calling goroutine to its OS thread, NewEngine and Run must be called from the main goroutine.
//
// Parameters:
//   - cfg: the engine configuration
//   - options: functional options replacing engine collaborators
//
// Returns:
//   - Engine: the newly created engine
//   - error: a validation error or an error creating the window or backend
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &engine{
		cfg:              cfg,
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenes:           make(map[int]scene.Scene),
		cameras:          visitor.NewCameraVisitor(true),
		allCameras:       visitor.NewCameraVisitor(false),
		engineTickRate:   tickInterval(cfg.Engine.TickRate),
		renderFrameLimit: frameInterval(cfg.Engine.FrameLimit),
		profilingEnabled: cfg.Profiler.Enabled,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.logger == nil {
		logger, err := cfg.Log.NewLogger()
		if err != nil {
			return nil, err
		}
		e.logger = logger
	}
	e.profiler = profiler.NewProfiler(
		profiler.WithLogger(e.logger.Named("profiler")),
		profiler.WithInterval(time.Duration(cfg.Profiler.Interval)),
	)

	if e.window == nil {
		w, err := window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
		if err != nil {
			return nil, err
		}
		e.window = w
	}

	if e.renderer == nil {
		if err := e.createRenderer(); err != nil {
			return nil, err
		}
	}

	e.window.SetUpdateCallback(e.frame)
	e.window.SetResizeCallback(e.resize)
	return e, nil
}

// createRenderer builds the WebGPU backend on the window surface and a renderer over it.
func (e *engine) createRenderer() error {
	mode, err := e.cfg.PresentMode()
	if err != nil {
		return err
	}
	rc := e.cfg.Renderer
	b, err := backend.NewWGPUBackend(e.window.SurfaceDescriptor(),
		backend.WithLogger(e.logger.Named("backend")),
		backend.WithPresentMode(mode),
		backend.WithMSAA(backend.MSAASampleCount(rc.MSAA)),
		backend.WithForceSoftwareRenderer(rc.ForceSoftware),
		backend.WithClearColor(rc.ClearColor[0], rc.ClearColor[1], rc.ClearColor[2], rc.ClearColor[3]),
	)
	if err != nil {
		return fmt.Errorf("engine: create backend: %w", err)
	}
	b.ConfigureSurface(e.window.Width(), e.window.Height())
	e.surface = b
	e.renderer = renderer.NewRenderer(b,
		renderer.WithLogger(e.logger.Named("renderer")),
		renderer.WithRenderPath(e.cfg.RenderPath()),
		renderer.WithFrustumCulling(rc.FrustumCulling),
		renderer.WithCompileWorkers(rc.CompileWorkers),
	)
	return nil
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Config() config.Config {
	return e.cfg
}

func (e *engine) Logger() *zap.Logger {
	return e.logger
}

func (e *engine) Run() error {
	e.mu.Lock()
	e.running = true
	e.lastRender = time.Now()
	rate := e.engineTickRate
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()
	e.logger.Info("engine started",
		zap.Duration("tick", rate),
		zap.Stringer("render_path", e.renderer.RenderPath()),
	)

	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	return e.shutdown()
}

// shutdown releases the renderer and the device the engine created, then closes the window.
func (e *engine) shutdown() error {
	var errs []error
	e.renderer.Release()
	if e.surface != nil {
		e.surface.Release()
	}
	if err := e.window.Close(); err != nil && !errors.Is(err, window.ErrClosed) {
		errs = append(errs, fmt.Errorf("engine: close window: %w", err))
	}
	e.logger.Info("engine stopped")
	_ = e.logger.Sync()
	return errors.Join(errs...)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			callback := e.tickCallback
			e.mu.Unlock()
			if callback != nil {
				e.frameMu.Lock()
				callback(dt)
				e.frameMu.Unlock()
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// frame is the window update callback. It renders one frame, or asks the message loop to stop once
// Quit has been called. A recovered panic is logged and ends the engine.
func (e *engine) frame() {
	select {
	case <-e.quitChannel:
		e.window.RequestClose()
		return
	default:
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render loop recovered from panic", zap.Any("panic", r), zap.Stack("stack"))
			e.signalQuit()
		}
	}()

	now := time.Now()
	e.mu.Lock()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now
	callback := e.renderCallback
	profiling := e.profilingEnabled
	limit := e.renderFrameLimit
	e.mu.Unlock()

	e.frameMu.Lock()
	stats, rendered := e.renderActiveScene()
	e.frameMu.Unlock()

	if callback != nil {
		callback(dt)
	}
	if profiling && rendered {
		e.profiler.Tick(stats)
	}

	// Frame rate limiting
	if limit > 0 {
		if remaining := limit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// sortedScenes returns the registered scenes in ascending key order.
func (e *engine) sortedScenes() []scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]scene.Scene, len(keys))
	for i, k := range keys {
		out[i] = e.scenes[k]
	}
	return out
}

// renderActiveScene renders the active scene with the highest key that has an active camera.
// Must be called with frameMu held.
func (e *engine) renderActiveScene() (profiler.FrameStats, bool) {
	for _, s := range slices.Backward(e.sortedScenes()) {
		if !s.Active() {
			continue
		}
		cam, ok := e.cameras.First(s.Root())
		if !ok {
			continue
		}
		e.renderer.SetAmbient(s.Ambient())
		stats, err := e.renderer.RenderFrame(s.Root(), cam)
		if err != nil {
			e.logger.Warn("render frame", zap.String("scene", s.Name()), zap.Error(err))
		}
		return stats, true
	}
	return profiler.FrameStats{}, false
}

// resize reconfigures the surface the engine owns and updates the aspect ratio of every camera.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if e.surface != nil {
		e.surface.ConfigureSurface(width, height)
	}
	aspect := float32(width) / float32(height)
	for _, s := range e.sortedScenes() {
		for res := range e.allCameras.Convert(s.Root()) {
			res.Camera.SetAspect(aspect)
		}
	}
	e.logger.Debug("resized", zap.Int("width", width), zap.Int("height", height))
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = true
	e.mu.Unlock()
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = false
	e.mu.Unlock()
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	e.tickCallback = callback
	e.mu.Unlock()
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	e.renderCallback = callback
	e.mu.Unlock()
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	e.renderFrameLimit = frameInterval(fps)
	e.mu.Unlock()
}

func (e *engine) AddScene(key int, s scene.Scene) {
	if s == nil {
		return
	}
	e.mu.Lock()
	e.scenes[key] = s
	e.mu.Unlock()
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	delete(e.scenes, key)
	e.mu.Unlock()
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
