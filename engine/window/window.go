// Package window hosts the WebGPU surface in a GLFW window. It reports resizes and closing; input
// handling is left to the application.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window wraps a platform window with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns the platform surface descriptor the WebGPU backend renders into.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: error if the window is not initialized
	Close() error

	// RequestClose asks the message loop to return after the current iteration. The window stays open
	// until Close.
	RequestClose()

	// ProcessMessages runs the message loop until the window closes. Must be called on the main thread.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// ErrClosed is returned by Close when the window is not open.
var ErrClosed = errors.New("window: closed")

// engineWindow holds the platform-independent window state.
type engineWindow struct {
	title     string
	resizable bool
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int
	width     int
	height    int

	// platform is nil until the window opens and again once it is closed.
	platform *glfwPlatform

	onUpdate func()
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a window.
//
// Parameters:
//   - options: variadic list of WindowBuilderOption functions
//
// Returns:
//   - Window: the window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy",
		resizable: true,
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	p, err := openPlatform(w)
	if err != nil {
		return nil, fmt.Errorf("window: open %q: %w", w.title, err)
	}
	w.platform = p
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && !w.platform.shouldClose()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return ErrClosed
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *engineWindow) RequestClose() {
	if w.platform != nil {
		w.platform.requestClose()
	}
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			return
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// framebufferResized records a new framebuffer size and forwards it to the resize callback.
func (w *engineWindow) framebufferResized(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// clampSize keeps a requested size within the configured bounds.
func (w *engineWindow) clampSize(width, height int) (int, int) {
	width = min(max(width, w.minWidth), w.maxWidth)
	height = min(max(height, w.minHeight), w.maxHeight)
	return width, height
}
