package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform is an open GLFW window without a client API; WebGPU renders into it through a surface.
type glfwPlatform struct {
	win *glfw.Window
}

// openPlatform initialises GLFW on the calling thread and opens the window described by w.
func openPlatform(w *engineWindow) (*glfwPlatform, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	width, height := w.clampSize(w.width, w.height)
	win, err := glfw.CreateWindow(width, height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	win.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.SetShouldClose(true)
		}
	})
	// Framebuffer size, not window size: they differ on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, fbWidth, fbHeight int) {
		w.framebufferResized(fbWidth, fbHeight)
	})
	w.width, w.height = win.GetFramebufferSize()

	return &glfwPlatform{win: win}, nil
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (p *glfwPlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(p.win)
}

func (p *glfwPlatform) shouldClose() bool {
	return p.win.ShouldClose()
}

func (p *glfwPlatform) requestClose() {
	p.win.SetShouldClose(true)
}

func (p *glfwPlatform) poll() {
	glfw.PollEvents()
}

// destroy closes the window and releases GLFW.
func (p *glfwPlatform) destroy() {
	p.win.Destroy()
	glfw.Terminate()
}
