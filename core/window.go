package core

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// GL calls must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

// Window is a GLFW window owning a current OpenGL 4.1 core context.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	// framebuffer size in pixels; differs from Width/Height on HiDPI
	fbWidth, fbHeight int
	onResize          func(width, height int)
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
	// Samples > 0 requests a multisampled default framebuffer.
	Samples int
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:      1280,
		Height:     720,
		Title:      "sciviz",
		Resizable:  true,
		VSync:      true,
		Fullscreen: false,
	}
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	if config.Samples > 0 {
		glfw.WindowHint(glfw.Samples, config.Samples)
	}

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
	}
	window.fbWidth, window.fbHeight = handle.GetFramebufferSize()

	handle.SetSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
	})
	handle.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		window.fbWidth, window.fbHeight = width, height
		if window.onResize != nil {
			window.onResize(width, height)
		}
	})

	return window, nil
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) SetShouldClose(v bool) {
	w.Handle.SetShouldClose(v)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// Present swaps the front and back buffers.
func (w *Window) Present() {
	w.Handle.SwapBuffers()
}

// GetFramebufferSize returns the drawable size in pixels.
func (w *Window) GetFramebufferSize() (int, int) {
	return w.fbWidth, w.fbHeight
}

// OnFramebufferResize registers fn for drawable size changes.
func (w *Window) OnFramebufferResize(fn func(width, height int)) {
	w.onResize = fn
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsKeyPressed(key int) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) IsMouseButtonPressed(button int) bool {
	return w.Handle.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

// GetCursorPos returns the cursor position in framebuffer pixels with
// the origin at the bottom-left, matching frame buffer read-back.
func (w *Window) GetCursorPos() (float64, float64) {
	x, y := w.Handle.GetCursorPos()
	if w.Width == 0 || w.Height == 0 {
		return x, y
	}
	sx := float64(w.fbWidth) / float64(w.Width)
	sy := float64(w.fbHeight) / float64(w.Height)
	return x * sx, float64(w.fbHeight) - y*sy - 1
}

// ScrollCallback is the type for scroll event handlers
type ScrollCallback func(xoff, yoff float64)

func (w *Window) SetScrollCallback(cb ScrollCallback) {
	w.Handle.SetScrollCallback(func(win *glfw.Window, xoff, yoff float64) {
		cb(xoff, yoff)
	})
}

// ClickCallback receives a mouse button release at a framebuffer pixel.
type ClickCallback func(button int, x, y float64)

func (w *Window) SetClickCallback(cb ClickCallback) {
	w.Handle.SetMouseButtonCallback(func(win *glfw.Window, b glfw.MouseButton, a glfw.Action, m glfw.ModifierKey) {
		if a != glfw.Release {
			return
		}
		x, y := w.GetCursorPos()
		cb(int(b), x, y)
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	MouseButtonLeft   = int(glfw.MouseButtonLeft)
	MouseButtonRight  = int(glfw.MouseButtonRight)
	MouseButtonMiddle = int(glfw.MouseButtonMiddle)
)

const (
	KeyEscape    = int(glfw.KeyEscape)
	KeyR         = int(glfw.KeyR)
	KeyLeftShift = int(glfw.KeyLeftShift)
)
