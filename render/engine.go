// Package render is the backend-agnostic render engine: texture, render
// and frame buffers, shader programs with a declared input schema, and the
// Engine that creates them and drives each frame. A graphics API plugs in
// by implementing Device.
package render

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"sciviz/logging"
)

var engineActive atomic.Bool

type resourceKind int

// Destruction order at shutdown: programs reference textures, frame buffers
// reference attachments.
const (
	kindProgram resourceKind = iota
	kindFrameBuffer
	kindTexture
	kindRenderBuffer
	numKinds
)

type resource interface {
	Destroy()
}

// Drawer is anything the frame loop can draw. *ShaderProgram is one.
type Drawer interface {
	Draw() error
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func() error

func (f DrawerFunc) Draw() error { return f() }

// Presenter shows a finished frame, typically a window swap.
type Presenter interface {
	Present()
}

// FrameStats counts the outcome of one RenderFrame.
type FrameStats struct {
	Drawn  int
	Failed int
}

// Engine owns the Device and every resource created through it. Exactly
// one Engine may be active per process: NewEngine fails until the previous
// one is shut down.
type Engine struct {
	dev  Device
	log  *slog.Logger
	caps Caps

	display *FrameBuffer
	bound   *FrameBuffer
	stack   []*FrameBuffer

	live   [numKinds]map[resource]struct{}
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for engine diagnostics. The default is
// logging.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine takes ownership of dev. width and height are the display size.
func NewEngine(dev Device, width, height int, opts ...Option) (*Engine, error) {
	if dev == nil {
		return nil, errors.New("render: nil device")
	}
	if !engineActive.CompareAndSwap(false, true) {
		return nil, ErrEngineActive
	}

	e := &Engine{
		dev:  dev,
		log:  logging.Logger(),
		caps: dev.Caps(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for i := range e.live {
		e.live[i] = make(map[resource]struct{})
	}
	e.display = &FrameBuffer{
		engine:     e,
		handle:     dev.DisplayFrameBuffer(),
		display:    true,
		sizeX:      width,
		sizeY:      height,
		ClearColor: [4]float32{1, 1, 1, 1},
		ClearDepth: 1,
	}

	e.log.Info("render engine initialized", "backend", dev.Name(), "width", width, "height", height)
	return e, nil
}

// Shutdown destroys every resource still alive, releases the device and
// frees the active-engine slot. Live resources at this point are leaks by
// their owners and are logged.
func (e *Engine) Shutdown() {
	if e.closed {
		return
	}
	leaks := 0
	for kind := range e.live {
		for r := range e.live[kind] {
			leaks++
			r.Destroy()
		}
	}
	if leaks > 0 {
		e.log.Warn("render engine shutdown destroyed leaked resources", "count", leaks)
	}
	e.dev.Release()
	e.closed = true
	e.bound = nil
	e.stack = nil
	engineActive.Store(false)
	e.log.Info("render engine shut down")
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.log }

// Backend names the device implementation.
func (e *Engine) Backend() string { return e.dev.Name() }

func (e *Engine) Caps() Caps { return e.caps }

// LiveResources counts resources created and not yet destroyed.
func (e *Engine) LiveResources() int {
	n := 0
	for _, m := range e.live {
		n += len(m)
	}
	return n
}

func (e *Engine) track(kind resourceKind, r resource)   { e.live[kind][r] = struct{}{} }
func (e *Engine) untrack(kind resourceKind, r resource) { delete(e.live[kind], r) }

// DisplayBuffer is the window's default target.
func (e *Engine) DisplayBuffer() *FrameBuffer { return e.display }

// ResizeDisplay records a new window framebuffer size.
func (e *Engine) ResizeDisplay(width, height int) {
	e.display.sizeX = width
	e.display.sizeY = height
}

// SetBackgroundColor sets the display clear color.
func (e *Engine) SetBackgroundColor(c [4]float32) {
	e.display.ClearColor = c
}

func (e *Engine) SetDepthMode(m DepthMode) { e.dev.SetDepthMode(m) }
func (e *Engine) SetBlendMode(m BlendMode) { e.dev.SetBlendMode(m) }
func (e *Engine) SetBackfaceCull(on bool)  { e.dev.SetBackfaceCull(on) }

// BoundFrameBuffer returns the current render target, or nil.
func (e *Engine) BoundFrameBuffer() *FrameBuffer { return e.bound }

// PushFrameBuffer binds fb and remembers the previous target. It returns
// false, leaving the stack unchanged, when fb cannot be bound.
func (e *Engine) PushFrameBuffer(fb *FrameBuffer) bool {
	prev := e.bound
	if !fb.BindForRendering() {
		return false
	}
	e.stack = append(e.stack, prev)
	return true
}

// PopFrameBuffer restores the target that was bound before the matching
// PushFrameBuffer.
func (e *Engine) PopFrameBuffer() {
	if len(e.stack) == 0 {
		e.log.Warn("PopFrameBuffer with empty stack")
		return
	}
	prev := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	if prev == nil {
		prev = e.display
	}
	prev.BindForRendering()
}

// RenderFrame binds target (the display when nil), clears it, draws each
// drawer and presents. A failing drawer is logged and skipped; the frame
// continues.
func (e *Engine) RenderFrame(target *FrameBuffer, drawers []Drawer, p Presenter) (FrameStats, error) {
	var stats FrameStats
	if e.closed {
		return stats, ErrDestroyed
	}
	if target == nil {
		target = e.display
	}
	if !target.BindForRendering() {
		return stats, &IncompleteTargetError{Reason: "frame target rejected"}
	}
	target.Clear()

	for _, d := range drawers {
		if err := d.Draw(); err != nil {
			stats.Failed++
			e.log.Debug("draw skipped", "err", err)
			continue
		}
		stats.Drawn++
	}

	if p != nil {
		p.Present()
	}
	return stats, nil
}
