package render

import (
	"errors"
	"fmt"
)

// attachment holds either a render buffer or a texture, never both.
type attachment struct {
	rb  *RenderBuffer
	tex *TextureBuffer
}

func (a attachment) empty() bool { return a.rb == nil && a.tex == nil }

func (a attachment) size() (int, int) {
	if a.rb != nil {
		return a.rb.sizeX, a.rb.sizeY
	}
	return a.tex.desc.Width, a.tex.desc.Height
}

func (a attachment) resize(x, y int) error {
	if a.rb != nil {
		return a.rb.Resize(x, y)
	}
	if a.tex.desc.Dim == 1 {
		return a.tex.Resize1D(x)
	}
	return a.tex.Resize2D(x, y)
}

// FrameBuffer is a render target made of at most one color and one depth
// attachment. Attachments are borrowed: destroying the frame buffer does
// not destroy them.
type FrameBuffer struct {
	engine  *Engine
	handle  Handle
	display bool
	color   attachment
	depth   attachment
	dead    bool

	// display size; attachment-backed buffers take their size from the
	// attachments
	sizeX, sizeY int

	ClearColor [4]float32
	ClearDepth float32
}

// NewFrameBuffer creates an empty frame buffer.
func (e *Engine) NewFrameBuffer() (*FrameBuffer, error) {
	h, err := e.dev.NewFrameBuffer()
	if err != nil {
		return nil, &AllocationError{Resource: "frame buffer", Reason: "create", Err: err}
	}
	fb := &FrameBuffer{engine: e, handle: h, ClearColor: [4]float32{0, 0, 0, 0}, ClearDepth: 1}
	e.track(kindFrameBuffer, fb)
	return fb, nil
}

// Size returns the frame buffer dimensions: the display size, or the size
// of the first attachment. Zero when nothing is attached.
func (f *FrameBuffer) Size() (int, int) {
	if f.display {
		return f.sizeX, f.sizeY
	}
	if !f.color.empty() {
		return f.color.size()
	}
	if !f.depth.empty() {
		return f.depth.size()
	}
	return 0, 0
}

// IsBound reports whether f is the engine's current render target.
func (f *FrameBuffer) IsBound() bool { return f.engine.bound == f }

func (f *FrameBuffer) BindToColorRenderBuffer(rb *RenderBuffer) {
	f.attach(SlotColor, attachment{rb: rb})
}

func (f *FrameBuffer) BindToDepthRenderBuffer(rb *RenderBuffer) {
	f.attach(SlotDepth, attachment{rb: rb})
}

func (f *FrameBuffer) BindToColorTextureBuffer(tex *TextureBuffer) {
	f.attach(SlotColor, attachment{tex: tex})
}

func (f *FrameBuffer) BindToDepthTextureBuffer(tex *TextureBuffer) {
	f.attach(SlotDepth, attachment{tex: tex})
}

func (f *FrameBuffer) attach(slot AttachmentSlot, a attachment) {
	if f.dead || f.display || a.empty() {
		f.engine.log.Warn("cannot attach to frame buffer", "slot", slot, "display", f.display, "nil", a.empty())
		return
	}
	if a.rb != nil {
		f.engine.dev.AttachRenderBuffer(f.handle, slot, a.rb.handle)
	} else {
		f.engine.dev.AttachTexture(f.handle, slot, a.tex.handle)
	}
	if slot == SlotColor {
		f.color = a
	} else {
		f.depth = a
	}
}

// verify checks the invariants the backend cannot see: at least one
// attachment, all attachments the same size and none destroyed.
func (f *FrameBuffer) verify() error {
	if f.dead {
		return ErrDestroyed
	}
	if f.display {
		return nil
	}
	if f.color.empty() && f.depth.empty() {
		return errors.New("no attachments")
	}
	for _, a := range []attachment{f.color, f.depth} {
		if (a.rb != nil && a.rb.dead) || (a.tex != nil && a.tex.dead) {
			return errors.New("attachment destroyed")
		}
	}
	if !f.color.empty() && !f.depth.empty() {
		cx, cy := f.color.size()
		dx, dy := f.depth.size()
		if cx != dx || cy != dy {
			return fmt.Errorf("attachment size mismatch: color %dx%d, depth %dx%d", cx, cy, dx, dy)
		}
	}
	return nil
}

// BindForRendering makes f the render target. It returns false, leaving
// the current target untouched, if f is incomplete; the caller must not
// draw in that case.
func (f *FrameBuffer) BindForRendering() bool {
	if err := f.verify(); err != nil {
		f.engine.log.Warn("frame buffer rejected", "err", &IncompleteTargetError{Reason: "verify", Err: err})
		return false
	}
	if !f.display {
		if err := f.engine.dev.CheckFrameBuffer(f.handle); err != nil {
			f.engine.log.Warn("frame buffer rejected", "err", &IncompleteTargetError{Reason: "backend", Err: err})
			return false
		}
	}
	x, y := f.Size()
	f.engine.dev.BindFrameBuffer(f.handle, x, y)
	f.engine.bound = f
	return true
}

// Clear fills the bound target with ClearColor and ClearDepth.
func (f *FrameBuffer) Clear() {
	if !f.IsBound() {
		f.engine.log.Warn("clear on unbound frame buffer ignored")
		return
	}
	f.engine.dev.ClearFrameBuffer(f.handle, f.ClearColor, f.ClearDepth)
}

// ResizeBuffers resizes every attachment to x by y. Attachments already
// at that size are left alone.
func (f *FrameBuffer) ResizeBuffers(x, y int) error {
	if f.dead {
		return ErrDestroyed
	}
	if f.display {
		f.engine.ResizeDisplay(x, y)
		return nil
	}
	changed := false
	for _, a := range []attachment{f.color, f.depth} {
		if a.empty() {
			continue
		}
		if ax, ay := a.size(); ax == x && ay == y {
			continue
		}
		if err := a.resize(x, y); err != nil {
			return fmt.Errorf("resize frame buffer: %w", err)
		}
		changed = true
	}
	if changed && f.IsBound() {
		f.engine.dev.BindFrameBuffer(f.handle, x, y)
	}
	return nil
}

// ReadFloat4 returns the color attachment's pixel at (x, y), origin at the
// bottom-left.
func (f *FrameBuffer) ReadFloat4(x, y int) ([4]float32, error) {
	if f.dead {
		return [4]float32{}, ErrDestroyed
	}
	if !f.display && f.color.empty() {
		return [4]float32{}, errors.New("read pixel: no color attachment")
	}
	w, h := f.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return [4]float32{}, fmt.Errorf("read pixel (%d, %d) of %dx%d: %w", x, y, w, h, ErrOutOfRange)
	}
	return f.engine.dev.ReadPixel(f.handle, x, y)
}

// Destroy releases the frame buffer object; attachments survive.
func (f *FrameBuffer) Destroy() {
	if f.dead || f.display {
		return
	}
	if f.IsBound() {
		f.engine.bound = nil
	}
	f.engine.dev.DeleteFrameBuffer(f.handle)
	f.engine.untrack(kindFrameBuffer, f)
	f.dead = true
}
