package render

import "fmt"

// RenderBuffer is write-only attachment storage.
type RenderBuffer struct {
	engine *Engine
	handle Handle
	typ    RenderBufferType
	sizeX  int
	sizeY  int
	dead   bool
}

// NewRenderBuffer allocates a render buffer of the given type.
func (e *Engine) NewRenderBuffer(typ RenderBufferType, width, height int) (*RenderBuffer, error) {
	if err := e.checkRenderBufferSize(width, height); err != nil {
		return nil, err
	}
	h, err := e.dev.NewRenderBuffer(typ, width, height)
	if err != nil {
		return nil, &AllocationError{Resource: "render buffer", Reason: typ.String(), Err: err}
	}
	rb := &RenderBuffer{engine: e, handle: h, typ: typ, sizeX: width, sizeY: height}
	e.track(kindRenderBuffer, rb)
	return rb, nil
}

func (e *Engine) checkRenderBufferSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return &AllocationError{Resource: "render buffer", Reason: fmt.Sprintf("invalid size %dx%d", width, height)}
	}
	if limit := e.caps.MaxTextureSize; limit > 0 && (width > limit || height > limit) {
		return &AllocationError{Resource: "render buffer", Reason: fmt.Sprintf("size %dx%d exceeds backend limit %d", width, height, limit)}
	}
	return nil
}

func (r *RenderBuffer) Type() RenderBufferType { return r.typ }
func (r *RenderBuffer) SizeX() int             { return r.sizeX }
func (r *RenderBuffer) SizeY() int             { return r.sizeY }

// Resize reallocates storage; a no-op at the current size.
func (r *RenderBuffer) Resize(width, height int) error {
	if r.dead {
		return ErrDestroyed
	}
	if width == r.sizeX && height == r.sizeY {
		return nil
	}
	if err := r.engine.checkRenderBufferSize(width, height); err != nil {
		return err
	}
	if err := r.engine.dev.ResizeRenderBuffer(r.handle, r.typ, width, height); err != nil {
		return &AllocationError{Resource: "render buffer", Reason: "resize", Err: err}
	}
	r.sizeX, r.sizeY = width, height
	return nil
}

// Destroy releases the storage.
func (r *RenderBuffer) Destroy() {
	if r.dead {
		return
	}
	r.engine.dev.DeleteRenderBuffer(r.handle)
	r.engine.untrack(kindRenderBuffer, r)
	r.dead = true
}
