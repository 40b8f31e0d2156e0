package render

import "fmt"

// TextureBuffer is GPU pixel storage of dimension 1 or 2.
type TextureBuffer struct {
	engine *Engine
	handle Handle
	desc   TextureDesc
	dead   bool
}

// NewTextureBuffer1D allocates a 1D texture. data may be nil, []byte for
// 8-bit formats or []float32 for float formats.
func (e *Engine) NewTextureBuffer1D(format TextureFormat, length int, data any) (*TextureBuffer, error) {
	return e.newTextureBuffer(TextureDesc{Format: format, Dim: 1, Width: length, Height: 1, Filter: FilterLinear}, data)
}

// NewTextureBuffer2D allocates a 2D texture. data follows NewTextureBuffer1D.
func (e *Engine) NewTextureBuffer2D(format TextureFormat, width, height int, data any) (*TextureBuffer, error) {
	return e.newTextureBuffer(TextureDesc{Format: format, Dim: 2, Width: width, Height: height, Filter: FilterLinear}, data)
}

func (e *Engine) newTextureBuffer(desc TextureDesc, data any) (*TextureBuffer, error) {
	switch d := data.(type) {
	case nil:
	case []byte:
		desc.Bytes = d
	case []float32:
		desc.Floats = d
	default:
		return nil, &AllocationError{Resource: "texture", Reason: fmt.Sprintf("unsupported pixel data %T", data)}
	}
	if err := e.checkTextureDesc(desc); err != nil {
		return nil, err
	}

	h, err := e.dev.NewTexture(desc)
	if err != nil {
		return nil, &AllocationError{Resource: "texture", Reason: desc.Format.String(), Err: err}
	}
	desc.Bytes, desc.Floats = nil, nil

	t := &TextureBuffer{engine: e, handle: h, desc: desc}
	e.track(kindTexture, t)
	return t, nil
}

func (e *Engine) checkTextureDesc(desc TextureDesc) error {
	fail := func(reason string, args ...any) error {
		return &AllocationError{Resource: "texture", Reason: fmt.Sprintf(reason, args...)}
	}
	if !desc.Format.Valid() {
		return fail("unknown format %s", desc.Format)
	}
	if desc.Dim != 1 && desc.Dim != 2 {
		return fail("unsupported dimension %d", desc.Dim)
	}
	if desc.Dim == 1 && desc.Format.IsDepth() {
		return fail("%s is not supported for 1D textures", desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return fail("invalid size %dx%d", desc.Width, desc.Height)
	}
	if limit := e.caps.MaxTextureSize; limit > 0 && (desc.Width > limit || desc.Height > limit) {
		return fail("size %dx%d exceeds backend limit %d", desc.Width, desc.Height, limit)
	}

	want := desc.Width * desc.Height * desc.Format.Channels()
	switch {
	case desc.Bytes != nil && desc.Format.IsFloat():
		return fail("%s expects float32 data", desc.Format)
	case desc.Floats != nil && !desc.Format.IsFloat():
		return fail("%s expects byte data", desc.Format)
	case desc.Bytes != nil && len(desc.Bytes) != want:
		return fail("got %d bytes, want %d", len(desc.Bytes), want)
	case desc.Floats != nil && len(desc.Floats) != want:
		return fail("got %d floats, want %d", len(desc.Floats), want)
	}
	return nil
}

func (t *TextureBuffer) Format() TextureFormat  { return t.desc.Format }
func (t *TextureBuffer) Dim() int               { return t.desc.Dim }
func (t *TextureBuffer) SizeX() int             { return t.desc.Width }
func (t *TextureBuffer) SizeY() int             { return t.desc.Height }
func (t *TextureBuffer) FilterMode() FilterMode { return t.desc.Filter }

// Size returns width and height; height is 1 for 1D textures.
func (t *TextureBuffer) Size() (int, int) { return t.desc.Width, t.desc.Height }

// Resize1D reallocates a 1D texture. Contents become undefined. Calling it
// with the current length does nothing.
func (t *TextureBuffer) Resize1D(length int) error {
	if t.desc.Dim != 1 {
		return fmt.Errorf("resize: texture is %dD, not 1D", t.desc.Dim)
	}
	return t.resize(length, 1)
}

// Resize2D reallocates a 2D texture. Contents become undefined. Calling it
// with the current size does nothing.
func (t *TextureBuffer) Resize2D(width, height int) error {
	if t.desc.Dim != 2 {
		return fmt.Errorf("resize: texture is %dD, not 2D", t.desc.Dim)
	}
	return t.resize(width, height)
}

func (t *TextureBuffer) resize(width, height int) error {
	if t.dead {
		return ErrDestroyed
	}
	if width == t.desc.Width && height == t.desc.Height {
		return nil
	}
	next := t.desc
	next.Width, next.Height = width, height
	if err := t.engine.checkTextureDesc(next); err != nil {
		return err
	}
	if err := t.engine.dev.ResizeTexture(t.handle, next); err != nil {
		return &AllocationError{Resource: "texture", Reason: "resize", Err: err}
	}
	t.desc = next
	return nil
}

// SetFilterMode changes sampling for subsequent reads without
// reallocating.
func (t *TextureBuffer) SetFilterMode(mode FilterMode) {
	if t.dead || mode == t.desc.Filter {
		return
	}
	t.engine.dev.SetTextureFilter(t.handle, mode)
	t.desc.Filter = mode
}

// Destroy releases the GPU storage. Programs still sampling this buffer
// must be destroyed first.
func (t *TextureBuffer) Destroy() {
	if t.dead {
		return
	}
	t.engine.dev.DeleteTexture(t.handle)
	t.engine.untrack(kindTexture, t)
	t.dead = true
}

func (t *TextureBuffer) String() string {
	return fmt.Sprintf("TextureBuffer(%s %dD %dx%d)", t.desc.Format, t.desc.Dim, t.desc.Width, t.desc.Height)
}
