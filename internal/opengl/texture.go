package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/render"
)

// glFormat maps a texture format to internal format, pixel format and
// component type for glTexImage.
func glFormat(f render.TextureFormat) (internal int32, format, xtype uint32, err error) {
	switch f {
	case render.FormatRGB8:
		return gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE, nil
	case render.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case render.FormatRG16F:
		return gl.RG16F, gl.RG, gl.FLOAT, nil
	case render.FormatRGB16F:
		return gl.RGB16F, gl.RGB, gl.FLOAT, nil
	case render.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.FLOAT, nil
	case render.FormatRGB32F:
		return gl.RGB32F, gl.RGB, gl.FLOAT, nil
	case render.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	case render.FormatR32F:
		return gl.R32F, gl.RED, gl.FLOAT, nil
	case render.FormatR16F:
		return gl.R16F, gl.RED, gl.FLOAT, nil
	case render.FormatDepth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported texture format %s", f)
}

func glFilter(m render.FilterMode) int32 {
	if m == render.FilterNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func pixelPointer(desc render.TextureDesc) unsafe.Pointer {
	switch {
	case len(desc.Bytes) > 0:
		return unsafe.Pointer(&desc.Bytes[0])
	case len(desc.Floats) > 0:
		return unsafe.Pointer(&desc.Floats[0])
	}
	return nil
}

func textureTarget(dim int) uint32 {
	if dim == 1 {
		return gl.TEXTURE_1D
	}
	return gl.TEXTURE_2D
}

// upload (re)specifies storage of the bound texture and its sampling
// state.
func upload(target uint32, desc render.TextureDesc) error {
	internal, format, xtype, err := glFormat(desc.Format)
	if err != nil {
		return err
	}
	pixels := pixelPointer(desc)
	if target == gl.TEXTURE_1D {
		gl.TexImage1D(target, 0, internal, int32(desc.Width), 0, format, xtype, pixels)
	} else {
		gl.TexImage2D(target, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, pixels)
	}

	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap)
	if target == gl.TEXTURE_2D {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap)
	}

	minFilter := glFilter(desc.Filter)
	if desc.MipMap {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
		if pixels != nil {
			gl.GenerateMipmap(target)
		}
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, glFilter(desc.Filter))
	return nil
}

func (d *Device) NewTexture(desc render.TextureDesc) (render.Handle, error) {
	target := textureTarget(desc.Dim)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(target, id)
	err := upload(target, desc)
	if err == nil {
		err = glError("texture upload")
	}
	gl.BindTexture(target, 0)
	if err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}

	desc.Bytes, desc.Floats = nil, nil
	d.textures[render.Handle(id)] = &glTexture{target: target, desc: desc}
	return render.Handle(id), nil
}

func (d *Device) ResizeTexture(h render.Handle, desc render.TextureDesc) error {
	t, ok := d.textures[h]
	if !ok {
		return fmt.Errorf("resize: unknown texture %d", h)
	}
	desc.Bytes, desc.Floats = nil, nil
	gl.BindTexture(t.target, uint32(h))
	err := upload(t.target, desc)
	gl.BindTexture(t.target, 0)
	if err != nil {
		return err
	}
	t.desc = desc
	return glError("texture resize")
}

func (d *Device) SetTextureFilter(h render.Handle, mode render.FilterMode) {
	t, ok := d.textures[h]
	if !ok {
		return
	}
	gl.BindTexture(t.target, uint32(h))
	if !t.desc.MipMap {
		gl.TexParameteri(t.target, gl.TEXTURE_MIN_FILTER, glFilter(mode))
	}
	gl.TexParameteri(t.target, gl.TEXTURE_MAG_FILTER, glFilter(mode))
	gl.BindTexture(t.target, 0)
	t.desc.Filter = mode
}

// DeleteTexture frees the GPU texture.
func (d *Device) DeleteTexture(h render.Handle) {
	if _, ok := d.textures[h]; !ok {
		return
	}
	id := uint32(h)
	gl.DeleteTextures(1, &id)
	delete(d.textures, h)
}

// ── Render buffers ───────────────────────────────────────────────────────────

func glRenderBufferFormat(t render.RenderBufferType) uint32 {
	switch t {
	case render.RenderBufferColor:
		return gl.RGB8
	case render.RenderBufferColorAlpha:
		return gl.RGBA8
	case render.RenderBufferDepth:
		return gl.DEPTH_COMPONENT24
	default:
		return gl.RGBA32F
	}
}

func (d *Device) NewRenderBuffer(typ render.RenderBufferType, width, height int) (render.Handle, error) {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	if err := d.ResizeRenderBuffer(render.Handle(id), typ, width, height); err != nil {
		gl.DeleteRenderbuffers(1, &id)
		return 0, err
	}
	d.renderBufs[render.Handle(id)] = struct{}{}
	return render.Handle(id), nil
}

func (d *Device) ResizeRenderBuffer(h render.Handle, typ render.RenderBufferType, width, height int) error {
	gl.BindRenderbuffer(gl.RENDERBUFFER, uint32(h))
	gl.RenderbufferStorage(gl.RENDERBUFFER, glRenderBufferFormat(typ), int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return glError("renderbuffer storage")
}

func (d *Device) DeleteRenderBuffer(h render.Handle) {
	if _, ok := d.renderBufs[h]; !ok {
		return
	}
	id := uint32(h)
	gl.DeleteRenderbuffers(1, &id)
	delete(d.renderBufs, h)
}
