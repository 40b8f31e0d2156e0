// Package opengl implements render.Device on OpenGL 4.1 core.
//
// Every call must happen on the goroutine holding the current GL context
// (see core.NewWindow).
package opengl

import (
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/logging"
	"sciviz/render"
)

type glTexture struct {
	target uint32
	desc   render.TextureDesc
}

type glProgram struct {
	vao uint32
}

type glFrameBuffer struct {
	hasColor bool
}

// Device is the OpenGL backend. Handles are GL object names; the extra
// state kept here is what the GL objects themselves do not remember
// (texture targets, per-program vertex arrays).
type Device struct {
	log  *slog.Logger
	caps render.Caps

	textures     map[render.Handle]*glTexture
	programs     map[render.Handle]*glProgram
	frameBuffers map[render.Handle]*glFrameBuffer
	renderBufs   map[render.Handle]struct{}
	vertexBufs   map[render.Handle]struct{}
	indexBufs    map[render.Handle]struct{}

	boundFB render.Handle
}

// NewDevice initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewDevice(log *slog.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if log == nil {
		log = logging.Logger()
	}

	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)

	d := &Device{
		log:          log,
		caps:         render.Caps{MaxTextureSize: int(maxTex)},
		textures:     make(map[render.Handle]*glTexture),
		programs:     make(map[render.Handle]*glProgram),
		frameBuffers: make(map[render.Handle]*glFrameBuffer),
		renderBufs:   make(map[render.Handle]struct{}),
		vertexBufs:   make(map[render.Handle]struct{}),
		indexBufs:    make(map[render.Handle]struct{}),
	}

	// RGB8 rows are not 4-byte aligned
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	d.SetDepthMode(render.DepthLess)
	d.SetBlendMode(render.BlendOver)

	log.Info("OpenGL device ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"maxTextureSize", maxTex)
	return d, nil
}

func (d *Device) Name() string      { return "opengl4.1" }
func (d *Device) Caps() render.Caps { return d.caps }

func (d *Device) SetDepthMode(mode render.DepthMode) {
	switch mode {
	case render.DepthLess:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
		gl.DepthMask(true)
	case render.DepthLEqual:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
		gl.DepthMask(true)
	case render.DepthLEqualReadOnly:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
		gl.DepthMask(false)
	case render.DepthDisable:
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (d *Device) SetBlendMode(mode render.BlendMode) {
	switch mode {
	case render.BlendOver:
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	case render.BlendAddWithAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	case render.BlendDisable:
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) SetBackfaceCull(enabled bool) {
	if enabled {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		return
	}
	gl.Disable(gl.CULL_FACE)
}

// Release deletes every GL object the device still knows about.
func (d *Device) Release() {
	for h := range d.programs {
		d.DeleteProgram(h)
	}
	for h := range d.vertexBufs {
		d.DeleteVertexBuffer(h)
	}
	for h := range d.indexBufs {
		d.DeleteIndexBuffer(h)
	}
	for h := range d.frameBuffers {
		d.DeleteFrameBuffer(h)
	}
	for h := range d.textures {
		d.DeleteTexture(h)
	}
	for h := range d.renderBufs {
		d.DeleteRenderBuffer(h)
	}
	d.log.Debug("OpenGL device released")
}

// glError drains the GL error queue and reports the first error.
func glError(op string) error {
	first := uint32(gl.NO_ERROR)
	// bounded: a lost context reports errors forever
	for i := 0; i < 16; i++ {
		e := gl.GetError()
		if e == gl.NO_ERROR {
			break
		}
		if first == gl.NO_ERROR {
			first = e
		}
	}
	if first != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%X", op, first)
	}
	return nil
}

var _ render.Device = (*Device)(nil)
