package render_test

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/render"
	"sciviz/render/rendertest"
)

func meshStages() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage: render.StageVertex,
			Uniforms: []render.ShaderSpecUniform{
				{Name: "u_viewProj", Type: render.TypeMatrix44Float},
				{Name: "u_scale", Type: render.TypeFloat},
			},
			Attributes: []render.ShaderSpecAttribute{
				{Name: "a_position", Type: render.TypeVector3Float},
				{Name: "a_value", Type: render.TypeFloat},
			},
			Src: "vertex",
		},
		{
			Stage: render.StageFragment,
			Uniforms: []render.ShaderSpecUniform{
				{Name: "u_scale", Type: render.TypeFloat},
			},
			Textures: []render.ShaderSpecTexture{{Name: "t_colormap", Dim: 1}},
			Src:      "fragment",
		},
	}
}

func triangle() []mgl32.Vec3 {
	return []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
}

func colorDepthTarget(t *testing.T, e *render.Engine, w, h int) *render.FrameBuffer {
	t.Helper()
	color, err := e.NewTextureBuffer2D(render.FormatRGBA32F, w, h, nil)
	require.NoError(t, err)
	depth, err := e.NewRenderBuffer(render.RenderBufferDepth, w, h)
	require.NoError(t, err)
	fb, err := e.NewFrameBuffer()
	require.NoError(t, err)
	fb.BindToColorTextureBuffer(color)
	fb.BindToDepthRenderBuffer(depth)
	return fb
}

func TestTextureSizeRoundTrip(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)

	t1, err := e.NewTextureBuffer1D(render.FormatRGB8, 300, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, t1.Dim())
	assert.Equal(t, 300, t1.SizeX())
	assert.Equal(t, 1, t1.SizeY())

	t2, err := e.NewTextureBuffer2D(render.FormatRGBA16F, 640, 480, nil)
	require.NoError(t, err)
	w, h := t2.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, render.FormatRGBA16F, t2.Format())

	require.NoError(t, t2.Resize2D(320, 200))
	assert.Equal(t, 320, t2.SizeX())
	assert.Equal(t, 200, t2.SizeY())

	assert.Error(t, t1.Resize2D(4, 4))
	assert.Error(t, t2.Resize1D(4))
}

func TestTextureAllocationErrors(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)

	tests := []struct {
		name string
		make func() error
	}{
		{"zero size", func() error {
			_, err := e.NewTextureBuffer2D(render.FormatRGBA8, 0, 4, nil)
			return err
		}},
		{"byte count", func() error {
			_, err := e.NewTextureBuffer2D(render.FormatRGB8, 2, 2, make([]byte, 11))
			return err
		}},
		{"floats for byte format", func() error {
			_, err := e.NewTextureBuffer1D(render.FormatRGBA8, 2, make([]float32, 8))
			return err
		}},
		{"bytes for float format", func() error {
			_, err := e.NewTextureBuffer1D(render.FormatR32F, 2, make([]byte, 2))
			return err
		}},
		{"1d depth", func() error {
			_, err := e.NewTextureBuffer1D(render.FormatDepth24, 2, nil)
			return err
		}},
		{"pixel type", func() error {
			_, err := e.NewTextureBuffer1D(render.FormatR32F, 2, []int{1, 2})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var alloc *render.AllocationError
			assert.ErrorAs(t, tt.make(), &alloc)
		})
	}
	assert.Zero(t, e.LiveResources())
}

func TestTextureLimitFromCaps(t *testing.T) {
	dev := rendertest.New()
	dev.MaxTextureSize = 256
	e, err := render.NewEngine(dev, 8, 8)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)

	_, err = e.NewTextureBuffer2D(render.FormatRGBA8, 257, 1, nil)
	var alloc *render.AllocationError
	require.ErrorAs(t, err, &alloc)

	_, err = e.NewRenderBuffer(render.RenderBufferColor, 1, 300)
	assert.ErrorAs(t, err, &alloc)
}

func TestTextureUploadAndFilter(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)

	data := []float32{0.25, 0.5}
	tex, err := e.NewTextureBuffer1D(render.FormatR32F, 2, data)
	require.NoError(t, err)

	var stored *rendertest.Texture
	for _, st := range dev.Textures {
		stored = st
	}
	require.NotNil(t, stored)
	assert.Equal(t, data, stored.Floats)
	assert.Equal(t, render.FilterLinear, stored.Desc.Filter)

	tex.SetFilterMode(render.FilterNearest)
	assert.Equal(t, render.FilterNearest, tex.FilterMode())
	assert.Equal(t, render.FilterNearest, stored.Desc.Filter)
}

func TestFrameBufferClearAndReadBack(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 256, 256)

	require.True(t, fb.BindForRendering())
	fb.ClearColor = [4]float32{1, 0, 0, 1}
	fb.Clear()

	px, err := fb.ReadFloat4(128, 128)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, px)

	_, err = fb.ReadFloat4(256, 0)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
	_, err = fb.ReadFloat4(-1, 3)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
}

func TestFrameBufferReadsWrittenPixel(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 4, 4)
	require.True(t, fb.BindForRendering())
	fb.Clear()

	dev.SetPixel(dev.Bound, 1, 2, [4]float32{0.5, 0.25, 0, 1})
	px, err := fb.ReadFloat4(1, 2)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0.5, 0.25, 0, 1}, px)
}

func TestResizeBuffersIdempotent(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 64, 64)

	generations := func() map[string]int {
		out := make(map[string]int)
		for h, tex := range dev.Textures {
			out[fmt.Sprint("tex", h)] = tex.Generation
		}
		for h, rb := range dev.RenderBuffers {
			out[fmt.Sprint("rb", h)] = rb.Generation
		}
		return out
	}

	before := generations()
	require.NoError(t, fb.ResizeBuffers(64, 64))
	assert.Equal(t, before, generations())

	require.NoError(t, fb.ResizeBuffers(32, 16))
	after := generations()
	for i := range before {
		assert.NotEqual(t, before[i], after[i])
	}
	w, h := fb.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)

	require.NoError(t, fb.ResizeBuffers(32, 16))
	assert.Equal(t, after, generations())
}

func TestResizeBuffersCatchesUpStaleDepth(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	color, err := e.NewTextureBuffer2D(render.FormatRGBA8, 256, 256, nil)
	require.NoError(t, err)
	depth, err := e.NewRenderBuffer(render.RenderBufferDepth, 128, 128)
	require.NoError(t, err)
	fb, err := e.NewFrameBuffer()
	require.NoError(t, err)
	fb.BindToColorTextureBuffer(color)
	fb.BindToDepthRenderBuffer(depth)
	require.False(t, fb.BindForRendering())

	require.NoError(t, fb.ResizeBuffers(256, 256))
	assert.Equal(t, 256, depth.SizeX())
	assert.Equal(t, 256, depth.SizeY())
	assert.True(t, fb.BindForRendering())
}

func TestAttachNilIsIgnored(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 4, 4)

	assert.NotPanics(t, func() {
		fb.BindToColorRenderBuffer(nil)
		fb.BindToDepthRenderBuffer(nil)
		fb.BindToColorTextureBuffer(nil)
		fb.BindToDepthTextureBuffer(nil)
	})
	assert.True(t, fb.BindForRendering(), "previous attachments kept")
}

func TestResizeBoundFrameBufferRebinds(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 10, 10)
	require.True(t, fb.BindForRendering())

	require.NoError(t, fb.ResizeBuffers(20, 30))
	assert.Equal(t, 20, dev.BoundWidth)
	assert.Equal(t, 30, dev.BoundHeight)
}

func TestBindRejectsIncompleteFrameBuffers(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	require.True(t, e.DisplayBuffer().BindForRendering())
	bound := dev.Bound

	empty, err := e.NewFrameBuffer()
	require.NoError(t, err)
	assert.False(t, empty.BindForRendering())

	color, err := e.NewTextureBuffer2D(render.FormatRGBA8, 8, 8, nil)
	require.NoError(t, err)
	depth, err := e.NewRenderBuffer(render.RenderBufferDepth, 4, 4)
	require.NoError(t, err)
	mismatch, err := e.NewFrameBuffer()
	require.NoError(t, err)
	mismatch.BindToColorTextureBuffer(color)
	mismatch.BindToDepthRenderBuffer(depth)
	assert.False(t, mismatch.BindForRendering())

	// a depth buffer in the color slot passes size checks but not the backend
	wrongSlot, err := e.NewFrameBuffer()
	require.NoError(t, err)
	wrongSlot.BindToColorRenderBuffer(depth)
	assert.False(t, wrongSlot.BindForRendering())

	assert.Equal(t, bound, dev.Bound)
	assert.Same(t, e.DisplayBuffer(), e.BoundFrameBuffer())
}

func TestBindRejectsDestroyedAttachment(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	color, err := e.NewTextureBuffer2D(render.FormatRGBA8, 8, 8, nil)
	require.NoError(t, err)
	fb, err := e.NewFrameBuffer()
	require.NoError(t, err)
	fb.BindToColorTextureBuffer(color)
	require.True(t, fb.BindForRendering())

	color.Destroy()
	assert.False(t, fb.BindForRendering())
}

func TestClearUnboundIsIgnored(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 4, 4)
	fb.Clear()
	for _, f := range dev.FrameBuffers {
		assert.Zero(t, f.Clears)
	}
}

func TestDestroyFrameBufferKeepsAttachments(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	fb := colorDepthTarget(t, e, 4, 4)
	fb.Destroy()
	assert.Len(t, dev.Textures, 1)
	assert.Len(t, dev.RenderBuffers, 1)
	assert.Equal(t, 2, e.LiveResources())
}
