package render_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/render"
	"sciviz/render/rendertest"
)

func newMeshProgram(t *testing.T, e *render.Engine) *render.ShaderProgram {
	t.Helper()
	p, err := e.NewShaderProgram("mesh", meshStages(), render.DrawTriangles, 0)
	require.NoError(t, err)
	return p
}

// fillMesh gives every input of the mesh program data.
func fillMesh(t *testing.T, e *render.Engine, p *render.ShaderProgram) {
	t.Helper()
	require.NoError(t, p.SetAttribute("a_position", render.Vec3s(triangle()), false, 0, -1))
	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{0, 0.5, 1}), false, 0, -1))
	require.NoError(t, p.SetUniform("u_viewProj", render.Mat4(mgl32.Ident4())))
	require.NoError(t, p.SetUniform("u_scale", render.Float(1)))
	require.NoError(t, p.SetTexture1D("t_colormap", make([]byte, 3*4), 4))
}

func TestProgramMergesDeclarations(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	assert.True(t, p.HasUniform("u_scale"))
	assert.True(t, p.HasUniform("u_viewProj"))
	assert.True(t, p.HasAttribute("a_position"))
	assert.True(t, p.HasTexture("t_colormap"))
	assert.False(t, p.HasUniform("a_position"))
	assert.False(t, p.HasAttribute("u_scale"))
	assert.Equal(t, "mesh", p.Label())
}

func TestProgramRejectsConflictingDeclarations(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	stages := meshStages()
	stages[1].Uniforms = []render.ShaderSpecUniform{{Name: "u_scale", Type: render.TypeVector3Float}}

	_, err := e.NewShaderProgram("bad", stages, render.DrawTriangles, 0)
	assert.ErrorContains(t, err, "u_scale")

	stages = meshStages()
	stages[0].Uniforms = append(stages[0].Uniforms, render.ShaderSpecUniform{Name: "u_d", Type: render.TypeDouble})
	_, err = e.NewShaderProgram("double", stages, render.DrawTriangles, 0)
	assert.Error(t, err)

	_, err = e.NewShaderProgram("patches", meshStages(), render.DrawPatches, 0)
	assert.Error(t, err)

	_, err = e.NewShaderProgram("empty", nil, render.DrawTriangles, 0)
	assert.Error(t, err)
	assert.Zero(t, e.LiveResources())
}

func TestProgramCompileFailure(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	dev.CompileError = errors.New("0:12: syntax error")

	_, err := e.NewShaderProgram("broken", meshStages(), render.DrawTriangles, 0)
	assert.ErrorContains(t, err, "syntax error")
	assert.ErrorContains(t, err, "broken")
}

func TestDrawBeforeDataIssuesNothing(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	err := p.Draw()
	var verr *render.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "attribute", verr.Kind)
	assert.Equal(t, "a_position", verr.Name)
	assert.Empty(t, dev.Draws)

	require.NoError(t, p.SetAttribute("a_position", render.Vec3s(triangle()), false, 0, -1))
	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{0, 0.5, 1}), false, 0, -1))
	err = p.Draw()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "uniform", verr.Kind)
	assert.Equal(t, "u_viewProj", verr.Name)

	require.NoError(t, p.SetUniform("u_viewProj", render.Mat4(mgl32.Ident4())))
	require.NoError(t, p.SetUniform("u_scale", render.Float(2)))
	err = p.Draw()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "texture", verr.Kind)
	assert.Equal(t, "t_colormap", verr.Name)
	assert.Empty(t, dev.Draws)
}

func TestDrawBindsEverything(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)

	require.NoError(t, p.Draw())
	require.Len(t, dev.Draws, 1)

	call := dev.Draws[0]
	assert.Equal(t, render.DrawTriangles, call.Mode)
	assert.Equal(t, 3, call.Count)
	assert.False(t, call.Indexed)
	assert.Len(t, call.Uniforms, 2)
	require.Len(t, call.Textures, 1)
	assert.Equal(t, "t_colormap", call.Textures[0].Name)
	assert.Equal(t, 0, call.Textures[0].Unit)
}

func TestAttributeLengthsMustAgree(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)
	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{0, 1}), false, 0, -1))

	var verr *render.ValidationError
	require.ErrorAs(t, p.Draw(), &verr)
	assert.Equal(t, "a_value", verr.Name)
	assert.Equal(t, -1, p.VertexCount())
	assert.Empty(t, dev.Draws)
}

func TestDoubleUniformNarrowsToFloat(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)

	require.NoError(t, p.SetUniform("u_scale", render.Double(0.1)))
	require.NoError(t, p.Draw())

	call, ok := dev.LastDraw()
	require.True(t, ok)
	v, ok := rendertest.BoundUniform(call, "u_scale")
	require.True(t, ok)
	assert.Equal(t, render.TypeFloat, v.Type())
	assert.Equal(t, float32(0.1), v.AsFloat())
}

func TestSetUniformRejectsWrongType(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	require.NoError(t, p.SetUniform("u_scale", render.Float(3)))

	var berr *render.BindingError
	assert.ErrorAs(t, p.SetUniform("u_scale", render.Vec3(mgl32.Vec3{1, 2, 3})), &berr)
	assert.ErrorAs(t, p.SetUniform("u_viewProj", render.Double(1)), &berr)
	assert.ErrorAs(t, p.SetUniform("u_missing", render.Float(1)), &berr)
	assert.Equal(t, "u_missing", berr.Name)

	// the rejected calls left the earlier value alone
	v, ok := p.Uniform("u_scale")
	require.True(t, ok)
	assert.Equal(t, float32(3), v.AsFloat())
}

func TestAttributeUpdateRequiresAllocation(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	err := p.SetAttribute("a_position", render.Vec3s(triangle()), true, 0, -1)
	assert.ErrorIs(t, err, render.ErrNotAllocated)
	var berr *render.BindingError
	assert.ErrorAs(t, err, &berr)
}

func TestAttributePartialUpdate(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{0, 0, 0, 0}), false, 0, -1))

	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{9, 1, 2, 9}), true, 1, 2))

	require.Len(t, dev.VertexBuffers, 1)
	for _, vb := range dev.VertexBuffers {
		assert.Equal(t, []float32{0, 1, 2, 0}, vb.Floats)
	}

	err := p.SetAttribute("a_value", render.Floats([]float32{1, 2, 3, 4, 5}), true, 3, 2)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
	err = p.SetAttribute("a_value", render.Floats([]float32{1, 2}), true, 1, 2)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
}

func TestAttributeTypeMismatch(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	var berr *render.BindingError
	assert.ErrorAs(t, p.SetAttribute("a_position", render.Floats([]float32{1, 2, 3}), false, 0, -1), &berr)
	assert.ErrorAs(t, p.SetAttribute("a_nope", render.Floats([]float32{1}), false, 0, -1), &berr)
	assert.Empty(t, dev.VertexBuffers)
}

func TestReallocationReplacesBuffer(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{1}), false, 0, -1))
	require.NoError(t, p.SetAttribute("a_value", render.Floats([]float32{1, 2, 3}), false, 0, -1))
	assert.Len(t, dev.VertexBuffers, 1)
}

func indexedStages() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{Stage: render.StageVertex, Attributes: []render.ShaderSpecAttribute{{Name: "a_position", Type: render.TypeVector3Float}}},
		{Stage: render.StageFragment},
	}
}

func TestIndexedProgramNeedsIndex(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p, err := e.NewShaderProgram("indexed", indexedStages(), render.DrawIndexedTriangles, 0)
	require.NoError(t, err)
	require.NoError(t, p.SetAttribute("a_position", render.Vec3s(triangle()), false, 0, -1))

	var verr *render.ValidationError
	require.ErrorAs(t, p.Draw(), &verr)
	assert.Equal(t, "index", verr.Kind)

	require.NoError(t, p.SetIndex(render.TriangleIndices([][3]uint32{{0, 1, 2}})))
	require.NoError(t, p.Draw())
	call, _ := dev.LastDraw()
	assert.True(t, call.Indexed)
	assert.Equal(t, 3, call.Count)
	assert.False(t, call.Restart)
}

func TestSetIndexRejectedForNonIndexedMode(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	var berr *render.BindingError
	assert.ErrorAs(t, p.SetIndex(render.FlatIndices([]uint32{0, 1, 2})), &berr)

	strip, err := e.NewShaderProgram("strip", indexedStages(), render.DrawIndexedLineStrip, 0)
	require.NoError(t, err)
	assert.ErrorAs(t, strip.SetIndex(render.TriangleIndices([][3]uint32{{0, 1, 2}})), &berr)
}

func TestPrimitiveRestartOnlyForStrips(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	strip, err := e.NewShaderProgram("strip", indexedStages(), render.DrawIndexedLineStrip, 0)
	require.NoError(t, err)
	require.NoError(t, strip.SetAttribute("a_position", render.Vec3s(triangle()), false, 0, -1))
	require.NoError(t, strip.SetIndex(render.FlatIndices([]uint32{0, 1, 0xFFFFFFFF, 1, 2})))
	strip.SetPrimitiveRestartIndex(0xFFFFFFFF)
	require.NoError(t, strip.Draw())

	call, _ := dev.LastDraw()
	assert.True(t, call.Restart)
	assert.Equal(t, uint32(0xFFFFFFFF), call.RestartIndex)
	assert.Equal(t, 5, call.Count)

	tris, err := e.NewShaderProgram("tris", indexedStages(), render.DrawIndexedTriangles, 0)
	require.NoError(t, err)
	require.NoError(t, tris.SetAttribute("a_position", render.Vec3s(triangle()), false, 0, -1))
	require.NoError(t, tris.SetIndex(render.TriangleIndices([][3]uint32{{0, 1, 2}})))
	tris.SetPrimitiveRestartIndex(7)
	require.NoError(t, tris.Draw())

	call, _ = dev.LastDraw()
	assert.False(t, call.Restart)
}

func TestOwnedAndSharedTextures(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	shared, err := e.NewTextureBuffer1D(render.FormatRGB8, 4, nil)
	require.NoError(t, err)

	a := newMeshProgram(t, e)
	b := newMeshProgram(t, e)
	require.NoError(t, a.SetTextureFromBuffer("t_colormap", shared))
	require.NoError(t, b.SetTextureFromBuffer("t_colormap", shared))

	a.Destroy()
	assert.Contains(t, dev.Textures, texHandleOf(t, dev, shared))

	require.NoError(t, b.SetTexture1D("t_colormap", make([]byte, 6), 2))
	assert.Len(t, dev.Textures, 2)
	b.Destroy()
	assert.Len(t, dev.Textures, 1)
}

func TestRebindingOwnedTextureKeepsOwnership(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	require.NoError(t, p.SetTexture1D("t_colormap", make([]byte, 6), 2))
	own, ok := p.Texture("t_colormap")
	require.True(t, ok)

	require.NoError(t, p.SetTextureFromBuffer("t_colormap", own))
	got, _ := p.Texture("t_colormap")
	assert.Same(t, own, got)
	assert.Len(t, dev.Textures, 1)

	p.Destroy()
	assert.Empty(t, dev.Textures)
	assert.Zero(t, e.LiveResources())
}

func TestTextureDimensionChecked(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	flat, err := e.NewTextureBuffer2D(render.FormatRGB8, 2, 2, nil)
	require.NoError(t, err)

	var berr *render.BindingError
	assert.ErrorAs(t, p.SetTextureFromBuffer("t_colormap", flat), &berr)
	assert.ErrorAs(t, p.SetTexture2D("t_colormap", make([]byte, 12), 2, 2, false, false, false), &berr)
}

func TestDestroyedSharedTextureFailsValidation(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)
	shared, err := e.NewTextureBuffer1D(render.FormatRGB8, 4, nil)
	require.NoError(t, err)
	require.NoError(t, p.SetTextureFromBuffer("t_colormap", shared))
	shared.Destroy()

	var verr *render.ValidationError
	require.ErrorAs(t, p.Draw(), &verr)
	assert.Equal(t, "t_colormap", verr.Name)
	assert.Empty(t, dev.Draws)
}

func TestOptimizedOutInputsStillRequired(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	dev.OptimizedOut["u_scale"] = true
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)
	require.NoError(t, p.Draw())

	call, _ := dev.LastDraw()
	for _, u := range call.Uniforms {
		if u.Name == "u_scale" {
			assert.Equal(t, int32(-1), u.Location)
		}
	}
}

func TestDestroyedProgram(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)
	fillMesh(t, e, p)
	p.Destroy()

	assert.ErrorIs(t, p.Draw(), render.ErrDestroyed)
	assert.ErrorIs(t, p.SetUniform("u_scale", render.Float(1)), render.ErrDestroyed)
	assert.Empty(t, dev.Programs)
	assert.Empty(t, dev.VertexBuffers)
	assert.Empty(t, dev.Textures)
}

func texHandleOf(t *testing.T, dev *rendertest.Device, tex *render.TextureBuffer) render.Handle {
	t.Helper()
	for h, st := range dev.Textures {
		if st.Desc.Width == tex.SizeX() && st.Desc.Format == tex.Format() {
			return h
		}
	}
	t.Fatalf("texture %v not found", tex)
	return 0
}

type rampColormap struct{}

func (rampColormap) Name() string { return "ramp" }

func (rampColormap) RGB8() ([]byte, int) {
	return []byte{0, 0, 0, 128, 128, 128, 255, 255, 255}, 3
}

func TestSetTextureFromColormap(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 8, 8)
	p := newMeshProgram(t, e)

	require.NoError(t, p.SetTextureFromColormap("t_colormap", rampColormap{}))
	require.Len(t, dev.Textures, 1)
	for _, tex := range dev.Textures {
		assert.Equal(t, 3, tex.Desc.Width)
		assert.Equal(t, render.FormatRGB8, tex.Desc.Format)
		assert.Equal(t, []byte{0, 0, 0, 128, 128, 128, 255, 255, 255}, tex.Bytes)
	}

	var berr *render.BindingError
	assert.ErrorAs(t, p.SetTextureFromColormap("t_colormap", nil), &berr)
}
