package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/render"
)

var glModes = map[render.DrawMode]uint32{
	render.DrawPoints:                    gl.POINTS,
	render.DrawLines:                     gl.LINES,
	render.DrawLineStrip:                 gl.LINE_STRIP,
	render.DrawTriangles:                 gl.TRIANGLES,
	render.DrawTrianglesAdjacency:        gl.TRIANGLES_ADJACENCY,
	render.DrawLinesAdjacency:            gl.LINES_ADJACENCY,
	render.DrawIndexedLines:              gl.LINES,
	render.DrawIndexedLineStrip:          gl.LINE_STRIP,
	render.DrawIndexedLineStripAdjacency: gl.LINE_STRIP_ADJACENCY,
	render.DrawIndexedTriangles:          gl.TRIANGLES,
	render.DrawIndexedTriangleStrip:      gl.TRIANGLE_STRIP,
	render.DrawPatches:                   gl.PATCHES,
}

func setUniform(loc int32, v render.Value) {
	if loc < 0 {
		return
	}
	switch v.Type() {
	case render.TypeInt:
		gl.Uniform1i(loc, v.AsInt())
	case render.TypeUInt:
		gl.Uniform1ui(loc, v.AsUint())
	case render.TypeFloat:
		gl.Uniform1f(loc, v.AsFloat())
	case render.TypeVector2Float:
		u := v.AsVec2()
		gl.Uniform2f(loc, u[0], u[1])
	case render.TypeVector3Float:
		u := v.AsVec3()
		gl.Uniform3f(loc, u[0], u[1], u[2])
	case render.TypeVector4Float:
		u := v.AsVec4()
		gl.Uniform4f(loc, u[0], u[1], u[2], u[3])
	case render.TypeMatrix44Float:
		m := v.AsMat4()
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

// Draw issues one draw call with every binding in call.
func (d *Device) Draw(call render.DrawCall) error {
	p, ok := d.programs[call.Program]
	if !ok {
		return fmt.Errorf("draw: unknown program %d", call.Program)
	}
	mode, ok := glModes[call.Mode]
	if !ok {
		return fmt.Errorf("draw: unsupported mode %s", call.Mode)
	}

	gl.UseProgram(uint32(call.Program))
	gl.BindVertexArray(p.vao)

	for _, u := range call.Uniforms {
		setUniform(u.Location, u.Value)
	}
	for _, t := range call.Textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(t.Unit))
		gl.BindTexture(textureTarget(t.Dim), uint32(t.Texture))
		if t.Location >= 0 {
			gl.Uniform1i(t.Location, int32(t.Unit))
		}
	}

	if call.Restart {
		gl.Enable(gl.PRIMITIVE_RESTART)
		gl.PrimitiveRestartIndex(call.RestartIndex)
	}
	if call.Mode == render.DrawPatches {
		gl.PatchParameteri(gl.PATCH_VERTICES, int32(call.PatchVertices))
	}

	if call.Indexed {
		gl.DrawElements(mode, int32(call.Count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(mode, 0, int32(call.Count))
	}

	if call.Restart {
		gl.Disable(gl.PRIMITIVE_RESTART)
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	return glError("draw")
}
