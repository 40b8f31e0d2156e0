package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/render"
)

var glStages = map[render.ShaderStageType]uint32{
	render.StageVertex:         gl.VERTEX_SHADER,
	render.StageTessControl:    gl.TESS_CONTROL_SHADER,
	render.StageTessEvaluation: gl.TESS_EVALUATION_SHADER,
	render.StageGeometry:       gl.GEOMETRY_SHADER,
	render.StageFragment:       gl.FRAGMENT_SHADER,
}

// cstr returns s NUL-terminated, as the GL entry points expect.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// NewProgram compiles and links every stage. Shader objects are deleted
// whatever the outcome.
func (d *Device) NewProgram(stages []render.ShaderStageSpecification) (render.Handle, error) {
	prog, err := newProgram(stages)
	if err != nil {
		return 0, err
	}
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	d.programs[render.Handle(prog)] = &glProgram{vao: vao}
	return render.Handle(prog), nil
}

func newProgram(stages []render.ShaderStageSpecification) (uint32, error) {
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	for _, st := range stages {
		typ, ok := glStages[st.Stage]
		if !ok {
			return 0, fmt.Errorf("unknown shader stage %s", st.Stage)
		}
		s, err := compileShader(cstr(st.Src), typ)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", st.Stage, err)
		}
		shaders = append(shaders, s)
	}

	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}

	for _, s := range shaders {
		gl.DetachShader(prog, s)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) UniformLocation(prog render.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(prog), gl.Str(cstr(name)))
}

func (d *Device) AttributeLocation(prog render.Handle, name string) int32 {
	return gl.GetAttribLocation(uint32(prog), gl.Str(cstr(name)))
}

func (d *Device) DeleteProgram(prog render.Handle) {
	p, ok := d.programs[prog]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &p.vao)
	gl.DeleteProgram(uint32(prog))
	delete(d.programs, prog)
}
