package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"sciviz/pick"
	"sciviz/render"
)

// FrameContext is the per-frame view state structures draw with.
type FrameContext struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewportHeight float32
	LengthScale    float32
}

// Structure is a named piece of geometry in the registry.
type Structure interface {
	Name() string
	TypeName() string
	Enabled() bool
	SetEnabled(bool)
	Bounds() AABB

	// Draw renders the structure into the bound target.
	Draw(ctx FrameContext) error
	// DrawPick renders encoded pick indices into the bound target.
	DrawPick(ctx FrameContext) error
	// PickCount is how many pickable elements the structure has.
	PickCount() uint64
	// DescribePick names a picked element for display.
	DescribePick(element uint64) string

	// Destroy frees every GPU resource. The structure is unusable after.
	Destroy()

	setPickRange(pick.Range)
}

type structureBase struct {
	reg       *Registry
	name      string
	enabled   bool
	pickRange pick.Range
}

func (s *structureBase) Name() string              { return s.name }
func (s *structureBase) Enabled() bool             { return s.enabled }
func (s *structureBase) SetEnabled(on bool)        { s.enabled = on }
func (s *structureBase) setPickRange(r pick.Range) { s.pickRange = r }

func (s *structureBase) engine() *render.Engine { return s.reg.engine }

// setUniforms assigns every listed uniform the program declares. The first
// failure is returned; the rest are still attempted.
func setUniforms(p *render.ShaderProgram, values map[string]render.Value) error {
	var first error
	for name, v := range values {
		if !p.HasUniform(name) {
			continue
		}
		if err := p.SetUniform(name, v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func transformUniforms(ctx FrameContext) map[string]render.Value {
	return map[string]render.Value{
		"u_modelView":  render.Mat4(ctx.View),
		"u_projMatrix": render.Mat4(ctx.Projection),
	}
}

func destroyProgram(p **render.ShaderProgram) {
	if *p != nil {
		(*p).Destroy()
		*p = nil
	}
}
