package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/geometry"
	"sciviz/pick"
	"sciviz/render"
	"sciviz/render/shaders"
)

// PointCloud draws each point as a shaded sphere.
type PointCloud struct {
	structureBase
	quantitySet

	points []mgl32.Vec3
	bounds AABB

	color    mgl32.Vec3
	radius   float32 // relative to the scene length scale
	material string

	program     *render.ShaderProgram
	pickProgram *render.ShaderProgram
}

func newPointCloud(reg *Registry, name string, points []mgl32.Vec3) (*PointCloud, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("point cloud %q has no points", name)
	}
	pc := &PointCloud{
		structureBase: structureBase{reg: reg, name: name, enabled: true},
		points:        append([]mgl32.Vec3(nil), points...),
		color:         reg.opts.PointColor,
		radius:        reg.opts.PointRadius,
		material:      reg.opts.Material,
	}
	pc.quantitySet = newQuantitySet(pc.invalidate)
	pc.updateBounds()
	return pc, nil
}

func (pc *PointCloud) updateBounds() {
	lo, hi := geometry.Bounds(pc.points)
	pc.bounds = AABB{Min: lo, Max: hi}
}

func (pc *PointCloud) TypeName() string  { return "Point Cloud" }
func (pc *PointCloud) Bounds() AABB      { return pc.bounds }
func (pc *PointCloud) NumPoints() int    { return len(pc.points) }
func (pc *PointCloud) PickCount() uint64 { return uint64(len(pc.points)) }

func (pc *PointCloud) DescribePick(element uint64) string {
	if element >= uint64(len(pc.points)) {
		return fmt.Sprintf("%s: invalid element %d", pc.name, element)
	}
	p := pc.points[element]
	return fmt.Sprintf("%s: point %d at (%.4g, %.4g, %.4g)", pc.name, element, p[0], p[1], p[2])
}

func (pc *PointCloud) setPickRange(r pick.Range) {
	pc.pickRange = r
	destroyProgram(&pc.pickProgram)
}

func (pc *PointCloud) Color() mgl32.Vec3     { return pc.color }
func (pc *PointCloud) SetColor(c mgl32.Vec3) { pc.color = c }
func (pc *PointCloud) Radius() float32       { return pc.radius }

// SetRadius sets the sphere radius as a fraction of the scene length scale.
func (pc *PointCloud) SetRadius(r float32) error {
	if r <= 0 {
		return fmt.Errorf("point cloud %q: radius %v must be positive", pc.name, r)
	}
	pc.radius = r
	return nil
}

func (pc *PointCloud) Material() string { return pc.material }

func (pc *PointCloud) SetMaterial(name string) error {
	if _, err := pc.reg.materials.Texture(name); err != nil {
		return err
	}
	pc.material = name
	if pc.program != nil {
		return pc.reg.materials.Bind(pc.program, "t_matcap", name)
	}
	return nil
}

func (pc *PointCloud) AddScalarQuantity(name string, values []float64) (*ScalarQuantity, error) {
	if len(values) != len(pc.points) {
		return nil, fmt.Errorf("point cloud %q: scalar %q has %d values for %d points", pc.name, name, len(values), len(pc.points))
	}
	q, err := newScalarQuantity(pc, name, OnPoints, values, pc.reg.opts.Colormap)
	if err != nil {
		return nil, err
	}
	pc.add(q)
	return q, nil
}

func (pc *PointCloud) invalidate() { destroyProgram(&pc.program) }

func (pc *PointCloud) ensureProgram() error {
	if pc.program != nil {
		return nil
	}
	stages, label := shaders.PointSphere(), pc.name
	q, _ := pc.current().(*ScalarQuantity)
	if q != nil {
		stages, label = shaders.PointScalar(), pc.name+"/"+q.Name()
	}

	p, err := pc.engine().NewShaderProgram(label, stages, render.DrawPoints, 0)
	if err != nil {
		return fmt.Errorf("point cloud %q: %w", pc.name, err)
	}
	err = p.SetAttribute("a_position", render.Vec3s(pc.points), false, 0, -1)
	if err == nil && q != nil {
		err = p.SetAttribute("a_value", render.Floats(q.values), false, 0, -1)
		if err == nil {
			err = q.bind(p)
		}
	}
	if err == nil {
		err = pc.reg.materials.Bind(p, "t_matcap", pc.material)
	}
	if err != nil {
		p.Destroy()
		return fmt.Errorf("point cloud %q: %w", pc.name, err)
	}
	pc.program = p
	return nil
}

func (pc *PointCloud) sizeUniforms(ctx FrameContext) map[string]render.Value {
	u := transformUniforms(ctx)
	u["u_pointRadius"] = render.Float(pc.radius * ctx.LengthScale)
	u["u_viewportHeight"] = render.Float(ctx.ViewportHeight)
	return u
}

func (pc *PointCloud) Draw(ctx FrameContext) error {
	if err := pc.ensureProgram(); err != nil {
		return err
	}
	u := pc.sizeUniforms(ctx)
	u["u_baseColor"] = render.Vec3(pc.color)
	if q, ok := pc.current().(*ScalarQuantity); ok {
		for k, v := range q.uniforms() {
			u[k] = v
		}
	}
	if err := setUniforms(pc.program, u); err != nil {
		return err
	}
	return pc.program.Draw()
}

func (pc *PointCloud) DrawPick(ctx FrameContext) error {
	if pc.pickProgram == nil {
		p, err := pc.engine().NewShaderProgram(pc.name+"/pick", shaders.PickPoints(), render.DrawPoints, 0)
		if err != nil {
			return fmt.Errorf("point cloud %q: %w", pc.name, err)
		}
		colors := make([]mgl32.Vec3, len(pc.points))
		for i := range colors {
			colors[i] = pc.pickRange.Color(uint64(i))
		}
		err = p.SetAttribute("a_position", render.Vec3s(pc.points), false, 0, -1)
		if err == nil {
			err = p.SetAttribute("a_pickColor", render.Vec3s(colors), false, 0, -1)
		}
		if err != nil {
			p.Destroy()
			return err
		}
		pc.pickProgram = p
	}
	if err := setUniforms(pc.pickProgram, pc.sizeUniforms(ctx)); err != nil {
		return err
	}
	return pc.pickProgram.Draw()
}

// UpdatePoints moves the points in place; the count must not change.
func (pc *PointCloud) UpdatePoints(points []mgl32.Vec3) error {
	if len(points) != len(pc.points) {
		return fmt.Errorf("point cloud %q: got %d points, have %d", pc.name, len(points), len(pc.points))
	}
	copy(pc.points, points)
	pc.updateBounds()
	for _, p := range []*render.ShaderProgram{pc.program, pc.pickProgram} {
		if p == nil {
			continue
		}
		if err := p.SetAttribute("a_position", render.Vec3s(pc.points), true, 0, -1); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PointCloud) Destroy() {
	destroyProgram(&pc.program)
	destroyProgram(&pc.pickProgram)
}
