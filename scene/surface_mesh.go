package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/geometry"
	"sciviz/pick"
	"sciviz/render"
	"sciviz/render/shaders"
)

// SurfaceMesh is a polygon mesh drawn as shaded triangles. Polygons are
// fan-triangulated; picking resolves to the original polygon.
type SurfaceMesh struct {
	structureBase
	quantitySet

	positions []mgl32.Vec3
	faces     [][]uint32
	tris      [][3]uint32
	triFace   []uint32
	// hidden[t][c] marks the edge opposite corner c of triangle t as an
	// interior diagonal of its polygon.
	hidden  [][3]bool
	normals []mgl32.Vec3
	bounds  AABB

	color     mgl32.Vec3
	edgeColor mgl32.Vec3
	edgeWidth float32
	material  string

	program     *render.ShaderProgram
	pickProgram *render.ShaderProgram
}

func newSurfaceMesh(reg *Registry, name string, positions []mgl32.Vec3, faces [][]uint32) (*SurfaceMesh, error) {
	g := &geometry.Mesh{Name: name, Positions: positions, Faces: faces}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("mesh %q has no faces", name)
	}

	m := &SurfaceMesh{
		structureBase: structureBase{reg: reg, name: name, enabled: true},
		positions:     append([]mgl32.Vec3(nil), positions...),
		faces:         make([][]uint32, len(faces)),
		color:         reg.opts.SurfaceColor,
		edgeColor:     mgl32.Vec3{0, 0, 0},
		edgeWidth:     reg.opts.EdgeWidth,
		material:      reg.opts.Material,
	}
	m.quantitySet = newQuantitySet(m.invalidate)

	for f, face := range faces {
		m.faces[f] = append([]uint32(nil), face...)
		k := len(face)
		for i := 1; i+1 < k; i++ {
			m.tris = append(m.tris, [3]uint32{face[0], face[i], face[i+1]})
			m.triFace = append(m.triFace, uint32(f))
			m.hidden = append(m.hidden, [3]bool{false, i+1 != k-1, i != 1})
		}
	}
	m.updateGeometry()
	return m, nil
}

func (m *SurfaceMesh) updateGeometry() {
	m.normals = geometry.VertexNormals(m.positions, m.tris)
	lo, hi := geometry.Bounds(m.positions)
	m.bounds = AABB{Min: lo, Max: hi}
}

func (m *SurfaceMesh) TypeName() string { return "Surface Mesh" }
func (m *SurfaceMesh) Bounds() AABB     { return m.bounds }

func (m *SurfaceMesh) NumVertices() int  { return len(m.positions) }
func (m *SurfaceMesh) NumFaces() int     { return len(m.faces) }
func (m *SurfaceMesh) NumTriangles() int { return len(m.tris) }

func (m *SurfaceMesh) PickCount() uint64 { return uint64(len(m.faces)) }

func (m *SurfaceMesh) DescribePick(element uint64) string {
	if element >= uint64(len(m.faces)) {
		return fmt.Sprintf("%s: invalid element %d", m.name, element)
	}
	return fmt.Sprintf("%s: face %d (%d vertices)", m.name, element, len(m.faces[element]))
}

func (m *SurfaceMesh) setPickRange(r pick.Range) {
	m.pickRange = r
	destroyProgram(&m.pickProgram)
}

// ── Appearance ───────────────────────────────────────────────────────────────

func (m *SurfaceMesh) Color() mgl32.Vec3         { return m.color }
func (m *SurfaceMesh) SetColor(c mgl32.Vec3)     { m.color = c }
func (m *SurfaceMesh) EdgeColor() mgl32.Vec3     { return m.edgeColor }
func (m *SurfaceMesh) SetEdgeColor(c mgl32.Vec3) { m.edgeColor = c }
func (m *SurfaceMesh) EdgeWidth() float32        { return m.edgeWidth }

// SetEdgeWidth sets the wireframe width; 0 hides edges.
func (m *SurfaceMesh) SetEdgeWidth(w float32) { m.edgeWidth = max(w, 0) }

func (m *SurfaceMesh) Material() string { return m.material }

// SetMaterial switches the matcap. Unknown names are rejected.
func (m *SurfaceMesh) SetMaterial(name string) error {
	if _, err := m.reg.materials.Texture(name); err != nil {
		return err
	}
	m.material = name
	if m.program != nil {
		return m.reg.materials.Bind(m.program, "t_matcap", name)
	}
	return nil
}

// ── Quantities ───────────────────────────────────────────────────────────────

func (m *SurfaceMesh) AddVertexScalarQuantity(name string, values []float64) (*ScalarQuantity, error) {
	if len(values) != len(m.positions) {
		return nil, fmt.Errorf("mesh %q: scalar %q has %d values for %d vertices", m.name, name, len(values), len(m.positions))
	}
	q, err := newScalarQuantity(m, name, OnVertices, values, m.reg.opts.Colormap)
	if err != nil {
		return nil, err
	}
	m.add(q)
	return q, nil
}

func (m *SurfaceMesh) AddFaceScalarQuantity(name string, values []float64) (*ScalarQuantity, error) {
	if len(values) != len(m.faces) {
		return nil, fmt.Errorf("mesh %q: scalar %q has %d values for %d faces", m.name, name, len(values), len(m.faces))
	}
	q, err := newScalarQuantity(m, name, OnFaces, values, m.reg.opts.Colormap)
	if err != nil {
		return nil, err
	}
	m.add(q)
	return q, nil
}

func (m *SurfaceMesh) AddVertexColorQuantity(name string, colors []mgl32.Vec3) (*ColorQuantity, error) {
	if len(colors) != len(m.positions) {
		return nil, fmt.Errorf("mesh %q: color %q has %d values for %d vertices", m.name, name, len(colors), len(m.positions))
	}
	q := &ColorQuantity{
		quantityBase: quantityBase{host: m, name: name, definedOn: OnVertices},
		colors:       append([]mgl32.Vec3(nil), colors...),
	}
	m.add(q)
	return q, nil
}

func (m *SurfaceMesh) AddFaceColorQuantity(name string, colors []mgl32.Vec3) (*ColorQuantity, error) {
	if len(colors) != len(m.faces) {
		return nil, fmt.Errorf("mesh %q: color %q has %d values for %d faces", m.name, name, len(colors), len(m.faces))
	}
	q := &ColorQuantity{
		quantityBase: quantityBase{host: m, name: name, definedOn: OnFaces},
		colors:       append([]mgl32.Vec3(nil), colors...),
	}
	m.add(q)
	return q, nil
}

// ── Per-corner data ──────────────────────────────────────────────────────────

// expandCorners gathers one value per triangle corner. Vertex data is
// indexed by corner vertex, face data by the triangle's polygon.
func expandCorners[T any](m *SurfaceMesh, values []T, on string) []T {
	out := make([]T, 0, 3*len(m.tris))
	for t, tri := range m.tris {
		for _, v := range tri {
			if on == OnFaces {
				out = append(out, values[m.triFace[t]])
			} else {
				out = append(out, values[v])
			}
		}
	}
	return out
}

func (m *SurfaceMesh) cornerBarycoords() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, 3*len(m.tris))
	for t := range m.tris {
		for c := 0; c < 3; c++ {
			var b mgl32.Vec3
			b[c] = 1
			for opp := 0; opp < 3; opp++ {
				if m.hidden[t][opp] {
					b[opp] = 1
				}
			}
			out = append(out, b)
		}
	}
	return out
}

func (m *SurfaceMesh) cornerPickColors() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, 3*len(m.tris))
	for t := range m.tris {
		c := m.pickRange.Color(uint64(m.triFace[t]))
		out = append(out, c, c, c)
	}
	return out
}

// ── Programs ─────────────────────────────────────────────────────────────────

func (m *SurfaceMesh) invalidate() { destroyProgram(&m.program) }

func (m *SurfaceMesh) ensureProgram() error {
	if m.program != nil {
		return nil
	}
	q := m.current()
	stages := shaders.MeshSurface()
	label := m.name
	switch q.(type) {
	case *ScalarQuantity:
		stages = shaders.MeshScalar()
		label += "/" + q.Name()
	case *ColorQuantity:
		stages = shaders.MeshColor()
		label += "/" + q.Name()
	}

	p, err := m.engine().NewShaderProgram(label, stages, render.DrawTriangles, 0)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.name, err)
	}
	if err := m.fillProgram(p, q); err != nil {
		p.Destroy()
		return fmt.Errorf("mesh %q: %w", m.name, err)
	}
	m.program = p
	return nil
}

func (m *SurfaceMesh) fillProgram(p *render.ShaderProgram, q Quantity) error {
	attrs := map[string]render.AttributeData{
		"a_position":  render.Vec3s(expandCorners(m, m.positions, OnVertices)),
		"a_normal":    render.Vec3s(expandCorners(m, m.normals, OnVertices)),
		"a_barycoord": render.Vec3s(m.cornerBarycoords()),
	}
	switch q := q.(type) {
	case *ScalarQuantity:
		attrs["a_value"] = render.Floats(expandCorners(m, q.values, q.definedOn))
		if err := q.bind(p); err != nil {
			return err
		}
	case *ColorQuantity:
		attrs["a_color"] = render.Vec3s(expandCorners(m, q.colors, q.definedOn))
	}
	for name, data := range attrs {
		if err := p.SetAttribute(name, data, false, 0, -1); err != nil {
			return err
		}
	}
	return m.reg.materials.Bind(p, "t_matcap", m.material)
}

func (m *SurfaceMesh) ensurePickProgram() error {
	if m.pickProgram != nil {
		return nil
	}
	p, err := m.engine().NewShaderProgram(m.name+"/pick", shaders.PickMesh(), render.DrawTriangles, 0)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.name, err)
	}
	if err := p.SetAttribute("a_position", render.Vec3s(expandCorners(m, m.positions, OnVertices)), false, 0, -1); err != nil {
		p.Destroy()
		return err
	}
	if err := p.SetAttribute("a_pickColor", render.Vec3s(m.cornerPickColors()), false, 0, -1); err != nil {
		p.Destroy()
		return err
	}
	m.pickProgram = p
	return nil
}

func (m *SurfaceMesh) Draw(ctx FrameContext) error {
	if err := m.ensureProgram(); err != nil {
		return err
	}
	u := transformUniforms(ctx)
	u["u_baseColor"] = render.Vec3(m.color)
	u["u_edgeColor"] = render.Vec3(m.edgeColor)
	u["u_edgeWidth"] = render.Float(m.edgeWidth)
	if q, ok := m.current().(*ScalarQuantity); ok {
		for k, v := range q.uniforms() {
			u[k] = v
		}
	}
	if err := setUniforms(m.program, u); err != nil {
		return err
	}
	return m.program.Draw()
}

func (m *SurfaceMesh) DrawPick(ctx FrameContext) error {
	if err := m.ensurePickProgram(); err != nil {
		return err
	}
	if err := setUniforms(m.pickProgram, transformUniforms(ctx)); err != nil {
		return err
	}
	return m.pickProgram.Draw()
}

// UpdateVertexPositions moves the vertices in place. The vertex count must
// not change; existing GPU buffers are overwritten rather than reallocated.
func (m *SurfaceMesh) UpdateVertexPositions(positions []mgl32.Vec3) error {
	if len(positions) != len(m.positions) {
		return fmt.Errorf("mesh %q: got %d positions for %d vertices", m.name, len(positions), len(m.positions))
	}
	copy(m.positions, positions)
	m.updateGeometry()

	corners := render.Vec3s(expandCorners(m, m.positions, OnVertices))
	if m.program != nil {
		if err := m.program.SetAttribute("a_position", corners, true, 0, -1); err != nil {
			return err
		}
		normals := render.Vec3s(expandCorners(m, m.normals, OnVertices))
		if err := m.program.SetAttribute("a_normal", normals, true, 0, -1); err != nil {
			return err
		}
	}
	if m.pickProgram != nil {
		if err := m.pickProgram.SetAttribute("a_position", corners, true, 0, -1); err != nil {
			return err
		}
	}
	return nil
}

func (m *SurfaceMesh) Destroy() {
	destroyProgram(&m.program)
	destroyProgram(&m.pickProgram)
}
