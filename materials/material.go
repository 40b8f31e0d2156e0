package materials

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MatcapSize is the edge length of a baked matcap texture.
const MatcapSize = 128

// Material describes a lighting response that is baked into a matcap: a
// texture indexed by the view-space normal whose texels multiply the
// surface color.
type Material struct {
	Name string

	Ambient   float32
	Diffuse   float32
	Specular  float32 // highlight intensity
	Roughness float32 // 0 = tight highlight, 1 = broad
	Rim       float32 // brightening toward silhouettes

	// Tint colors the highlight; white keeps it neutral.
	Tint mgl32.Vec3
}

// NewMaterial returns a plain diffuse material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:      name,
		Ambient:   0.25,
		Diffuse:   0.75,
		Specular:  0,
		Roughness: 0.5,
		Tint:      mgl32.Vec3{1, 1, 1},
	}
}

// Clone creates a copy under another name.
func (m *Material) Clone(newName string) *Material {
	clone := *m
	clone.Name = newName
	return &clone
}

// ── Built-in library ─────────────────────────────────────────────────────────

// ClayMaterial is a soft matte response.
func ClayMaterial() *Material {
	m := NewMaterial("clay")
	m.Ambient = 0.3
	m.Diffuse = 0.7
	m.Specular = 0.08
	m.Roughness = 0.8
	return m
}

// WaxMaterial has a broad glossy highlight and a bright rim.
func WaxMaterial() *Material {
	m := NewMaterial("wax")
	m.Ambient = 0.35
	m.Diffuse = 0.6
	m.Specular = 0.35
	m.Roughness = 0.35
	m.Rim = 0.25
	m.Tint = mgl32.Vec3{1, 0.97, 0.9}
	return m
}

// FlatMaterial ignores the normal entirely.
func FlatMaterial() *Material {
	m := NewMaterial("flat")
	m.Ambient = 1
	m.Diffuse = 0
	return m
}

// MetalMaterial has a tight bright highlight over a dark body.
func MetalMaterial() *Material {
	m := NewMaterial("metal")
	m.Ambient = 0.15
	m.Diffuse = 0.45
	m.Specular = 0.9
	m.Roughness = 0.15
	m.Rim = 0.1
	return m
}

var builtins = map[string]func() *Material{
	"clay":  ClayMaterial,
	"wax":   WaxMaterial,
	"flat":  FlatMaterial,
	"metal": MetalMaterial,
}

// Names lists the built-in materials in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of a built-in material.
func Lookup(name string) (*Material, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown material %q (have %v)", name, Names())
	}
	return fn(), nil
}

// ── Baking ───────────────────────────────────────────────────────────────────

// light direction in view space: up, right and toward the viewer
var lightDir = mgl32.Vec3{0.4, 0.6, 0.7}.Normalize()

// Shade evaluates the material for a view-space normal. The viewer looks
// down -Z, so the view vector is +Z.
func (m *Material) Shade(n mgl32.Vec3) mgl32.Vec3 {
	view := mgl32.Vec3{0, 0, 1}
	ndotl := math32.Max(n.Dot(lightDir), 0)
	base := m.Ambient + m.Diffuse*ndotl

	half := lightDir.Add(view).Normalize()
	exponent := 2 + (1-m.Roughness)*(1-m.Roughness)*126
	spec := m.Specular * math32.Pow(math32.Max(n.Dot(half), 0), exponent)

	rim := m.Rim * math32.Pow(1-math32.Max(n.Dot(view), 0), 3)

	out := mgl32.Vec3{base, base, base}.Add(m.Tint.Mul(spec + rim))
	for i := range out {
		out[i] = math32.Min(out[i], 1)
	}
	return out
}

// Bake renders the matcap as size×size RGB8 texels, row 0 at the bottom
// as texture coordinates expect. Texels outside the unit disk reuse the
// silhouette normal.
func (m *Material) Bake(size int) []byte {
	data := make([]byte, 0, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			n := discNormal(x, y, size)
			for _, v := range m.Shade(n) {
				data = append(data, byte(math32.Round(v*255)))
			}
		}
	}
	return data
}

// discNormal inverts the lookup uv = n.xy*0.49 + 0.5 used by the shaders.
func discNormal(x, y, size int) mgl32.Vec3 {
	u := (float32(x)+0.5)/float32(size)*2 - 1
	v := (float32(y)+0.5)/float32(size)*2 - 1
	u, v = u/0.98, v/0.98
	r2 := u*u + v*v
	if r2 >= 1 {
		r := math32.Sqrt(r2)
		return mgl32.Vec3{u / r, v / r, 0}
	}
	return mgl32.Vec3{u, v, math32.Sqrt(1 - r2)}
}
