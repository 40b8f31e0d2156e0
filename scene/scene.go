// Package scene holds the structures a viewer draws: surface meshes and
// point clouds with their quantities, the registry that owns them, and the
// orbit camera.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/colormap"
	"sciviz/geometry"
	"sciviz/materials"
	"sciviz/pick"
	"sciviz/render"
)

// Options are the defaults new structures start with.
type Options struct {
	Material     string
	Colormap     string
	PointRadius  float32 // fraction of the length scale
	EdgeWidth    float32
	SurfaceColor mgl32.Vec3
	PointColor   mgl32.Vec3
}

func DefaultOptions() Options {
	return Options{
		Material:     "clay",
		Colormap:     "viridis",
		PointRadius:  0.005,
		SurfaceColor: mgl32.Vec3{0.2, 0.5, 0.9},
		PointColor:   mgl32.Vec3{0.95, 0.55, 0.2},
	}
}

// Registry owns every structure by unique name, along with the resources
// they share: baked materials and the pick index space.
type Registry struct {
	engine    *render.Engine
	materials *materials.Library
	picks     *pick.Allocator
	opts      Options
	log       *slog.Logger

	structures map[string]Structure
	order      []string
}

func NewRegistry(e *render.Engine, opts Options) (*Registry, error) {
	if _, err := materials.Lookup(opts.Material); err != nil {
		return nil, err
	}
	if _, err := colormap.Get(opts.Colormap); err != nil {
		return nil, err
	}
	if opts.PointRadius <= 0 {
		return nil, fmt.Errorf("point radius %v must be positive", opts.PointRadius)
	}
	return &Registry{
		engine:     e,
		materials:  materials.NewLibrary(e),
		picks:      pick.NewAllocator(),
		opts:       opts,
		log:        e.Logger(),
		structures: make(map[string]Structure),
	}, nil
}

func (r *Registry) Engine() *render.Engine        { return r.engine }
func (r *Registry) Materials() *materials.Library { return r.materials }

func (r *Registry) register(s Structure) error {
	if _, ok := r.structures[s.Name()]; ok {
		s.Destroy()
		return fmt.Errorf("structure %q already registered", s.Name())
	}
	rng, err := r.picks.Request(s.Name(), max(s.PickCount(), 1))
	if err != nil {
		s.Destroy()
		return err
	}
	s.setPickRange(rng)
	r.structures[s.Name()] = s
	r.order = append(r.order, s.Name())
	r.log.Info("registered structure", "name", s.Name(), "type", s.TypeName(), "elements", s.PickCount())
	return nil
}

// AddSurfaceMesh registers a polygon mesh. Inputs are copied.
func (r *Registry) AddSurfaceMesh(name string, positions []mgl32.Vec3, faces [][]uint32) (*SurfaceMesh, error) {
	m, err := newSurfaceMesh(r, name, positions, faces)
	if err != nil {
		return nil, err
	}
	if err := r.register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// AddMesh registers g under its own name.
func (r *Registry) AddMesh(g *geometry.Mesh) (*SurfaceMesh, error) {
	return r.AddSurfaceMesh(g.Name, g.Positions, g.Faces)
}

// AddPointCloud registers a point cloud. Inputs are copied.
func (r *Registry) AddPointCloud(name string, points []mgl32.Vec3) (*PointCloud, error) {
	pc, err := newPointCloud(r, name, points)
	if err != nil {
		return nil, err
	}
	if err := r.register(pc); err != nil {
		return nil, err
	}
	return pc, nil
}

func (r *Registry) Get(name string) (Structure, bool) {
	s, ok := r.structures[name]
	return s, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Structures lists structures in registration order.
func (r *Registry) Structures() []Structure {
	out := make([]Structure, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.structures[n])
	}
	return out
}

// Remove destroys and forgets a structure. It reports whether it existed.
func (r *Registry) Remove(name string) bool {
	s, ok := r.structures[name]
	if !ok {
		return false
	}
	s.Destroy()
	r.picks.Release(name)
	delete(r.structures, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Info("removed structure", "name", name)
	return true
}

func (r *Registry) RemoveAll() {
	for len(r.order) > 0 {
		r.Remove(r.order[len(r.order)-1])
	}
}

// Destroy removes every structure and frees shared resources.
func (r *Registry) Destroy() {
	r.RemoveAll()
	r.materials.Destroy()
}

// Bounds is the box around all enabled structures; ok is false when there
// are none.
func (r *Registry) Bounds() (box AABB, ok bool) {
	for _, s := range r.Structures() {
		if !s.Enabled() {
			continue
		}
		if !ok {
			box, ok = s.Bounds(), true
			continue
		}
		box = box.Union(s.Bounds())
	}
	return box, ok
}

// LengthScale is the diagonal of Bounds, or 1 for an empty scene.
func (r *Registry) LengthScale() float32 {
	box, ok := r.Bounds()
	if !ok {
		return 1
	}
	return geometry.LengthScale([]mgl32.Vec3{box.Min, box.Max})
}

// FrameContext builds the per-frame state for cam.
func (r *Registry) FrameContext(cam *Camera, viewportHeight int) FrameContext {
	return FrameContext{
		View:           cam.ViewMatrix(),
		Projection:     cam.ProjectionMatrix(),
		ViewportHeight: float32(viewportHeight),
		LengthScale:    r.LengthScale(),
	}
}

// visible lists enabled structures whose bounds touch the view frustum.
func (r *Registry) visible(ctx FrameContext) []Structure {
	f := FrustumFromVP(ctx.Projection.Mul4(ctx.View))
	var out []Structure
	for _, s := range r.Structures() {
		if !s.Enabled() {
			continue
		}
		pad := ctx.LengthScale * 0.01
		if pc, ok := s.(*PointCloud); ok {
			pad += pc.radius * ctx.LengthScale
		}
		box := s.Bounds().Expand(pad)
		if !box.IntersectsFrustum(&f) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Drawers returns the scene pass for render.Engine.RenderFrame.
func (r *Registry) Drawers(ctx FrameContext) []render.Drawer {
	var out []render.Drawer
	for _, s := range r.visible(ctx) {
		out = append(out, render.DrawerFunc(func() error { return s.Draw(ctx) }))
	}
	return out
}

// PickDrawers returns the pick pass.
func (r *Registry) PickDrawers(ctx FrameContext) []render.Drawer {
	var out []render.Drawer
	for _, s := range r.visible(ctx) {
		out = append(out, render.DrawerFunc(func() error { return s.DrawPick(ctx) }))
	}
	return out
}

// PickResult is a resolved pick.
type PickResult struct {
	Structure Structure
	Element   uint64
}

func (p PickResult) String() string { return p.Structure.DescribePick(p.Element) }

// ResolvePick decodes a pixel read from the pick target.
func (r *Registry) ResolvePick(px [4]float32) (PickResult, bool) {
	res, ok := r.picks.ResolvePixel(px)
	if !ok {
		return PickResult{}, false
	}
	s, ok := r.structures[res.Owner]
	if !ok || res.Element >= s.PickCount() {
		return PickResult{}, false
	}
	return PickResult{Structure: s, Element: res.Element}, true
}
