package viewer

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/config"
	"sciviz/geometry"
	meshio "sciviz/io"
	"sciviz/pick"
	"sciviz/render"
	"sciviz/render/rendertest"
	"sciviz/scene"
)

type countingPresenter struct{ n int }

func (p *countingPresenter) Present() { p.n++ }

func newTestViewer(t *testing.T, cfg config.Config) (*Viewer, *rendertest.Device) {
	t.Helper()
	e, dev := rendertest.NewEngine(t, 32, 24)
	v, err := New(e, cfg, 32, 24)
	require.NoError(t, err)
	t.Cleanup(v.Destroy)
	return v, dev
}

var (
	triPositions = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	triFaces     = [][]uint32{{0, 1, 2}, {1, 3, 2}}
)

func TestNewRejectsBadSettings(t *testing.T) {
	e, _ := rendertest.NewEngine(t, 8, 8)

	_, err := New(e, config.Default(), 0, 8)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Render.Material = "velvet"
	_, err = New(e, cfg, 8, 8)
	assert.Error(t, err)
}

func TestFrameBlitsSceneToDisplay(t *testing.T) {
	v, dev := newTestViewer(t, config.Default())
	_, err := v.Registry().AddSurfaceMesh("tris", triPositions, triFaces)
	require.NoError(t, err)
	v.FitCamera()

	var p countingPresenter
	stats, err := v.Frame(&p)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Drawn)
	assert.Equal(t, 1, p.n)

	// the last draw is the quad copy into the display
	call, ok := dev.LastDraw()
	require.True(t, ok)
	assert.Equal(t, 6, call.Count)
	require.Len(t, call.Textures, 1)
	assert.Equal(t, "t_image", call.Textures[0].Name)
	assert.Equal(t, render.FormatRGBA16F, dev.Textures[call.Textures[0].Texture].Desc.Format)
	assert.Equal(t, render.Handle(0), dev.Bound, "display bound after the frame")
	assert.Equal(t, render.DepthDisable, dev.DepthMode)

	u, _ := rendertest.BoundUniform(call, "u_exposure")
	assert.Equal(t, float32(1), u.AsFloat())
	require.NoError(t, v.SetExposure(2))
	_, err = v.Frame(nil)
	require.NoError(t, err)
	call, _ = dev.LastDraw()
	u, _ = rendertest.BoundUniform(call, "u_exposure")
	assert.Equal(t, float32(2), u.AsFloat())
	assert.Error(t, v.SetExposure(0))
}

func TestSceneTargetClearsToBackground(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Background.R = 0.25
	v, dev := newTestViewer(t, cfg)
	_, err := v.Frame(nil)
	require.NoError(t, err)

	px, err := v.scene.fb.ReadFloat4(1, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), px[0])
	assert.Positive(t, dev.FrameBuffers[0].Clears)
}

func TestResizeFollowsDisplay(t *testing.T) {
	v, dev := newTestViewer(t, config.Default())
	_, err := v.Frame(nil)
	require.NoError(t, err)
	call, _ := dev.LastDraw()
	sceneTex := dev.Textures[call.Textures[0].Texture]
	gen := sceneTex.Generation

	require.NoError(t, v.Resize(64, 32))
	w, h := v.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	assert.Equal(t, float32(2), v.Camera().AspectRatio)
	x, y := v.scene.color.Size()
	assert.Equal(t, 64, x)
	assert.Equal(t, 32, y)
	x, y = v.pick.color.Size()
	assert.Equal(t, 64, x)
	assert.Equal(t, 32, y)
	assert.Greater(t, sceneTex.Generation, gen)

	// minimized windows report zero
	require.NoError(t, v.Resize(0, 0))
	w, _ = v.Size()
	assert.Equal(t, 64, w)
}

func TestPickResolvesClickedFace(t *testing.T) {
	v, dev := newTestViewer(t, config.Default())
	m, err := v.Registry().AddSurfaceMesh("tris", triPositions, triFaces)
	require.NoError(t, err)
	_, err = v.Registry().AddPointCloud("pts", triPositions)
	require.NoError(t, err)
	v.FitCamera()

	// stand in for rasterizing face 1 of the mesh under the cursor
	c := pick.IndexToColor(2)
	dev.OnDraw = func(call render.DrawCall) {
		dev.SetPixel(dev.Bound, 5, 7, [4]float32{c[0], c[1], c[2], 1})
	}

	res, ok, err := v.Pick(5, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, m, res.Structure)
	assert.Equal(t, uint64(1), res.Element)
	last, ok := v.LastPick()
	require.True(t, ok)
	assert.Equal(t, res, last)
	assert.Equal(t, render.Handle(0), dev.Bound, "previous target restored")

	// elsewhere is background
	_, ok, err = v.Pick(0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok = v.LastPick()
	assert.False(t, ok)

	_, _, err = v.Pick(100, 0)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
}

func TestPickDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Pick.Enabled = false
	v, _ := newTestViewer(t, cfg)
	assert.Nil(t, v.pick)
	_, _, err := v.Pick(0, 0)
	assert.ErrorIs(t, err, ErrPickDisabled)
}

func TestDestroyReleasesViewerResources(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 16, 16)
	baseline := dev.Live()
	v, err := New(e, config.Default(), 16, 16)
	require.NoError(t, err)
	_, err = v.Registry().AddPointCloud("pts", triPositions)
	require.NoError(t, err)
	_, err = v.Frame(nil)
	require.NoError(t, err)
	_, _, err = v.Pick(1, 1)
	require.NoError(t, err)

	v.Destroy()
	assert.Equal(t, baseline, dev.Live())
	assert.Zero(t, e.LiveResources())
}

func TestOrbitControls(t *testing.T) {
	cam := scene.NewCamera(mgl32.Vec3{}, 4, 1, 1)
	oc := NewOrbitControls()
	yaw, pitch := cam.Yaw, cam.Pitch

	// the first pressed frame only anchors the drag
	oc.Update(cam, 10, 10, true, false)
	assert.Equal(t, yaw, cam.Yaw)
	oc.Update(cam, 20, 10, true, false)
	assert.InDelta(t, yaw-10*oc.RotateSpeed, cam.Yaw, 1e-6)
	assert.Equal(t, pitch, cam.Pitch)
	assert.False(t, oc.IsClick())

	oc.Update(cam, 20, 10, false, false)
	oc.Update(cam, 50, 50, true, false)
	oc.Update(cam, 51, 50, true, false)
	assert.True(t, oc.IsClick())

	target := cam.Target
	oc.Update(cam, 0, 0, false, false)
	oc.Update(cam, 0, 0, false, true)
	oc.Update(cam, 10, 0, false, true)
	assert.NotEqual(t, target, cam.Target)

	oc.Scroll(cam, 1)
	assert.InDelta(t, 4*oc.ZoomStep, cam.Distance, 1e-5)
	oc.Scroll(cam, -1)
	assert.InDelta(t, 4, cam.Distance, 1e-5)
}

func TestAddSceneFile(t *testing.T) {
	v, _ := newTestViewer(t, config.Default())
	dir := t.TempDir()
	ico, err := geometry.Icosphere(1, true)
	require.NoError(t, err)
	require.NoError(t, meshio.ExportOBJ(filepath.Join(dir, "ico.obj"), ico))

	f, err := os.Create(filepath.Join(dir, "jade.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	sf := meshio.NewSceneFile("demo")
	sf.Matcaps = map[string]string{"jade": "jade.png"}
	sf.Structures = []meshio.StructureData{
		{Name: "ico", Kind: meshio.KindMesh, File: "ico.obj", Material: "jade", ColorBy: "y", Colormap: "coolwarm"},
		{Name: "verts", Kind: meshio.KindPoints, File: "ico.obj", Radius: 0.02, Hidden: true, Color: &[3]float32{1, 0, 0}},
	}
	path := filepath.Join(dir, "demo.sciviz.json")
	require.NoError(t, meshio.SaveScene(path, sf))
	loaded, err := meshio.LoadScene(path)
	require.NoError(t, err)

	require.NoError(t, v.AddSceneFile(loaded))
	require.Equal(t, 2, v.Registry().Len())

	s, _ := v.Registry().Get("ico")
	mesh := s.(*scene.SurfaceMesh)
	assert.Equal(t, "jade", mesh.Material())
	q, ok := mesh.Quantity("y")
	require.True(t, ok)
	assert.True(t, q.Enabled())
	assert.Equal(t, "coolwarm", q.(*scene.ScalarQuantity).Colormap())

	s, _ = v.Registry().Get("verts")
	pc := s.(*scene.PointCloud)
	assert.False(t, pc.Enabled())
	assert.Equal(t, float32(0.02), pc.Radius())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, pc.Color())

	// no camera in the file: the camera frames the scene
	assert.InDelta(t, 0, v.Camera().Target.Len(), 1e-5)

	loaded.Structures = loaded.Structures[:1]
	assert.Error(t, v.AddSceneFile(loaded), "name taken")
}

func TestAddSceneFileCamera(t *testing.T) {
	v, _ := newTestViewer(t, config.Default())
	dir := t.TempDir()
	plane := geometry.Plane(2, 2, 1)
	require.NoError(t, meshio.ExportOBJ(filepath.Join(dir, "plane.obj"), plane))

	sf := meshio.NewSceneFile("cam")
	sf.Camera = &meshio.CameraData{Target: [3]float32{1, 2, 3}, Distance: 7, Yaw: 0.5, FOV: 90}
	sf.Structures = []meshio.StructureData{{Name: "plane", Kind: meshio.KindMesh, File: filepath.Join(dir, "plane.obj")}}
	require.NoError(t, v.AddSceneFile(sf))

	cam := v.Camera()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, cam.Target)
	assert.Equal(t, float32(7), cam.Distance)
	assert.Equal(t, float32(0.5), cam.Yaw)
	assert.InDelta(t, mgl32.DegToRad(90), cam.FOV, 1e-6)

	sf.Structures[0].File = filepath.Join(dir, "missing.obj")
	sf.Structures[0].Name = "missing"
	assert.Error(t, v.AddSceneFile(sf))
}
