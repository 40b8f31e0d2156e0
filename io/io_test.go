package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/geometry"
)

const quadOBJ = `# a quad and a triangle
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
g first
f 1/1/1 2/1/1 3/1/1 4/1/1
g second
f -4 -3 -1
`

func TestReadOBJ(t *testing.T) {
	m, err := ReadOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	assert.Len(t, m.Positions, 4)
	assert.Equal(t, [][]uint32{{0, 1, 2, 3}, {0, 1, 3}}, m.Faces)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Positions[2])
	require.NoError(t, m.Validate())
}

func TestReadOBJErrors(t *testing.T) {
	tests := map[string]string{
		"short vertex":   "v 1 2\n",
		"bad number":     "v 1 x 2\n",
		"short face":     "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"out of range":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"forward ref":    "f 1 2 3\nv 0 0 0\n",
		"bad face index": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 a 3\n",
		"no faces":       "v 0 0 0\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestOBJRoundTrip(t *testing.T) {
	src, err := geometry.Icosphere(1, true)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ico.obj")
	require.NoError(t, ExportOBJ(path, src))

	back, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, "ico", back.Name)
	assert.Equal(t, src.Faces, back.Faces)
	require.Len(t, back.Positions, len(src.Positions))
	for i := range src.Positions {
		assert.True(t, src.Positions[i].ApproxEqualThreshold(back.Positions[i], 1e-5))
	}
}

func TestWriteOBJHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, geometry.Plane(1, 1, 1)))
	assert.Contains(t, buf.String(), "o plane\n")
	assert.Contains(t, buf.String(), "f 1 3 4 2\n")
}

// triangleDoc holds one triangle on a node translated by +X.
func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float64{1, 0, 0}, Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Scale: [3]float64{2, 2, 2}},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestMeshFromDocumentAppliesTransforms(t *testing.T) {
	m, err := meshFromDocument(triangleDoc())
	require.NoError(t, err)
	require.Len(t, m.Positions, 3)
	assert.Equal(t, [][]uint32{{0, 1, 2}}, m.Faces)
	assert.True(t, m.Positions[0].ApproxEqual(mgl32.Vec3{1, 0, 0}))
	assert.True(t, m.Positions[1].ApproxEqual(mgl32.Vec3{3, 0, 0}))
	assert.True(t, m.Positions[2].ApproxEqual(mgl32.Vec3{1, 2, 0}))
}

func TestMeshFromDocumentWithoutGeometry(t *testing.T) {
	doc := gltf.NewDocument()
	_, err := meshFromDocument(doc)
	assert.Error(t, err)
}

func TestLoadGLTFBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(triangleDoc(), path))

	m, err := LoadGLTF(path)
	require.NoError(t, err)
	assert.Equal(t, "tri", m.Name)
	assert.Len(t, m.Faces, 1)
}

func TestSceneFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ico, err := geometry.Icosphere(0, true)
	require.NoError(t, err)
	require.NoError(t, ExportOBJ(filepath.Join(dir, "ico.obj"), ico))

	sf := NewSceneFile("demo")
	sf.Camera = &CameraData{Distance: 4, Pitch: 0.2, FOV: 45}
	sf.Matcaps = map[string]string{"jade": "mats/jade.png", "abs": "/srv/jade.png"}
	sf.Structures = []StructureData{
		{Name: "ico", Kind: KindMesh, File: "ico.obj", Material: "wax", ColorBy: "y"},
		{Name: "verts", Kind: KindPoints, File: "ico.obj", Radius: 0.01, Color: &[3]float32{1, 0, 0}},
	}
	path := filepath.Join(dir, "demo.sciviz.json")
	require.NoError(t, SaveScene(path, sf))

	back, err := LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, SceneVersion, back.Version)
	require.NotNil(t, back.Camera)
	assert.Equal(t, float32(4), back.Camera.Distance)
	require.Len(t, back.Structures, 2)
	assert.Equal(t, filepath.Join(dir, "ico.obj"), back.Structures[0].File, "resolved against the scene file")
	assert.Equal(t, &[3]float32{1, 0, 0}, back.Structures[1].Color)
	assert.Equal(t, filepath.Join(dir, "mats", "jade.png"), back.Matcaps["jade"])
	assert.Equal(t, "/srv/jade.png", back.Matcaps["abs"])

	m, err := LoadMesh(back.Structures[0].File)
	require.NoError(t, err)
	assert.Len(t, m.Faces, 20)
}

func TestSceneFileValidate(t *testing.T) {
	ok := StructureData{Name: "a", Kind: KindMesh, File: "a.obj"}
	for name, mutate := range map[string]func(*SceneFile){
		"missing name": func(s *SceneFile) { s.Structures[0].Name = "" },
		"duplicate":    func(s *SceneFile) { s.Structures = append(s.Structures, ok) },
		"bad kind":     func(s *SceneFile) { s.Structures[0].Kind = "volume" },
		"no file":      func(s *SceneFile) { s.Structures[0].File = "" },
		"bad axis":     func(s *SceneFile) { s.Structures[0].ColorBy = "w" },
		"radius":       func(s *SceneFile) { s.Structures[0].Radius = -1 },
		"matcap file":  func(s *SceneFile) { s.Matcaps = map[string]string{"jade": ""} },
	} {
		sf := NewSceneFile("x")
		sf.Structures = []StructureData{ok}
		require.NoError(t, sf.Validate())
		mutate(sf)
		assert.Error(t, sf.Validate(), name)
	}
}

func TestLoadMeshByExtension(t *testing.T) {
	_, err := LoadMesh("shape.stl")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	path := filepath.Join(t.TempDir(), "TRI.GLB")
	require.NoError(t, gltf.SaveBinary(triangleDoc(), path))
	m, err := LoadMesh(path)
	require.NoError(t, err)
	assert.Len(t, m.Faces, 1)

	axis, err := AxisIndex("Z")
	require.NoError(t, err)
	assert.Equal(t, 2, axis)
}
