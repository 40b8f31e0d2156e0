package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIcosphereCounts(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		s := n + 1
		m, err := Icosphere(n, true)
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		assert.Len(t, m.Positions, 10*s*s+2, "splits=%d", n)
		assert.Len(t, m.Faces, 20*s*s, "splits=%d", n)
	}
	_, err := Icosphere(-1, true)
	assert.Error(t, err)
}

func TestIcosphereProjection(t *testing.T) {
	projected, err := Icosphere(3, true)
	require.NoError(t, err)
	for _, p := range projected.Positions {
		assert.InDelta(t, 1, p.Len(), 1e-5)
	}

	flat, err := Icosphere(3, false)
	require.NoError(t, err)
	inside := 0
	for _, p := range flat.Positions {
		assert.LessOrEqual(t, p.Len(), float32(1+1e-5))
		if p.Len() < 0.99 {
			inside++
		}
	}
	assert.NotZero(t, inside, "unprojected points stay on the faces")
}

// every edge of a closed manifold is shared by exactly two triangles
func TestIcosphereIsClosed(t *testing.T) {
	m, err := Icosphere(2, true)
	require.NoError(t, err)
	edges := map[[2]uint32]int{}
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if a > b {
				a, b = b, a
			}
			edges[[2]uint32{a, b}]++
		}
	}
	for e, n := range edges {
		assert.Equal(t, 2, n, "edge %v", e)
	}
	assert.Len(t, m.Positions, len(edges)-len(m.Faces)+2, "Euler characteristic")
}

func TestIcosphereFacesPointOutward(t *testing.T) {
	m, err := Icosphere(1, true)
	require.NoError(t, err)
	for _, tri := range Triangulate(m.Faces) {
		n := FaceNormal(m.Positions, tri)
		center := m.Positions[tri[0]].Add(m.Positions[tri[1]]).Add(m.Positions[tri[2]])
		assert.Greater(t, n.Dot(center), float32(0))
	}
}

func TestTriangulate(t *testing.T) {
	tris := Triangulate([][]uint32{{0, 1, 2}, {3, 4, 5, 6, 7}, {8, 9}})
	assert.Equal(t, [][3]uint32{
		{0, 1, 2},
		{3, 4, 5}, {3, 5, 6}, {3, 6, 7},
	}, tris)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		faces [][]uint32
		ok    bool
	}{
		{"good", [][]uint32{{0, 1, 2}}, true},
		{"short face", [][]uint32{{0, 1}}, false},
		{"out of range", [][]uint32{{0, 1, 3}}, false},
	}
	for _, tt := range tests {
		m := &Mesh{Name: tt.name, Positions: make([]mgl32.Vec3, 3), Faces: tt.faces}
		if tt.ok {
			assert.NoError(t, m.Validate(), tt.name)
		} else {
			assert.Error(t, m.Validate(), tt.name)
		}
	}
}

func TestVertexNormals(t *testing.T) {
	m := Plane(2, 2, 2)
	normals := VertexNormals(m.Positions, Triangulate(m.Faces))
	for _, n := range normals {
		assert.InDelta(t, 1, n.Y(), 1e-6)
	}

	iso := VertexNormals([]mgl32.Vec3{{0, 0, 0}}, nil)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, iso[0])
}

func TestBoundsAndLengthScale(t *testing.T) {
	lo, hi := Bounds([]mgl32.Vec3{{1, -2, 0}, {-1, 2, 3}})
	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, lo)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, hi)

	assert.Equal(t, float32(1), LengthScale(nil))
	assert.InDelta(t, 2*1.7320508, LengthScale([]mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}}), 1e-5)
}

func TestPrimitivesValidate(t *testing.T) {
	for _, m := range []*Mesh{Sphere(1, 8, 6), Torus(1, 0.25, 12, 6), Plane(1, 1, 3)} {
		require.NoError(t, m.Validate(), m.Name)
	}
	s := Sphere(2, 8, 6)
	for _, p := range s.Positions {
		assert.InDelta(t, 2, p.Len(), 1e-5)
	}
	assert.Len(t, Plane(1, 1, 3).Faces, 9)
}
