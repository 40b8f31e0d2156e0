// Package geometry builds and inspects polygon meshes on the CPU.
package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed polygon mesh. Faces may have any number of corners
// greater than two.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Faces     [][]uint32
}

// Validate reports the first degenerate face or out-of-range index.
func (m *Mesh) Validate() error {
	n := uint32(len(m.Positions))
	for f, face := range m.Faces {
		if len(face) < 3 {
			return fmt.Errorf("mesh %q: face %d has %d corners", m.Name, f, len(face))
		}
		for _, v := range face {
			if v >= n {
				return fmt.Errorf("mesh %q: face %d references vertex %d of %d", m.Name, f, v, n)
			}
		}
	}
	return nil
}

// Triangulate fans every face from its first corner.
func Triangulate(faces [][]uint32) [][3]uint32 {
	count := 0
	for _, f := range faces {
		count += max(len(f)-2, 0)
	}
	tris := make([][3]uint32, 0, count)
	for _, f := range faces {
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, [3]uint32{f[0], f[i], f[i+1]})
		}
	}
	return tris
}

// VertexNormals averages the area-weighted normals of adjacent triangles.
// Isolated vertices get +Y.
func VertexNormals(positions []mgl32.Vec3, tris [][3]uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for _, t := range tris {
		a, b, c := positions[t[0]], positions[t[1]], positions[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, v := range t {
			normals[v] = normals[v].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Len(); l > 1e-12 {
			normals[i] = n.Mul(1 / l)
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	return normals
}

// FaceNormal is the unit normal of triangle t.
func FaceNormal(positions []mgl32.Vec3, t [3]uint32) mgl32.Vec3 {
	a, b, c := positions[t[0]], positions[t[1]], positions[t[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-12 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// Bounds returns the axis-aligned box around positions. An empty slice
// yields a zero box.
func Bounds(positions []mgl32.Vec3) (lo, hi mgl32.Vec3) {
	if len(positions) == 0 {
		return lo, hi
	}
	lo, hi = positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], p[i])
			hi[i] = math32.Max(hi[i], p[i])
		}
	}
	return lo, hi
}

// LengthScale is the diagonal of the bounding box, or 1 for a degenerate
// box.
func LengthScale(positions []mgl32.Vec3) float32 {
	lo, hi := Bounds(positions)
	if d := hi.Sub(lo).Len(); d > 0 {
		return d
	}
	return 1
}
