package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere generates a UV sphere with quad faces and triangle caps.
func Sphere(radius float32, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	m := &Mesh{Name: "sphere"}
	m.Positions = append(m.Positions, mgl32.Vec3{0, radius, 0})
	for ring := 1; ring < rings; ring++ {
		phi := float32(ring) * math32.Pi / float32(rings)
		for seg := 0; seg < segments; seg++ {
			theta := float32(seg) * 2 * math32.Pi / float32(segments)
			m.Positions = append(m.Positions, mgl32.Vec3{
				radius * math32.Sin(phi) * math32.Cos(theta),
				radius * math32.Cos(phi),
				radius * math32.Sin(phi) * math32.Sin(theta),
			})
		}
	}
	south := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mgl32.Vec3{0, -radius, 0})

	at := func(ring, seg int) uint32 {
		return uint32(1 + (ring-1)*segments + seg%segments)
	}
	for seg := 0; seg < segments; seg++ {
		m.Faces = append(m.Faces, []uint32{0, at(1, seg+1), at(1, seg)})
	}
	for ring := 1; ring < rings-1; ring++ {
		for seg := 0; seg < segments; seg++ {
			m.Faces = append(m.Faces, []uint32{at(ring, seg), at(ring, seg+1), at(ring+1, seg+1), at(ring+1, seg)})
		}
	}
	for seg := 0; seg < segments; seg++ {
		m.Faces = append(m.Faces, []uint32{south, at(rings-1, seg), at(rings-1, seg+1)})
	}
	return m
}

// Torus generates a torus around the Y axis with quad faces.
func Torus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	majorSegments = max(majorSegments, 3)
	minorSegments = max(minorSegments, 3)

	m := &Mesh{Name: "torus"}
	for i := 0; i < majorSegments; i++ {
		u := float32(i) * 2 * math32.Pi / float32(majorSegments)
		for j := 0; j < minorSegments; j++ {
			v := float32(j) * 2 * math32.Pi / float32(minorSegments)
			r := majorRadius + minorRadius*math32.Cos(v)
			m.Positions = append(m.Positions, mgl32.Vec3{
				r * math32.Cos(u),
				minorRadius * math32.Sin(v),
				r * math32.Sin(u),
			})
		}
	}
	at := func(i, j int) uint32 {
		return uint32((i%majorSegments)*minorSegments + j%minorSegments)
	}
	for i := 0; i < majorSegments; i++ {
		for j := 0; j < minorSegments; j++ {
			m.Faces = append(m.Faces, []uint32{at(i, j), at(i, j+1), at(i+1, j+1), at(i+1, j)})
		}
	}
	return m
}

// Plane generates a subdivided quad grid in the XZ plane centered at the
// origin.
func Plane(width, depth float32, subdivisions int) *Mesh {
	n := max(subdivisions, 1)
	m := &Mesh{Name: "plane"}
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			m.Positions = append(m.Positions, mgl32.Vec3{
				(float32(x)/float32(n) - 0.5) * width,
				0,
				(float32(z)/float32(n) - 0.5) * depth,
			})
		}
	}
	row := uint32(n + 1)
	for z := uint32(0); z < uint32(n); z++ {
		for x := uint32(0); x < uint32(n); x++ {
			i := z*row + x
			m.Faces = append(m.Faces, []uint32{i, i + row, i + row + 1, i + 1})
		}
	}
	return m
}
