package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var icoFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

func icoVertices() [12]mgl32.Vec3 {
	t := (1 + math32.Sqrt(5)) / 2
	v := [12]mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range v {
		v[i] = v[i].Normalize()
	}
	return v
}

// latticeKey names a subdivision point by its integer barycentric weights
// over original icosahedron vertices, sorted by vertex id. Points on a
// shared edge or corner get the same key from every face touching them.
type latticeKey struct {
	ids [3]int
	w   [3]int
}

func newLatticeKey(ids [3]int, w [3]int) latticeKey {
	// drop zero weights, then sort by id
	var k latticeKey
	n := 0
	for i := 0; i < 3; i++ {
		if w[i] == 0 {
			continue
		}
		k.ids[n], k.w[n] = ids[i], w[i]
		n++
	}
	for i := n; i < 3; i++ {
		k.ids[i] = -1
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && k.ids[j] < k.ids[j-1]; j-- {
			k.ids[j], k.ids[j-1] = k.ids[j-1], k.ids[j]
			k.w[j], k.w[j-1] = k.w[j-1], k.w[j]
		}
	}
	return k
}

// Icosphere subdivides a unit icosahedron with numAdditional extra points on
// every original edge, so each face becomes (numAdditional+1)² triangles.
// With project set the vertices are pushed onto the unit sphere; otherwise
// they stay on the flat faces. Shared vertices are emitted once.
func Icosphere(numAdditional int, project bool) (*Mesh, error) {
	if numAdditional < 0 {
		return nil, fmt.Errorf("icosphere: negative split count %d", numAdditional)
	}
	s := numAdditional + 1
	corners := icoVertices()

	m := &Mesh{
		Name:      fmt.Sprintf("icosphere-%d", numAdditional),
		Positions: make([]mgl32.Vec3, 0, 10*s*s+2),
		Faces:     make([][]uint32, 0, 20*s*s),
	}
	index := make(map[latticeKey]uint32, 10*s*s+2)
	vertex := func(f [3]int, i, j int) uint32 {
		key := newLatticeKey(f, [3]int{s - i - j, i, j})
		if v, ok := index[key]; ok {
			return v
		}
		a, b, c := corners[f[0]], corners[f[1]], corners[f[2]]
		p := a.Mul(float32(s-i-j) / float32(s)).
			Add(b.Mul(float32(i) / float32(s))).
			Add(c.Mul(float32(j) / float32(s)))
		if project {
			p = p.Normalize()
		}
		v := uint32(len(m.Positions))
		m.Positions = append(m.Positions, p)
		index[key] = v
		return v
	}

	for _, f := range icoFaces {
		for i := 0; i < s; i++ {
			for j := 0; i+j < s; j++ {
				a, b, c := vertex(f, i, j), vertex(f, i+1, j), vertex(f, i, j+1)
				m.Faces = append(m.Faces, []uint32{a, b, c})
				if i+j+1 < s {
					d := vertex(f, i+1, j+1)
					m.Faces = append(m.Faces, []uint32{b, d, c})
				}
			}
		}
	}
	return m, nil
}
