package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"sciviz/geometry"
)

// LoadGLTF reads a .gltf or .glb file and merges every triangle primitive
// reachable from the default scene into one mesh, with node transforms
// applied. Primitives in other modes are skipped.
func LoadGLTF(path string) (*geometry.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	m, err := meshFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf %s: %w", path, err)
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m, nil
}

func meshFromDocument(doc *gltf.Document) (*geometry.Mesh, error) {
	m := &geometry.Mesh{Name: "gltf"}

	var visit func(idx int, parent mgl32.Mat4) error
	visit = func(idx int, parent mgl32.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", idx)
		}
		n := doc.Nodes[idx]
		world := parent.Mul4(nodeTransform(n))
		if n.Mesh != nil {
			if *n.Mesh >= len(doc.Meshes) {
				return fmt.Errorf("node %d: mesh %d out of range", idx, *n.Mesh)
			}
			for pi, prim := range doc.Meshes[*n.Mesh].Primitives {
				if err := appendPrimitive(doc, m, prim, world); err != nil {
					return fmt.Errorf("mesh %d prim %d: %w", *n.Mesh, pi, err)
				}
			}
		}
		for _, c := range n.Children {
			if err := visit(c, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range rootNodes(doc) {
		if err := visit(root, mgl32.Ident4()); err != nil {
			return nil, err
		}
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("no triangle geometry")
	}
	return m, nil
}

// rootNodes returns the default scene's roots, or every parentless node
// when the document has no default scene.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeTransform(n *gltf.Node) mgl32.Mat4 {
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // x, y, z, w
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func appendPrimitive(doc *gltf.Document, m *geometry.Mesh, prim *gltf.Primitive, world mgl32.Mat4) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%d indices is not a whole number of triangles", len(indices))
	}

	base := uint32(len(m.Positions))
	for _, p := range positions {
		m.Positions = append(m.Positions, mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, world))
	}
	for i := 0; i < len(indices); i += 3 {
		for _, v := range indices[i : i+3] {
			if int(v) >= len(positions) {
				return fmt.Errorf("index %d out of range (have %d vertices)", v, len(positions))
			}
		}
		m.Faces = append(m.Faces, []uint32{base + indices[i], base + indices[i+1], base + indices[i+2]})
	}
	return nil
}
