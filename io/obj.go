package io

import (
	"bufio"
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/geometry"
)

// LoadOBJ reads vertex positions and polygon faces from a Wavefront .obj
// file. Texture coordinates, normals, groups and materials are ignored;
// all groups merge into one mesh.
func LoadOBJ(path string) (*geometry.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	m, err := ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("obj %s: %w", path, err)
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m, nil
}

// ReadOBJ parses OBJ text from r.
func ReadOBJ(r stdio.Reader) (*geometry.Mesh, error) {
	m := &geometry.Mesh{Name: "obj"}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "v":
			if len(parts) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var p mgl32.Vec3
			for i := range p {
				x, err := strconv.ParseFloat(parts[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				p[i] = float32(x)
			}
			m.Positions = append(m.Positions, p)

		case "f":
			if len(parts) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			face := make([]uint32, 0, len(parts)-1)
			for _, spec := range parts[1:] {
				idx, err := faceIndex(spec, len(m.Positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				face = append(face, idx)
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("no faces")
	}
	return m, nil
}

// faceIndex resolves the position part of "v/vt/vn" to a zero-based index.
// Negative indices count back from the last vertex read so far.
func faceIndex(spec string, count int) (uint32, error) {
	pos, _, _ := strings.Cut(spec, "/")
	idx, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("face vertex %q: %w", spec, err)
	}
	if idx < 0 {
		idx = count + idx + 1
	}
	if idx <= 0 || idx > count {
		return 0, fmt.Errorf("face vertex %q out of range (have %d vertices)", spec, count)
	}
	return uint32(idx - 1), nil
}

// WriteOBJ writes positions and faces as OBJ text.
func WriteOBJ(w stdio.Writer, m *geometry.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s: %d vertices, %d faces\n", m.Name, len(m.Positions), len(m.Faces))
	fmt.Fprintf(bw, "o %s\n", m.Name)
	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, v := range f {
			fmt.Fprintf(bw, " %d", v+1)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// ExportOBJ writes m to path.
func ExportOBJ(path string, m *geometry.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create obj: %w", err)
	}
	if err := WriteOBJ(f, m); err != nil {
		f.Close()
		return fmt.Errorf("write obj: %w", err)
	}
	return f.Close()
}
