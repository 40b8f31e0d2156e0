package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sciviz/geometry"
)

// SceneVersion is written into new scene files.
const SceneVersion = "1.0"

// Structure kinds in a scene file.
const (
	KindMesh   = "mesh"
	KindPoints = "points"
)

// SceneFile is the .sciviz.json format: a list of mesh files to show and
// how to show them.
type SceneFile struct {
	Version    string          `json:"version"`
	Name       string          `json:"name"`
	Camera     *CameraData     `json:"camera,omitempty"`
	Structures []StructureData `json:"structures"`

	// Matcaps adds materials from image files, relative to the scene file.
	Matcaps map[string]string `json:"matcaps,omitempty"`
}

// CameraData stores orbit camera state. A file without it frames the
// whole scene.
type CameraData struct {
	Target   [3]float32 `json:"target"`
	Distance float32    `json:"distance"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	FOV      float32    `json:"fov"` // degrees
}

// StructureData is one structure loaded from a mesh file.
type StructureData struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"` // "mesh" or "points"
	File     string      `json:"file"` // relative to the scene file
	Hidden   bool        `json:"hidden,omitempty"`
	Color    *[3]float32 `json:"color,omitempty"`
	Material string      `json:"material,omitempty"`
	Radius   float32     `json:"radius,omitempty"` // points only
	// ColorBy names a coordinate axis ("x", "y" or "z") shown as a scalar
	// quantity.
	ColorBy  string `json:"color_by,omitempty"`
	Colormap string `json:"colormap,omitempty"`
}

// Validate checks names are unique and every entry is complete.
func (s *SceneFile) Validate() error {
	for name, f := range s.Matcaps {
		if name == "" || f == "" {
			return fmt.Errorf("matcap %q: missing name or file", name)
		}
	}
	seen := make(map[string]bool, len(s.Structures))
	for i, st := range s.Structures {
		if st.Name == "" {
			return fmt.Errorf("structure %d: missing name", i)
		}
		if seen[st.Name] {
			return fmt.Errorf("structure %q: duplicate name", st.Name)
		}
		seen[st.Name] = true
		if st.Kind != KindMesh && st.Kind != KindPoints {
			return fmt.Errorf("structure %q: unknown kind %q", st.Name, st.Kind)
		}
		if st.File == "" {
			return fmt.Errorf("structure %q: missing file", st.Name)
		}
		if st.ColorBy != "" {
			if _, err := AxisIndex(st.ColorBy); err != nil {
				return fmt.Errorf("structure %q: %w", st.Name, err)
			}
		}
		if st.Radius < 0 {
			return fmt.Errorf("structure %q: negative radius", st.Name)
		}
	}
	return nil
}

// AxisIndex maps "x", "y" or "z" to 0, 1 or 2.
func AxisIndex(axis string) (int, error) {
	switch strings.ToLower(axis) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis %q", axis)
}

// SaveScene serializes scene data to a JSON file
func SaveScene(path string, scene *SceneFile) error {
	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadScene deserializes and validates a scene file. Relative structure
// files are resolved against the scene file's directory.
func LoadScene(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	scene := &SceneFile{}
	if err := json.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	resolve := func(f string) string {
		if filepath.IsAbs(f) {
			return f
		}
		return filepath.Join(dir, f)
	}
	for i := range scene.Structures {
		scene.Structures[i].File = resolve(scene.Structures[i].File)
	}
	for name, f := range scene.Matcaps {
		scene.Matcaps[name] = resolve(f)
	}
	return scene, nil
}

// NewSceneFile starts an empty scene.
func NewSceneFile(name string) *SceneFile {
	return &SceneFile{Version: SceneVersion, Name: name}
}

// ErrUnknownFormat is returned by LoadMesh for unrecognized extensions.
var ErrUnknownFormat = errors.New("unknown mesh format")

// LoadMesh reads a mesh file, choosing the format by extension.
func LoadMesh(path string) (*geometry.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}
