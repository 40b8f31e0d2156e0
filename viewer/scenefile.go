package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/geometry"
	meshio "sciviz/io"
	"sciviz/scene"
)

// AddSceneFile registers every structure sf lists and applies its camera.
// Mesh files are read once even when several structures share them.
// Structures registered before a failure stay registered.
func (v *Viewer) AddSceneFile(sf *meshio.SceneFile) error {
	for name, path := range sf.Matcaps {
		if err := v.reg.Materials().LoadMatcap(name, path); err != nil {
			return fmt.Errorf("scene %q: %w", sf.Name, err)
		}
	}
	meshes := make(map[string]*geometry.Mesh)
	for _, st := range sf.Structures {
		m, ok := meshes[st.File]
		if !ok {
			var err error
			if m, err = meshio.LoadMesh(st.File); err != nil {
				return err
			}
			meshes[st.File] = m
		}
		if err := v.addStructure(st, m); err != nil {
			return fmt.Errorf("scene %q: %w", sf.Name, err)
		}
	}

	if c := sf.Camera; c != nil {
		v.cam.Target = mgl32.Vec3(c.Target)
		v.cam.Yaw, v.cam.Pitch = c.Yaw, c.Pitch
		if c.Distance > 0 {
			v.cam.Distance = c.Distance
		}
		if c.FOV > 0 {
			v.cam.FOV = mgl32.DegToRad(c.FOV)
		}
	} else {
		v.FitCamera()
	}
	return nil
}

func (v *Viewer) addStructure(st meshio.StructureData, m *geometry.Mesh) error {
	var (
		s     scene.Structure
		addQ  func(name string, values []float64) (*scene.ScalarQuantity, error)
		color func(mgl32.Vec3)
		mat   func(string) error
	)
	switch st.Kind {
	case meshio.KindPoints:
		pc, err := v.reg.AddPointCloud(st.Name, m.Positions)
		if err != nil {
			return err
		}
		if st.Radius > 0 {
			if err := pc.SetRadius(st.Radius); err != nil {
				return err
			}
		}
		s, addQ, color, mat = pc, pc.AddScalarQuantity, pc.SetColor, pc.SetMaterial
	default:
		sm, err := v.reg.AddSurfaceMesh(st.Name, m.Positions, m.Faces)
		if err != nil {
			return err
		}
		s, addQ, color, mat = sm, sm.AddVertexScalarQuantity, sm.SetColor, sm.SetMaterial
	}

	s.SetEnabled(!st.Hidden)
	if st.Color != nil {
		color(mgl32.Vec3(*st.Color))
	}
	if st.Material != "" {
		if err := mat(st.Material); err != nil {
			return err
		}
	}
	if st.ColorBy == "" {
		return nil
	}

	axis, err := meshio.AxisIndex(st.ColorBy)
	if err != nil {
		return err
	}
	values := make([]float64, len(m.Positions))
	for i, p := range m.Positions {
		values[i] = float64(p[axis])
	}
	q, err := addQ(st.ColorBy, values)
	if err != nil {
		return err
	}
	if st.Colormap != "" {
		if err := q.SetColormap(st.Colormap); err != nil {
			return err
		}
	}
	q.SetEnabled(true)
	return nil
}
