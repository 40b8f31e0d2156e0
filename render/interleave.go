package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ArrayElement lists the element types an array-valued attribute can hold.
type ArrayElement interface {
	float32 | float64 | int32 | uint32 | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4
}

// InterleaveArrays flattens per-vertex arrays of arrayCount entries into
// one slice, vertex-major then entry order. It touches no backend state.
func InterleaveArrays[T any](data [][]T, arrayCount int) ([]T, error) {
	if arrayCount < 1 {
		return nil, fmt.Errorf("interleave: array count %d", arrayCount)
	}
	out := make([]T, 0, len(data)*arrayCount)
	for i, row := range data {
		if len(row) != arrayCount {
			return nil, fmt.Errorf("interleave: vertex %d has %d entries, want %d", i, len(row), arrayCount)
		}
		out = append(out, row...)
	}
	return out, nil
}

func attributeDataOf[T ArrayElement](v []T) AttributeData {
	switch x := any(v).(type) {
	case []float32:
		return Floats(x)
	case []float64:
		return Doubles(x)
	case []int32:
		return Ints(x)
	case []uint32:
		return Uints(x)
	case []mgl32.Vec2:
		return Vec2s(x)
	case []mgl32.Vec3:
		return Vec3s(x)
	case []mgl32.Vec4:
		return Vec4s(x)
	}
	panic(fmt.Sprintf("render: unhandled array element %T", v))
}

// SetArrayAttribute sets an array-valued attribute such as
// `in vec3 a_corner[3]` from one row per vertex. offset and size count
// vertices and are scaled by the declared array count before forwarding to
// SetAttribute.
func SetArrayAttribute[T ArrayElement](p *ShaderProgram, name string, data [][]T, update bool, offset, size int) error {
	a, ok := p.byAttrib[name]
	if !ok {
		return p.reject("attribute", name, fmt.Errorf("not declared"))
	}
	flat, err := InterleaveArrays(data, a.arrayCount)
	if err != nil {
		return p.reject("attribute", name, err)
	}
	if size >= 0 {
		size *= a.arrayCount
	}
	return p.SetAttribute(name, attributeDataOf(flat), update, offset*a.arrayCount, size)
}
