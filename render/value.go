package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Value is a tagged uniform value. Build one with Int, Uint, Float, Double,
// Vec2, Vec3, Vec4 or Mat4.
type Value struct {
	typ DataType
	i   int32
	u   uint32
	f   [16]float32
}

func Int(v int32) Value     { return Value{typ: TypeInt, i: v} }
func Uint(v uint32) Value   { return Value{typ: TypeUInt, u: v} }
func Float(v float32) Value { return Value{typ: TypeFloat, f: [16]float32{v}} }

// Double keeps the value tagged as a double so a program can narrow it to
// float32 when it is assigned to a float uniform. Precision beyond float32
// is lost at that point.
func Double(v float64) Value {
	return Value{typ: TypeDouble, f: [16]float32{float32(v)}}
}

func Vec2(v mgl32.Vec2) Value {
	val := Value{typ: TypeVector2Float}
	copy(val.f[:], v[:])
	return val
}

func Vec3(v mgl32.Vec3) Value {
	val := Value{typ: TypeVector3Float}
	copy(val.f[:], v[:])
	return val
}

func Vec4(v mgl32.Vec4) Value {
	val := Value{typ: TypeVector4Float}
	copy(val.f[:], v[:])
	return val
}

// Float4 is shorthand for Vec4(mgl32.Vec4{x, y, z, w}).
func Float4(x, y, z, w float32) Value { return Vec4(mgl32.Vec4{x, y, z, w}) }

func Mat4(m mgl32.Mat4) Value {
	return Value{typ: TypeMatrix44Float, f: m}
}

// Type returns the tag of v.
func (v Value) Type() DataType { return v.typ }

func (v Value) AsInt() int32       { return v.i }
func (v Value) AsUint() uint32     { return v.u }
func (v Value) AsFloat() float32   { return v.f[0] }
func (v Value) AsVec2() mgl32.Vec2 { return mgl32.Vec2{v.f[0], v.f[1]} }
func (v Value) AsVec3() mgl32.Vec3 { return mgl32.Vec3{v.f[0], v.f[1], v.f[2]} }
func (v Value) AsVec4() mgl32.Vec4 { return mgl32.Vec4{v.f[0], v.f[1], v.f[2], v.f[3]} }
func (v Value) AsMat4() mgl32.Mat4 { return mgl32.Mat4(v.f) }

// Floats returns the float components of v; empty for integer values.
func (v Value) Floats() []float32 {
	switch v.typ {
	case TypeInt, TypeUInt:
		return nil
	}
	return v.f[:v.typ.Components()]
}

// convertTo returns v as a value of type want. Only exact matches and the
// double to float narrowing are allowed.
func (v Value) convertTo(want DataType) (Value, error) {
	if v.typ == want {
		return v, nil
	}
	if v.typ == TypeDouble && want == TypeFloat {
		return Value{typ: TypeFloat, f: [16]float32{v.f[0]}}, nil
	}
	return Value{}, fmt.Errorf("cannot assign %s value to %s", v.typ, want)
}

func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return fmt.Sprintf("int(%d)", v.i)
	case TypeUInt:
		return fmt.Sprintf("uint(%d)", v.u)
	}
	return fmt.Sprintf("%s%v", v.typ, v.Floats())
}

// AttributeData is a tagged per-vertex array. The backing slices are
// flattened: a Vec3s of N vectors holds 3N floats.
type AttributeData struct {
	typ    DataType
	floats []float32
	ints   []int32
	uints  []uint32
}

func Floats(v []float32) AttributeData { return AttributeData{typ: TypeFloat, floats: v} }

// Doubles narrows each element to float32.
func Doubles(v []float64) AttributeData {
	out := make([]float32, len(v))
	for i, d := range v {
		out[i] = float32(d)
	}
	return AttributeData{typ: TypeFloat, floats: out}
}

func Ints(v []int32) AttributeData   { return AttributeData{typ: TypeInt, ints: v} }
func Uints(v []uint32) AttributeData { return AttributeData{typ: TypeUInt, uints: v} }

func Vec2s(v []mgl32.Vec2) AttributeData {
	out := make([]float32, 0, 2*len(v))
	for _, e := range v {
		out = append(out, e[0], e[1])
	}
	return AttributeData{typ: TypeVector2Float, floats: out}
}

func Vec3s(v []mgl32.Vec3) AttributeData {
	out := make([]float32, 0, 3*len(v))
	for _, e := range v {
		out = append(out, e[0], e[1], e[2])
	}
	return AttributeData{typ: TypeVector3Float, floats: out}
}

func Vec4s(v []mgl32.Vec4) AttributeData {
	out := make([]float32, 0, 4*len(v))
	for _, e := range v {
		out = append(out, e[0], e[1], e[2], e[3])
	}
	return AttributeData{typ: TypeVector4Float, floats: out}
}

// Type returns the element type.
func (a AttributeData) Type() DataType { return a.typ }

// Len returns the number of elements (not scalars).
func (a AttributeData) Len() int {
	switch a.typ {
	case TypeInt:
		return len(a.ints)
	case TypeUInt:
		return len(a.uints)
	}
	return len(a.floats) / a.typ.Components()
}

func (a AttributeData) Float32s() []float32 { return a.floats }
func (a AttributeData) Int32s() []int32     { return a.ints }
func (a AttributeData) Uint32s() []uint32   { return a.uints }

// Slice returns elements [off, off+n) sharing the backing storage.
func (a AttributeData) Slice(off, n int) AttributeData {
	c := a.typ.Components()
	out := AttributeData{typ: a.typ}
	switch a.typ {
	case TypeInt:
		out.ints = a.ints[off : off+n]
	case TypeUInt:
		out.uints = a.uints[off : off+n]
	default:
		out.floats = a.floats[off*c : (off+n)*c]
	}
	return out
}

// IndexData is an index buffer in either triangle or flat layout.
type IndexData struct {
	indices   []uint32
	triangles bool
}

// TriangleIndices flattens triangle triples.
func TriangleIndices(tris [][3]uint32) IndexData {
	out := make([]uint32, 0, 3*len(tris))
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return IndexData{indices: out, triangles: true}
}

// FlatIndices is used for point and line primitives.
func FlatIndices(indices []uint32) IndexData {
	return IndexData{indices: indices}
}

func (d IndexData) Indices() []uint32 { return d.indices }
func (d IndexData) Triangles() bool   { return d.triangles }
func (d IndexData) Len() int          { return len(d.indices) }
