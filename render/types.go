package render

import "fmt"

// TextureFormat is the channel layout and bit depth of a texture or
// render buffer.
type TextureFormat int

const (
	FormatRGB8 TextureFormat = iota
	FormatRGBA8
	FormatRG16F
	FormatRGB16F
	FormatRGBA16F
	FormatRGBA32F
	FormatRGB32F
	FormatR32F
	FormatR16F
	FormatDepth24
)

var textureFormatNames = map[TextureFormat]string{
	FormatRGB8:    "RGB8",
	FormatRGBA8:   "RGBA8",
	FormatRG16F:   "RG16F",
	FormatRGB16F:  "RGB16F",
	FormatRGBA16F: "RGBA16F",
	FormatRGBA32F: "RGBA32F",
	FormatRGB32F:  "RGB32F",
	FormatR32F:    "R32F",
	FormatR16F:    "R16F",
	FormatDepth24: "Depth24",
}

func (f TextureFormat) String() string {
	if s, ok := textureFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// Valid reports whether f is a known format.
func (f TextureFormat) Valid() bool {
	_, ok := textureFormatNames[f]
	return ok
}

// Channels returns the number of components per texel.
func (f TextureFormat) Channels() int {
	switch f {
	case FormatR32F, FormatR16F, FormatDepth24:
		return 1
	case FormatRG16F:
		return 2
	case FormatRGB8, FormatRGB16F, FormatRGB32F:
		return 3
	default:
		return 4
	}
}

// IsFloat reports whether initial data for f is supplied as float32s.
func (f TextureFormat) IsFloat() bool {
	switch f {
	case FormatRGB8, FormatRGBA8:
		return false
	default:
		return true
	}
}

// IsDepth reports whether f can only be used as a depth attachment.
func (f TextureFormat) IsDepth() bool { return f == FormatDepth24 }

// FilterMode selects texture sampling behavior.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

func (m FilterMode) String() string {
	if m == FilterNearest {
		return "nearest"
	}
	return "linear"
}

// RenderBufferType tags what a render buffer stores.
type RenderBufferType int

const (
	RenderBufferColor RenderBufferType = iota
	RenderBufferColorAlpha
	RenderBufferDepth
	RenderBufferFloat4
)

func (t RenderBufferType) String() string {
	switch t {
	case RenderBufferColor:
		return "color"
	case RenderBufferColorAlpha:
		return "color-alpha"
	case RenderBufferDepth:
		return "depth"
	case RenderBufferFloat4:
		return "float4"
	}
	return fmt.Sprintf("RenderBufferType(%d)", int(t))
}

// IsDepth reports whether buffers of this type attach to the depth slot.
func (t RenderBufferType) IsDepth() bool { return t == RenderBufferDepth }

// DataType enumerates the element types uniforms and attributes can hold.
type DataType int

const (
	TypeInt DataType = iota
	TypeUInt
	TypeFloat
	// TypeDouble only ever appears on values; programs never declare it.
	// A Double value assigned to a Float uniform is narrowed to float32.
	TypeDouble
	TypeVector2Float
	TypeVector3Float
	TypeVector4Float
	TypeMatrix44Float
)

var dataTypeNames = map[DataType]string{
	TypeInt:           "int",
	TypeUInt:          "uint",
	TypeFloat:         "float",
	TypeDouble:        "double",
	TypeVector2Float:  "vec2",
	TypeVector3Float:  "vec3",
	TypeVector4Float:  "vec4",
	TypeMatrix44Float: "mat4",
}

func (t DataType) String() string {
	if s, ok := dataTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Components returns the number of scalars in one element of t.
func (t DataType) Components() int {
	switch t {
	case TypeVector2Float:
		return 2
	case TypeVector3Float:
		return 3
	case TypeVector4Float:
		return 4
	case TypeMatrix44Float:
		return 16
	default:
		return 1
	}
}

// DrawMode is the primitive layout a program draws with.
type DrawMode int

const (
	DrawPoints DrawMode = iota
	DrawLines
	DrawLineStrip
	DrawTriangles
	DrawTrianglesAdjacency
	DrawLinesAdjacency
	DrawIndexedLines
	DrawIndexedLineStrip
	DrawIndexedLineStripAdjacency
	DrawIndexedTriangles
	DrawIndexedTriangleStrip
	DrawPatches
)

var drawModeNames = map[DrawMode]string{
	DrawPoints:                    "points",
	DrawLines:                     "lines",
	DrawLineStrip:                 "line-strip",
	DrawTriangles:                 "triangles",
	DrawTrianglesAdjacency:        "triangles-adjacency",
	DrawLinesAdjacency:            "lines-adjacency",
	DrawIndexedLines:              "indexed-lines",
	DrawIndexedLineStrip:          "indexed-line-strip",
	DrawIndexedLineStripAdjacency: "indexed-line-strip-adjacency",
	DrawIndexedTriangles:          "indexed-triangles",
	DrawIndexedTriangleStrip:      "indexed-triangle-strip",
	DrawPatches:                   "patches",
}

func (m DrawMode) String() string {
	if s, ok := drawModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("DrawMode(%d)", int(m))
}

// Indexed reports whether m draws through an index buffer.
func (m DrawMode) Indexed() bool {
	switch m {
	case DrawIndexedLines, DrawIndexedLineStrip, DrawIndexedLineStripAdjacency,
		DrawIndexedTriangles, DrawIndexedTriangleStrip:
		return true
	}
	return false
}

// SupportsRestart reports whether a primitive restart index has any
// effect for m.
func (m DrawMode) SupportsRestart() bool {
	switch m {
	case DrawIndexedLineStrip, DrawIndexedLineStripAdjacency, DrawIndexedTriangleStrip:
		return true
	}
	return false
}

// ShaderStageType identifies a programmable pipeline stage.
type ShaderStageType int

const (
	StageVertex ShaderStageType = iota
	StageTessControl
	StageTessEvaluation
	StageGeometry
	StageFragment
)

func (s ShaderStageType) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageTessControl:
		return "tess-control"
	case StageTessEvaluation:
		return "tess-evaluation"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	}
	return fmt.Sprintf("ShaderStageType(%d)", int(s))
}

// DepthMode controls depth testing and writing.
type DepthMode int

const (
	DepthLess DepthMode = iota
	DepthLEqual
	DepthLEqualReadOnly
	DepthDisable
)

// BlendMode controls how fragments combine with the target.
type BlendMode int

const (
	BlendOver BlendMode = iota
	BlendAddWithAlpha
	BlendDisable
)

// ShaderSpecUniform declares a uniform a stage reads.
type ShaderSpecUniform struct {
	Name string
	Type DataType
}

// ShaderSpecAttribute declares a per-vertex input. ArrayCount > 1 declares
// an array-valued input such as `in vec3 a_corner[3]`.
type ShaderSpecAttribute struct {
	Name       string
	Type       DataType
	ArrayCount int
}

// ShaderSpecTexture declares a sampler of dimension 1 or 2.
type ShaderSpecTexture struct {
	Name string
	Dim  int
}

// ShaderStageSpecification is one stage's source plus the inputs it
// declares.
type ShaderStageSpecification struct {
	Stage      ShaderStageType
	Uniforms   []ShaderSpecUniform
	Attributes []ShaderSpecAttribute
	Textures   []ShaderSpecTexture
	Src        string
}
