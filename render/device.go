package render

// Handle is an opaque backend resource id. Zero means "no resource".
type Handle uint32

// AttachmentSlot is a frame buffer attachment point.
type AttachmentSlot int

const (
	SlotColor AttachmentSlot = iota
	SlotDepth
)

func (s AttachmentSlot) String() string {
	if s == SlotColor {
		return "color"
	}
	return "depth"
}

// Caps describes backend limits.
type Caps struct {
	MaxTextureSize int
}

// TextureDesc describes texture storage. Bytes is used for 8-bit formats
// and Floats for float formats; both nil leaves contents undefined.
type TextureDesc struct {
	Format TextureFormat
	Dim    int
	Width  int
	Height int
	Filter FilterMode
	MipMap bool
	Repeat bool
	Bytes  []byte
	Floats []float32
}

// VertexLayout places an attribute buffer at a program input location.
type VertexLayout struct {
	Location   int32
	Type       DataType
	ArrayCount int
}

// UniformBinding is a uniform value bound at draw time.
type UniformBinding struct {
	Location int32
	Name     string
	Value    Value
}

// TextureBinding binds a texture to a sampler unit at draw time.
type TextureBinding struct {
	Location int32
	Name     string
	Unit     int
	Dim      int
	Texture  Handle
}

// DrawCall is everything a backend needs to issue one draw.
type DrawCall struct {
	Program       Handle
	Mode          DrawMode
	Count         int
	Indexed       bool
	Restart       bool
	RestartIndex  uint32
	PatchVertices int
	Uniforms      []UniformBinding
	Textures      []TextureBinding
}

// Device is implemented by a graphics backend. Everything above it deals
// only in Handles and the enums of this package.
//
// All methods must be called from the goroutine that owns the graphics
// context.
type Device interface {
	Name() string
	Caps() Caps

	NewTexture(desc TextureDesc) (Handle, error)
	ResizeTexture(h Handle, desc TextureDesc) error
	SetTextureFilter(h Handle, mode FilterMode)
	DeleteTexture(h Handle)

	NewRenderBuffer(typ RenderBufferType, width, height int) (Handle, error)
	ResizeRenderBuffer(h Handle, typ RenderBufferType, width, height int) error
	DeleteRenderBuffer(h Handle)

	// DisplayFrameBuffer is the window's default target.
	DisplayFrameBuffer() Handle
	NewFrameBuffer() (Handle, error)
	AttachTexture(fb Handle, slot AttachmentSlot, tex Handle)
	AttachRenderBuffer(fb Handle, slot AttachmentSlot, rb Handle)
	// CheckFrameBuffer must leave the current binding unchanged.
	CheckFrameBuffer(fb Handle) error
	BindFrameBuffer(fb Handle, width, height int)
	ClearFrameBuffer(fb Handle, color [4]float32, depth float32)
	ReadPixel(fb Handle, x, y int) ([4]float32, error)
	DeleteFrameBuffer(fb Handle)

	NewProgram(stages []ShaderStageSpecification) (Handle, error)
	// UniformLocation and AttributeLocation return -1 when the compiled
	// program does not use the name.
	UniformLocation(prog Handle, name string) int32
	AttributeLocation(prog Handle, name string) int32
	DeleteProgram(prog Handle)

	NewVertexBuffer(prog Handle, layout VertexLayout, data AttributeData) (Handle, error)
	// UpdateVertexBuffer overwrites scalars starting at element offset.
	UpdateVertexBuffer(buf Handle, layout VertexLayout, data AttributeData, offset int) error
	DeleteVertexBuffer(buf Handle)
	NewIndexBuffer(prog Handle, indices []uint32) (Handle, error)
	DeleteIndexBuffer(buf Handle)

	Draw(call DrawCall) error

	SetDepthMode(mode DepthMode)
	SetBlendMode(mode BlendMode)
	SetBackfaceCull(enabled bool)

	Release()
}
