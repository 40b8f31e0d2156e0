// Package rendertest provides an in-memory render.Device that records what
// the engine asks of it. Frame buffers hold a flat clear color plus any
// pixels set with SetPixel, which is enough to exercise read-back paths
// without a GPU.
package rendertest

import (
	"errors"
	"fmt"

	"sciviz/render"
)

type Texture struct {
	Desc       render.TextureDesc
	Generation int // bumped by every allocation, including resizes
	Bytes      []byte
	Floats     []float32
}

type RenderBuffer struct {
	Type          render.RenderBufferType
	Width, Height int
	Generation    int
}

type attachmentRef struct {
	texture      render.Handle
	renderBuffer render.Handle
}

func (a attachmentRef) empty() bool { return a.texture == 0 && a.renderBuffer == 0 }

type FrameBuffer struct {
	Color, Depth attachmentRef
	ClearColor   [4]float32
	ClearDepth   float32
	Clears       int
	pixels       map[[2]int][4]float32
}

type Program struct {
	Stages     []render.ShaderStageSpecification
	Uniforms   map[string]int32
	Attributes map[string]int32
}

type VertexBuffer struct {
	Program render.Handle
	Layout  render.VertexLayout
	Data    render.AttributeData
	Floats  []float32
	Ints    []int32
	Uints   []uint32
}

type IndexBuffer struct {
	Program render.Handle
	Indices []uint32
}

// Device is a fake render.Device. The exported fields may be set before
// handing it to render.NewEngine and inspected afterwards.
type Device struct {
	MaxTextureSize int
	// CompileError, when set, makes every NewProgram fail with it.
	CompileError error
	// OptimizedOut names inputs the "compiler" drops; their locations are -1.
	OptimizedOut map[string]bool
	// OnDraw, when set, sees every accepted draw while its target is bound.
	// Tests use it to stand in for rasterization via SetPixel.
	OnDraw func(call render.DrawCall)

	Textures      map[render.Handle]*Texture
	RenderBuffers map[render.Handle]*RenderBuffer
	FrameBuffers  map[render.Handle]*FrameBuffer
	Programs      map[render.Handle]*Program
	VertexBuffers map[render.Handle]*VertexBuffer
	IndexBuffers  map[render.Handle]*IndexBuffer

	Bound          render.Handle
	BoundWidth     int
	BoundHeight    int
	Binds          int
	Draws          []render.DrawCall
	DepthMode      render.DepthMode
	BlendMode      render.BlendMode
	BackfaceCull   bool
	Released       bool
	nextHandle     render.Handle
	nextGeneration int
}

// New returns an empty fake with a 4096 texel limit.
func New() *Device {
	d := &Device{
		MaxTextureSize: 4096,
		OptimizedOut:   make(map[string]bool),
		Textures:       make(map[render.Handle]*Texture),
		RenderBuffers:  make(map[render.Handle]*RenderBuffer),
		FrameBuffers:   make(map[render.Handle]*FrameBuffer),
		Programs:       make(map[render.Handle]*Program),
		VertexBuffers:  make(map[render.Handle]*VertexBuffer),
		IndexBuffers:   make(map[render.Handle]*IndexBuffer),
	}
	d.FrameBuffers[0] = &FrameBuffer{ClearDepth: 1}
	return d
}

func (d *Device) handle() render.Handle {
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) generation() int {
	d.nextGeneration++
	return d.nextGeneration
}

func (d *Device) Name() string { return "rendertest" }

func (d *Device) Caps() render.Caps { return render.Caps{MaxTextureSize: d.MaxTextureSize} }

func (d *Device) NewTexture(desc render.TextureDesc) (render.Handle, error) {
	h := d.handle()
	t := &Texture{Desc: desc, Generation: d.generation()}
	t.Bytes = append([]byte(nil), desc.Bytes...)
	t.Floats = append([]float32(nil), desc.Floats...)
	t.Desc.Bytes, t.Desc.Floats = nil, nil
	d.Textures[h] = t
	return h, nil
}

func (d *Device) ResizeTexture(h render.Handle, desc render.TextureDesc) error {
	t, ok := d.Textures[h]
	if !ok {
		return fmt.Errorf("rendertest: no texture %d", h)
	}
	t.Desc = desc
	t.Bytes, t.Floats = nil, nil
	t.Generation = d.generation()
	return nil
}

func (d *Device) SetTextureFilter(h render.Handle, mode render.FilterMode) {
	if t, ok := d.Textures[h]; ok {
		t.Desc.Filter = mode
	}
}

func (d *Device) DeleteTexture(h render.Handle) { delete(d.Textures, h) }

func (d *Device) NewRenderBuffer(typ render.RenderBufferType, width, height int) (render.Handle, error) {
	h := d.handle()
	d.RenderBuffers[h] = &RenderBuffer{Type: typ, Width: width, Height: height, Generation: d.generation()}
	return h, nil
}

func (d *Device) ResizeRenderBuffer(h render.Handle, typ render.RenderBufferType, width, height int) error {
	rb, ok := d.RenderBuffers[h]
	if !ok {
		return fmt.Errorf("rendertest: no render buffer %d", h)
	}
	rb.Type, rb.Width, rb.Height = typ, width, height
	rb.Generation = d.generation()
	return nil
}

func (d *Device) DeleteRenderBuffer(h render.Handle) { delete(d.RenderBuffers, h) }

func (d *Device) DisplayFrameBuffer() render.Handle { return 0 }

func (d *Device) NewFrameBuffer() (render.Handle, error) {
	h := d.handle()
	d.FrameBuffers[h] = &FrameBuffer{ClearDepth: 1}
	return h, nil
}

func (d *Device) AttachTexture(fb render.Handle, slot render.AttachmentSlot, tex render.Handle) {
	d.attach(fb, slot, attachmentRef{texture: tex})
}

func (d *Device) AttachRenderBuffer(fb render.Handle, slot render.AttachmentSlot, rb render.Handle) {
	d.attach(fb, slot, attachmentRef{renderBuffer: rb})
}

func (d *Device) attach(fb render.Handle, slot render.AttachmentSlot, a attachmentRef) {
	f, ok := d.FrameBuffers[fb]
	if !ok {
		return
	}
	if slot == render.SlotColor {
		f.Color = a
	} else {
		f.Depth = a
	}
}

func (d *Device) attachmentSize(a attachmentRef) (w, h int, depth bool, err error) {
	if a.texture != 0 {
		t, ok := d.Textures[a.texture]
		if !ok {
			return 0, 0, false, errors.New("missing texture attachment")
		}
		return t.Desc.Width, t.Desc.Height, t.Desc.Format.IsDepth(), nil
	}
	rb, ok := d.RenderBuffers[a.renderBuffer]
	if !ok {
		return 0, 0, false, errors.New("missing render buffer attachment")
	}
	return rb.Width, rb.Height, rb.Type.IsDepth(), nil
}

// CheckFrameBuffer mirrors the completeness rules of a real driver.
func (d *Device) CheckFrameBuffer(fb render.Handle) error {
	f, ok := d.FrameBuffers[fb]
	if !ok {
		return fmt.Errorf("rendertest: no frame buffer %d", fb)
	}
	if f.Color.empty() && f.Depth.empty() {
		return errors.New("incomplete: missing attachment")
	}
	var sizes [][2]int
	if !f.Color.empty() {
		w, h, depth, err := d.attachmentSize(f.Color)
		if err != nil {
			return err
		}
		if depth {
			return errors.New("incomplete: depth format in color slot")
		}
		sizes = append(sizes, [2]int{w, h})
	}
	if !f.Depth.empty() {
		w, h, depth, err := d.attachmentSize(f.Depth)
		if err != nil {
			return err
		}
		if !depth {
			return errors.New("incomplete: color format in depth slot")
		}
		sizes = append(sizes, [2]int{w, h})
	}
	if len(sizes) == 2 && sizes[0] != sizes[1] {
		return errors.New("incomplete: dimensions")
	}
	return nil
}

func (d *Device) BindFrameBuffer(fb render.Handle, width, height int) {
	d.Bound, d.BoundWidth, d.BoundHeight = fb, width, height
	d.Binds++
}

func (d *Device) ClearFrameBuffer(fb render.Handle, color [4]float32, depth float32) {
	f, ok := d.FrameBuffers[fb]
	if !ok {
		return
	}
	f.ClearColor, f.ClearDepth = color, depth
	f.pixels = nil
	f.Clears++
}

// SetPixel overrides one pixel until the next clear, standing in for
// whatever a draw would have written.
func (d *Device) SetPixel(fb render.Handle, x, y int, v [4]float32) {
	f, ok := d.FrameBuffers[fb]
	if !ok {
		return
	}
	if f.pixels == nil {
		f.pixels = make(map[[2]int][4]float32)
	}
	f.pixels[[2]int{x, y}] = v
}

func (d *Device) ReadPixel(fb render.Handle, x, y int) ([4]float32, error) {
	f, ok := d.FrameBuffers[fb]
	if !ok {
		return [4]float32{}, fmt.Errorf("rendertest: no frame buffer %d", fb)
	}
	if v, ok := f.pixels[[2]int{x, y}]; ok {
		return v, nil
	}
	return f.ClearColor, nil
}

func (d *Device) DeleteFrameBuffer(fb render.Handle) {
	if fb != 0 {
		delete(d.FrameBuffers, fb)
	}
}

func (d *Device) NewProgram(stages []render.ShaderStageSpecification) (render.Handle, error) {
	if d.CompileError != nil {
		return 0, d.CompileError
	}
	p := &Program{
		Stages:     stages,
		Uniforms:   make(map[string]int32),
		Attributes: make(map[string]int32),
	}
	var nextUniform, nextAttrib int32
	for _, st := range stages {
		for _, u := range st.Uniforms {
			if _, ok := p.Uniforms[u.Name]; !ok && !d.OptimizedOut[u.Name] {
				p.Uniforms[u.Name] = nextUniform
				nextUniform++
			}
		}
		for _, t := range st.Textures {
			if _, ok := p.Uniforms[t.Name]; !ok && !d.OptimizedOut[t.Name] {
				p.Uniforms[t.Name] = nextUniform
				nextUniform++
			}
		}
		if st.Stage != render.StageVertex {
			continue
		}
		for _, a := range st.Attributes {
			if _, ok := p.Attributes[a.Name]; !ok && !d.OptimizedOut[a.Name] {
				p.Attributes[a.Name] = nextAttrib
				n := int32(a.ArrayCount)
				if n < 1 {
					n = 1
				}
				nextAttrib += n
			}
		}
	}
	h := d.handle()
	d.Programs[h] = p
	return h, nil
}

func (d *Device) UniformLocation(prog render.Handle, name string) int32 {
	if p, ok := d.Programs[prog]; ok {
		if loc, ok := p.Uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) AttributeLocation(prog render.Handle, name string) int32 {
	if p, ok := d.Programs[prog]; ok {
		if loc, ok := p.Attributes[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) DeleteProgram(prog render.Handle) { delete(d.Programs, prog) }

func (d *Device) NewVertexBuffer(prog render.Handle, layout render.VertexLayout, data render.AttributeData) (render.Handle, error) {
	if _, ok := d.Programs[prog]; !ok {
		return 0, fmt.Errorf("rendertest: no program %d", prog)
	}
	h := d.handle()
	d.VertexBuffers[h] = &VertexBuffer{
		Program: prog,
		Layout:  layout,
		Data:    data,
		Floats:  append([]float32(nil), data.Float32s()...),
		Ints:    append([]int32(nil), data.Int32s()...),
		Uints:   append([]uint32(nil), data.Uint32s()...),
	}
	return h, nil
}

func (d *Device) UpdateVertexBuffer(buf render.Handle, layout render.VertexLayout, data render.AttributeData, offset int) error {
	vb, ok := d.VertexBuffers[buf]
	if !ok {
		return fmt.Errorf("rendertest: no vertex buffer %d", buf)
	}
	c := layout.Type.Components()
	switch layout.Type {
	case render.TypeInt:
		copy(vb.Ints[offset:], data.Int32s())
	case render.TypeUInt:
		copy(vb.Uints[offset:], data.Uint32s())
	default:
		copy(vb.Floats[offset*c:], data.Float32s())
	}
	return nil
}

func (d *Device) DeleteVertexBuffer(buf render.Handle) { delete(d.VertexBuffers, buf) }

func (d *Device) NewIndexBuffer(prog render.Handle, indices []uint32) (render.Handle, error) {
	if _, ok := d.Programs[prog]; !ok {
		return 0, fmt.Errorf("rendertest: no program %d", prog)
	}
	h := d.handle()
	d.IndexBuffers[h] = &IndexBuffer{Program: prog, Indices: append([]uint32(nil), indices...)}
	return h, nil
}

func (d *Device) DeleteIndexBuffer(buf render.Handle) { delete(d.IndexBuffers, buf) }

func (d *Device) Draw(call render.DrawCall) error {
	if _, ok := d.Programs[call.Program]; !ok {
		return fmt.Errorf("rendertest: draw with unknown program %d", call.Program)
	}
	for _, t := range call.Textures {
		if _, ok := d.Textures[t.Texture]; !ok {
			return fmt.Errorf("rendertest: sampler %q bound to missing texture %d", t.Name, t.Texture)
		}
	}
	d.Draws = append(d.Draws, call)
	if d.OnDraw != nil {
		d.OnDraw(call)
	}
	return nil
}

// LastDraw returns the most recent recorded draw.
func (d *Device) LastDraw() (render.DrawCall, bool) {
	if len(d.Draws) == 0 {
		return render.DrawCall{}, false
	}
	return d.Draws[len(d.Draws)-1], true
}

// BoundUniform finds name among the uniforms of call.
func BoundUniform(call render.DrawCall, name string) (render.Value, bool) {
	for _, u := range call.Uniforms {
		if u.Name == name {
			return u.Value, true
		}
	}
	return render.Value{}, false
}

func (d *Device) SetDepthMode(mode render.DepthMode) { d.DepthMode = mode }
func (d *Device) SetBlendMode(mode render.BlendMode) { d.BlendMode = mode }
func (d *Device) SetBackfaceCull(enabled bool)       { d.BackfaceCull = enabled }

func (d *Device) Release() { d.Released = true }

// Live counts backend objects not yet deleted, the display excluded.
func (d *Device) Live() int {
	return len(d.Textures) + len(d.RenderBuffers) + len(d.FrameBuffers) - 1 +
		len(d.Programs) + len(d.VertexBuffers) + len(d.IndexBuffers)
}

var _ render.Device = (*Device)(nil)
