package render

import (
	"errors"
	"fmt"
)

type shaderUniform struct {
	name     string
	typ      DataType
	location int32
	set      bool
	value    Value
}

type shaderAttribute struct {
	name       string
	typ        DataType
	arrayCount int
	location   int32
	buffer     Handle
	dataSize   int // elements currently stored, -1 when unallocated
}

type shaderTexture struct {
	name     string
	dim      int
	unit     int
	location int32
	buffer   *TextureBuffer
	owned    bool
}

// ShaderProgram is a compiled program plus the inputs its stages declared.
// Every declared uniform, attribute and texture must have data before Draw
// issues anything.
type ShaderProgram struct {
	engine        *Engine
	label         string
	handle        Handle
	mode          DrawMode
	patchVertices int

	uniforms   []*shaderUniform
	attributes []*shaderAttribute
	textures   []*shaderTexture
	byUniform  map[string]*shaderUniform
	byAttrib   map[string]*shaderAttribute
	byTexture  map[string]*shaderTexture

	index          Handle
	indexCount     int
	restart        bool
	restartIndex   uint32
	lastDrawErrMsg string
	dead           bool
}

// NewShaderProgram compiles stages into a program drawing with mode.
// patchVertices is only used by DrawPatches and must then be positive.
// label names the program in diagnostics.
func (e *Engine) NewShaderProgram(label string, stages []ShaderStageSpecification, mode DrawMode, patchVertices int) (*ShaderProgram, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("shader program %q: no stages", label)
	}
	if mode == DrawPatches && patchVertices <= 0 {
		return nil, fmt.Errorf("shader program %q: patches need a positive vertex count", label)
	}

	p := &ShaderProgram{
		engine:        e,
		label:         label,
		mode:          mode,
		patchVertices: patchVertices,
		byUniform:     make(map[string]*shaderUniform),
		byAttrib:      make(map[string]*shaderAttribute),
		byTexture:     make(map[string]*shaderTexture),
	}
	for _, st := range stages {
		for _, u := range st.Uniforms {
			if err := p.addUniqueUniform(u); err != nil {
				return nil, fmt.Errorf("shader program %q: %w", label, err)
			}
		}
		for _, a := range st.Attributes {
			if err := p.addUniqueAttribute(a); err != nil {
				return nil, fmt.Errorf("shader program %q: %w", label, err)
			}
		}
		for _, t := range st.Textures {
			if err := p.addUniqueTexture(t); err != nil {
				return nil, fmt.Errorf("shader program %q: %w", label, err)
			}
		}
	}

	h, err := e.dev.NewProgram(stages)
	if err != nil {
		return nil, fmt.Errorf("shader program %q: compile: %w", label, err)
	}
	p.handle = h
	p.setDataLocations()
	e.track(kindProgram, p)
	return p, nil
}

func (p *ShaderProgram) addUniqueUniform(u ShaderSpecUniform) error {
	if u.Type == TypeDouble {
		return fmt.Errorf("uniform %q: double uniforms are not supported", u.Name)
	}
	if prev, ok := p.byUniform[u.Name]; ok {
		if prev.typ != u.Type {
			return fmt.Errorf("uniform %q declared as both %s and %s", u.Name, prev.typ, u.Type)
		}
		return nil
	}
	su := &shaderUniform{name: u.Name, typ: u.Type, location: -1}
	p.uniforms = append(p.uniforms, su)
	p.byUniform[u.Name] = su
	return nil
}

func (p *ShaderProgram) addUniqueAttribute(a ShaderSpecAttribute) error {
	if a.Type == TypeDouble || a.Type == TypeMatrix44Float {
		return fmt.Errorf("attribute %q: %s attributes are not supported", a.Name, a.Type)
	}
	count := a.ArrayCount
	if count < 1 {
		count = 1
	}
	if prev, ok := p.byAttrib[a.Name]; ok {
		if prev.typ != a.Type || prev.arrayCount != count {
			return fmt.Errorf("attribute %q declared with conflicting layouts", a.Name)
		}
		return nil
	}
	sa := &shaderAttribute{name: a.Name, typ: a.Type, arrayCount: count, location: -1, dataSize: -1}
	p.attributes = append(p.attributes, sa)
	p.byAttrib[a.Name] = sa
	return nil
}

func (p *ShaderProgram) addUniqueTexture(t ShaderSpecTexture) error {
	if t.Dim != 1 && t.Dim != 2 {
		return fmt.Errorf("texture %q: unsupported dimension %d", t.Name, t.Dim)
	}
	if prev, ok := p.byTexture[t.Name]; ok {
		if prev.dim != t.Dim {
			return fmt.Errorf("texture %q declared as both %dD and %dD", t.Name, prev.dim, t.Dim)
		}
		return nil
	}
	st := &shaderTexture{name: t.Name, dim: t.Dim, unit: len(p.textures), location: -1}
	p.textures = append(p.textures, st)
	p.byTexture[t.Name] = st
	return nil
}

func (p *ShaderProgram) setDataLocations() {
	dev := p.engine.dev
	for _, u := range p.uniforms {
		u.location = dev.UniformLocation(p.handle, u.name)
		if u.location < 0 {
			p.engine.log.Debug("uniform unused by compiled program", "program", p.label, "name", u.name)
		}
	}
	for _, a := range p.attributes {
		a.location = dev.AttributeLocation(p.handle, a.name)
		if a.location < 0 {
			p.engine.log.Debug("attribute unused by compiled program", "program", p.label, "name", a.name)
		}
	}
	for _, t := range p.textures {
		t.location = dev.UniformLocation(p.handle, t.name)
	}
}

func (p *ShaderProgram) Label() string  { return p.label }
func (p *ShaderProgram) Mode() DrawMode { return p.mode }

func (p *ShaderProgram) HasUniform(name string) bool {
	_, ok := p.byUniform[name]
	return ok
}

func (p *ShaderProgram) HasAttribute(name string) bool {
	_, ok := p.byAttrib[name]
	return ok
}

func (p *ShaderProgram) HasTexture(name string) bool {
	_, ok := p.byTexture[name]
	return ok
}

// Uniform returns the value last assigned to name.
func (p *ShaderProgram) Uniform(name string) (Value, bool) {
	u, ok := p.byUniform[name]
	if !ok || !u.set {
		return Value{}, false
	}
	return u.value, true
}

// Texture returns the buffer bound to the sampler name.
func (p *ShaderProgram) Texture(name string) (*TextureBuffer, bool) {
	t, ok := p.byTexture[name]
	if !ok || t.buffer == nil {
		return nil, false
	}
	return t.buffer, true
}

func (p *ShaderProgram) reject(kind, name string, err error) error {
	p.engine.log.Warn("shader input rejected", "program", p.label, "kind", kind, "name", name, "err", err)
	return &BindingError{Program: p.label, Kind: kind, Name: name, Err: err}
}

// SetUniform assigns a uniform for subsequent draws. The value must have
// the declared type, except that a Double is accepted for a float uniform
// and narrowed to float32. A rejected call changes nothing.
func (p *ShaderProgram) SetUniform(name string, v Value) error {
	if p.dead {
		return p.reject("uniform", name, ErrDestroyed)
	}
	u, ok := p.byUniform[name]
	if !ok {
		return p.reject("uniform", name, errors.New("not declared"))
	}
	cv, err := v.convertTo(u.typ)
	if err != nil {
		return p.reject("uniform", name, err)
	}
	u.value = cv
	u.set = true
	return nil
}

// SetAttribute uploads per-vertex data. With update false a new buffer is
// allocated for all of data, and offset and size are only checked against
// its length. With update true the attribute must already be allocated and
// elements [offset, offset+size) of data overwrite the same range of the
// buffer. A negative size means "through the end of data".
func (p *ShaderProgram) SetAttribute(name string, data AttributeData, update bool, offset, size int) error {
	if p.dead {
		return p.reject("attribute", name, ErrDestroyed)
	}
	a, ok := p.byAttrib[name]
	if !ok {
		return p.reject("attribute", name, errors.New("not declared"))
	}
	if data.Type() != a.typ {
		return p.reject("attribute", name, fmt.Errorf("cannot assign %s data to %s attribute", data.Type(), a.typ))
	}
	n := data.Len()
	if size < 0 {
		size = n - offset
	}
	if offset < 0 || size < 0 || offset+size > n {
		return p.reject("attribute", name, fmt.Errorf("range [%d, %d) of %d elements: %w", offset, offset+size, n, ErrOutOfRange))
	}
	if n%a.arrayCount != 0 {
		return p.reject("attribute", name, fmt.Errorf("%d elements is not a multiple of array count %d", n, a.arrayCount))
	}

	layout := VertexLayout{Location: a.location, Type: a.typ, ArrayCount: a.arrayCount}
	dev := p.engine.dev

	if !update {
		if a.buffer != 0 {
			dev.DeleteVertexBuffer(a.buffer)
			a.buffer, a.dataSize = 0, -1
		}
		h, err := dev.NewVertexBuffer(p.handle, layout, data)
		if err != nil {
			return &AllocationError{Resource: fmt.Sprintf("attribute %q of %q", name, p.label), Reason: "vertex buffer", Err: err}
		}
		a.buffer, a.dataSize = h, n
		return nil
	}

	if a.buffer == 0 {
		return p.reject("attribute", name, ErrNotAllocated)
	}
	if offset+size > a.dataSize {
		return p.reject("attribute", name, fmt.Errorf("update [%d, %d) beyond %d allocated elements: %w", offset, offset+size, a.dataSize, ErrOutOfRange))
	}
	if size == 0 {
		return nil
	}
	if err := dev.UpdateVertexBuffer(a.buffer, layout, data.Slice(offset, size), offset); err != nil {
		return fmt.Errorf("update attribute %q of %q: %w", name, p.label, err)
	}
	return nil
}

// SetIndex replaces the index buffer. Triangle layout requires
// DrawIndexedTriangles.
func (p *ShaderProgram) SetIndex(d IndexData) error {
	if p.dead {
		return p.reject("index", "index", ErrDestroyed)
	}
	if !p.mode.Indexed() {
		return p.reject("index", "index", fmt.Errorf("draw mode %s is not indexed", p.mode))
	}
	if d.Triangles() && p.mode != DrawIndexedTriangles {
		return p.reject("index", "index", fmt.Errorf("triangle indices with draw mode %s", p.mode))
	}

	dev := p.engine.dev
	if p.index != 0 {
		dev.DeleteIndexBuffer(p.index)
		p.index, p.indexCount = 0, 0
	}
	h, err := dev.NewIndexBuffer(p.handle, d.Indices())
	if err != nil {
		return &AllocationError{Resource: fmt.Sprintf("index buffer of %q", p.label), Reason: "create", Err: err}
	}
	p.index, p.indexCount = h, d.Len()
	return nil
}

// SetPrimitiveRestartIndex marks value as the strip break in the index
// buffer for subsequent draws. It has no effect for modes without strips.
func (p *ShaderProgram) SetPrimitiveRestartIndex(value uint32) {
	if !p.mode.SupportsRestart() {
		p.engine.log.Warn("primitive restart has no effect", "program", p.label, "mode", p.mode)
	}
	p.restart = true
	p.restartIndex = value
}

func (p *ShaderProgram) textureSlot(name string, dim int) (*shaderTexture, error) {
	if p.dead {
		return nil, p.reject("texture", name, ErrDestroyed)
	}
	t, ok := p.byTexture[name]
	if !ok {
		return nil, p.reject("texture", name, errors.New("not declared"))
	}
	if t.dim != dim {
		return nil, p.reject("texture", name, fmt.Errorf("declared %dD, got %dD data", t.dim, dim))
	}
	return t, nil
}

// assignTexture binds buf to t. Rebinding the buffer t already owns keeps
// it owned.
func (p *ShaderProgram) assignTexture(t *shaderTexture, buf *TextureBuffer, owned bool) {
	if t.buffer == buf {
		t.owned = t.owned || owned
		return
	}
	if t.owned && t.buffer != nil {
		t.buffer.Destroy()
	}
	t.buffer = buf
	t.owned = owned
}

// SetTexture1D uploads RGB8 data into storage owned by the program.
func (p *ShaderProgram) SetTexture1D(name string, data []byte, length int) error {
	t, err := p.textureSlot(name, 1)
	if err != nil {
		return err
	}
	buf, err := p.engine.newTextureBuffer(TextureDesc{Format: FormatRGB8, Dim: 1, Width: length, Height: 1, Filter: FilterLinear}, data)
	if err != nil {
		return err
	}
	p.assignTexture(t, buf, true)
	return nil
}

// SetTexture2D uploads RGB8 or RGBA8 data into storage owned by the
// program.
func (p *ShaderProgram) SetTexture2D(name string, data []byte, width, height int, withAlpha, useMipMap, repeat bool) error {
	t, err := p.textureSlot(name, 2)
	if err != nil {
		return err
	}
	format := FormatRGB8
	if withAlpha {
		format = FormatRGBA8
	}
	desc := TextureDesc{
		Format: format, Dim: 2, Width: width, Height: height,
		Filter: FilterLinear, MipMap: useMipMap, Repeat: repeat,
	}
	buf, err := p.engine.newTextureBuffer(desc, data)
	if err != nil {
		return err
	}
	p.assignTexture(t, buf, true)
	return nil
}

// Colormap is a lookup table uploadable as a 1D RGB8 texture.
type Colormap interface {
	Name() string
	RGB8() (data []byte, length int)
}

// SetTextureFromColormap uploads cm into storage owned by the program.
func (p *ShaderProgram) SetTextureFromColormap(name string, cm Colormap) error {
	if cm == nil {
		return p.reject("texture", name, errors.New("nil colormap"))
	}
	data, n := cm.RGB8()
	if err := p.SetTexture1D(name, data, n); err != nil {
		return fmt.Errorf("colormap %q: %w", cm.Name(), err)
	}
	return nil
}

// SetTextureFromBuffer samples an externally owned buffer. Several programs
// may share one buffer; the owner must outlive them.
func (p *ShaderProgram) SetTextureFromBuffer(name string, buf *TextureBuffer) error {
	if buf == nil {
		return p.reject("texture", name, errors.New("nil buffer"))
	}
	t, err := p.textureSlot(name, buf.Dim())
	if err != nil {
		return err
	}
	p.assignTexture(t, buf, false)
	return nil
}

// VertexCount is the number of vertices attributes currently describe, or
// -1 when they disagree or none are set.
func (p *ShaderProgram) VertexCount() int {
	count := -1
	for _, a := range p.attributes {
		if a.dataSize < 0 {
			continue
		}
		n := a.dataSize / a.arrayCount
		if count >= 0 && n != count {
			return -1
		}
		count = n
	}
	return count
}

// ValidateData reports the first declared input without data.
func (p *ShaderProgram) ValidateData() error {
	if p.dead {
		return ErrDestroyed
	}
	invalid := func(kind, name, reason string) error {
		return &ValidationError{Program: p.label, Kind: kind, Name: name, Reason: reason}
	}

	count := -1
	for _, a := range p.attributes {
		if a.dataSize < 0 {
			return invalid("attribute", a.name, "has no data")
		}
		n := a.dataSize / a.arrayCount
		if count >= 0 && n != count {
			return invalid("attribute", a.name, fmt.Sprintf("has %d vertices, others have %d", n, count))
		}
		count = n
	}
	for _, u := range p.uniforms {
		if !u.set {
			return invalid("uniform", u.name, "is not set")
		}
	}
	for _, t := range p.textures {
		if t.buffer == nil {
			return invalid("texture", t.name, "is not set")
		}
		if t.buffer.dead {
			return invalid("texture", t.name, "was destroyed")
		}
	}
	if p.mode.Indexed() && p.index == 0 {
		return invalid("index", "index", "is not set")
	}
	if !p.mode.Indexed() && count < 0 {
		return invalid("attribute", "", "program declares no vertex data")
	}
	return nil
}

func (p *ShaderProgram) drawCount() int {
	if p.mode.Indexed() {
		return p.indexCount
	}
	return p.VertexCount()
}

// Draw validates the program and issues one backend draw. On validation
// failure nothing is drawn; the failure is logged once until it changes
// and returned.
func (p *ShaderProgram) Draw() error {
	if err := p.ValidateData(); err != nil {
		if msg := err.Error(); msg != p.lastDrawErrMsg {
			p.engine.log.Warn("draw skipped", "program", p.label, "err", err)
			p.lastDrawErrMsg = msg
		}
		return err
	}
	p.lastDrawErrMsg = ""

	call := DrawCall{
		Program:       p.handle,
		Mode:          p.mode,
		Count:         p.drawCount(),
		Indexed:       p.mode.Indexed(),
		PatchVertices: p.patchVertices,
		Uniforms:      make([]UniformBinding, 0, len(p.uniforms)),
		Textures:      make([]TextureBinding, 0, len(p.textures)),
	}
	if call.Count == 0 {
		return nil
	}
	if p.restart && p.mode.SupportsRestart() {
		call.Restart = true
		call.RestartIndex = p.restartIndex
	}
	for _, u := range p.uniforms {
		call.Uniforms = append(call.Uniforms, UniformBinding{Location: u.location, Name: u.name, Value: u.value})
	}
	for _, t := range p.textures {
		call.Textures = append(call.Textures, TextureBinding{
			Location: t.location, Name: t.name, Unit: t.unit, Dim: t.dim, Texture: t.buffer.handle,
		})
	}

	if err := p.engine.dev.Draw(call); err != nil {
		p.engine.log.Warn("backend draw failed", "program", p.label, "err", err)
		return fmt.Errorf("draw %q: %w", p.label, err)
	}
	return nil
}

// Destroy releases the program, its vertex and index buffers and textures
// it owns. Shared texture buffers are left alone.
func (p *ShaderProgram) Destroy() {
	if p.dead {
		return
	}
	dev := p.engine.dev
	for _, a := range p.attributes {
		if a.buffer != 0 {
			dev.DeleteVertexBuffer(a.buffer)
			a.buffer, a.dataSize = 0, -1
		}
	}
	if p.index != 0 {
		dev.DeleteIndexBuffer(p.index)
		p.index = 0
	}
	for _, t := range p.textures {
		if t.owned && t.buffer != nil {
			t.buffer.Destroy()
		}
		t.buffer = nil
	}
	dev.DeleteProgram(p.handle)
	p.engine.untrack(kindProgram, p)
	p.dead = true
}
