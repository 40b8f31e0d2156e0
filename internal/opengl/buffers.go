package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/render"
)

const scalarSize = 4 // float32, int32 and uint32 alike

// attributeBytes returns a pointer to the scalars of data and their size
// in bytes.
func attributeBytes(data render.AttributeData) (unsafe.Pointer, int) {
	switch data.Type() {
	case render.TypeInt:
		if v := data.Int32s(); len(v) > 0 {
			return unsafe.Pointer(&v[0]), len(v) * scalarSize
		}
	case render.TypeUInt:
		if v := data.Uint32s(); len(v) > 0 {
			return unsafe.Pointer(&v[0]), len(v) * scalarSize
		}
	default:
		if v := data.Float32s(); len(v) > 0 {
			return unsafe.Pointer(&v[0]), len(v) * scalarSize
		}
	}
	return nil, 0
}

func (d *Device) NewVertexBuffer(prog render.Handle, layout render.VertexLayout, data render.AttributeData) (render.Handle, error) {
	p, ok := d.programs[prog]
	if !ok {
		return 0, fmt.Errorf("vertex buffer: unknown program %d", prog)
	}

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	ptr, size := attributeBytes(data)
	gl.BufferData(gl.ARRAY_BUFFER, size, ptr, gl.STATIC_DRAW)

	// array-valued attributes take one location per entry, interleaved
	// per vertex
	if layout.Location >= 0 {
		comps := int32(layout.Type.Components())
		count := max(layout.ArrayCount, 1)
		stride := comps * scalarSize * int32(count)
		for i := 0; i < count; i++ {
			loc := uint32(layout.Location) + uint32(i)
			off := i * int(comps) * scalarSize
			gl.EnableVertexAttribArray(loc)
			switch layout.Type {
			case render.TypeInt:
				gl.VertexAttribIPointer(loc, comps, gl.INT, stride, gl.PtrOffset(off))
			case render.TypeUInt:
				gl.VertexAttribIPointer(loc, comps, gl.UNSIGNED_INT, stride, gl.PtrOffset(off))
			default:
				gl.VertexAttribPointer(loc, comps, gl.FLOAT, false, stride, gl.PtrOffset(off))
			}
		}
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if err := glError("vertex buffer"); err != nil {
		gl.DeleteBuffers(1, &vbo)
		return 0, err
	}
	d.vertexBufs[render.Handle(vbo)] = struct{}{}
	return render.Handle(vbo), nil
}

// UpdateVertexBuffer overwrites data starting at element offset.
func (d *Device) UpdateVertexBuffer(buf render.Handle, layout render.VertexLayout, data render.AttributeData, offset int) error {
	if _, ok := d.vertexBufs[buf]; !ok {
		return fmt.Errorf("vertex buffer update: unknown buffer %d", buf)
	}
	ptr, size := attributeBytes(data)
	if size == 0 {
		return nil
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferSubData(gl.ARRAY_BUFFER, offset*layout.Type.Components()*scalarSize, size, ptr)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return glError("vertex buffer update")
}

func (d *Device) DeleteVertexBuffer(buf render.Handle) {
	if _, ok := d.vertexBufs[buf]; !ok {
		return
	}
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
	delete(d.vertexBufs, buf)
}

// NewIndexBuffer binds the indices into the program's vertex array,
// replacing any earlier index buffer there.
func (d *Device) NewIndexBuffer(prog render.Handle, indices []uint32) (render.Handle, error) {
	p, ok := d.programs[prog]
	if !ok {
		return 0, fmt.Errorf("index buffer: unknown program %d", prog)
	}
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	var ptr unsafe.Pointer
	if len(indices) > 0 {
		ptr = unsafe.Pointer(&indices[0])
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*scalarSize, ptr, gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	if err := glError("index buffer"); err != nil {
		gl.DeleteBuffers(1, &ebo)
		return 0, err
	}
	d.indexBufs[render.Handle(ebo)] = struct{}{}
	return render.Handle(ebo), nil
}

func (d *Device) DeleteIndexBuffer(buf render.Handle) {
	if _, ok := d.indexBufs[buf]; !ok {
		return
	}
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
	delete(d.indexBufs, buf)
}
