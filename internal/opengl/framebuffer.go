package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"sciviz/render"
)

func glAttachment(slot render.AttachmentSlot) uint32 {
	if slot == render.SlotDepth {
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0
}

// DisplayFrameBuffer is framebuffer 0, the window surface.
func (d *Device) DisplayFrameBuffer() render.Handle { return 0 }

func (d *Device) NewFrameBuffer() (render.Handle, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenFramebuffers returned 0")
	}
	d.frameBuffers[render.Handle(id)] = &glFrameBuffer{}
	return render.Handle(id), nil
}

// withFrameBuffer runs fn with fb bound and restores the previous binding.
func (d *Device) withFrameBuffer(fb render.Handle, fn func()) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	fn()
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.boundFB))
}

func (d *Device) AttachTexture(fb render.Handle, slot render.AttachmentSlot, tex render.Handle) {
	d.withFrameBuffer(fb, func() {
		gl.FramebufferTexture(gl.FRAMEBUFFER, glAttachment(slot), uint32(tex), 0)
	})
	d.noteAttachment(fb, slot)
}

func (d *Device) AttachRenderBuffer(fb render.Handle, slot render.AttachmentSlot, rb render.Handle) {
	d.withFrameBuffer(fb, func() {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, glAttachment(slot), gl.RENDERBUFFER, uint32(rb))
	})
	d.noteAttachment(fb, slot)
}

// noteAttachment keeps draw and read buffers in step with the color
// slot; depth-only targets must disable them to be complete.
func (d *Device) noteAttachment(fb render.Handle, slot render.AttachmentSlot) {
	f, ok := d.frameBuffers[fb]
	if !ok {
		return
	}
	if slot == render.SlotColor {
		f.hasColor = true
	}
	buf := uint32(gl.NONE)
	if f.hasColor {
		buf = gl.COLOR_ATTACHMENT0
	}
	d.withFrameBuffer(fb, func() {
		gl.DrawBuffer(buf)
		gl.ReadBuffer(buf)
	})
}

// CheckFrameBuffer asks the driver for completeness without disturbing
// the current binding.
func (d *Device) CheckFrameBuffer(fb render.Handle) error {
	var status uint32
	d.withFrameBuffer(fb, func() {
		status = gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	})
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("FBO incomplete: status=0x%X", status)
	}
	return nil
}

func (d *Device) BindFrameBuffer(fb render.Handle, width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	gl.Viewport(0, 0, int32(width), int32(height))
	d.boundFB = fb
}

func (d *Device) ClearFrameBuffer(fb render.Handle, color [4]float32, depth float32) {
	if fb != d.boundFB {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	}
	// a read-only depth mode masks depth writes, clears included
	var mask bool
	gl.GetBooleanv(gl.DEPTH_WRITEMASK, &mask)
	gl.DepthMask(true)
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.ClearDepth(float64(depth))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.DepthMask(mask)
	if fb != d.boundFB {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.boundFB))
	}
}

// ReadPixel reads one RGBA float pixel of the color attachment; origin is
// the bottom-left corner.
func (d *Device) ReadPixel(fb render.Handle, x, y int) ([4]float32, error) {
	var px [4]float32
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(fb))
	if fb == 0 {
		gl.ReadBuffer(gl.BACK)
	}
	gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.FLOAT, gl.Ptr(&px[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(d.boundFB))
	return px, glError("read pixel")
}

func (d *Device) DeleteFrameBuffer(fb render.Handle) {
	if _, ok := d.frameBuffers[fb]; !ok {
		return
	}
	if d.boundFB == fb {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		d.boundFB = 0
	}
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
	delete(d.frameBuffers, fb)
}
