package viewer

import (
	"github.com/chewxy/math32"

	"sciviz/scene"
)

// clickSlop is how far, in pixels, the cursor may travel between press and
// release for the release to count as a click rather than a drag.
const clickSlop = 3

// OrbitControls turns mouse input into camera motion: left drag orbits,
// right drag pans, scrolling zooms.
type OrbitControls struct {
	RotateSpeed float32 // radians per pixel
	PanSpeed    float32 // distance fraction per pixel
	ZoomStep    float32 // distance factor per scroll notch

	lastX, lastY float64
	dragging     bool
	travel       float64
}

func NewOrbitControls() *OrbitControls {
	return &OrbitControls{
		RotateSpeed: 0.005,
		PanSpeed:    0.0015,
		ZoomStep:    0.9,
	}
}

// Update applies one frame of cursor state. x and y are in framebuffer
// pixels with the origin at the bottom-left.
func (oc *OrbitControls) Update(cam *scene.Camera, x, y float64, rotate, pan bool) {
	if !rotate && !pan {
		oc.dragging = false
		return
	}
	if !oc.dragging {
		oc.lastX, oc.lastY = x, y
		oc.dragging = true
		oc.travel = 0
		return
	}
	dx, dy := float32(x-oc.lastX), float32(y-oc.lastY)
	oc.lastX, oc.lastY = x, y
	oc.travel += float64(math32.Abs(dx) + math32.Abs(dy))

	switch {
	case rotate:
		cam.Orbit(-dx*oc.RotateSpeed, -dy*oc.RotateSpeed)
	case pan:
		cam.Pan(-dx*oc.PanSpeed, -dy*oc.PanSpeed)
	}
}

// Scroll zooms by yoff notches; positive moves closer.
func (oc *OrbitControls) Scroll(cam *scene.Camera, yoff float64) {
	cam.Zoom(math32.Pow(oc.ZoomStep, float32(yoff)))
}

// IsClick reports whether the drag that just ended stayed within the
// click tolerance.
func (oc *OrbitControls) IsClick() bool { return oc.travel <= clickSlop }
