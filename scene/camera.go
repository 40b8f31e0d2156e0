package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const maxPitch = 1.5

// Camera orbits a target point. Yaw turns around +Y, pitch tilts toward
// it, and the eye sits Distance away from Target.
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32

	FOV         float32 // vertical, radians
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(target mgl32.Vec3, distance, fov, aspectRatio float32) *Camera {
	return &Camera{
		Target:      target,
		Distance:    distance,
		Pitch:       0.3,
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   0.01,
		FarPlane:    1000,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
	}
}

// Position is the eye location.
func (c *Camera) Position() mgl32.Vec3 {
	cosPitch, sinPitch := math32.Cos(c.Pitch), math32.Sin(c.Pitch)
	cosYaw, sinYaw := math32.Cos(c.Yaw), math32.Sin(c.Yaw)
	offset := mgl32.Vec3{
		c.Distance * cosPitch * sinYaw,
		c.Distance * sinPitch,
		c.Distance * cosPitch * cosYaw,
	}
	return c.Target.Add(offset)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Orbit rotates around the target. Pitch stays short of the poles so the
// up vector never aligns with the view direction.
func (c *Camera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch = mgl32.Clamp(c.Pitch+deltaPitch, -maxPitch, maxPitch)
}

// Zoom scales the distance by factor, e.g. 0.9 to move 10% closer.
func (c *Camera) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	c.Distance = math32.Max(c.Distance*factor, c.NearPlane*2)
}

// Pan moves the target in the view plane by dx, dy in units of distance.
func (c *Camera) Pan(dx, dy float32) {
	view := c.ViewMatrix().Inv()
	right := view.Col(0).Vec3()
	up := view.Col(1).Vec3()
	c.Target = c.Target.Add(right.Mul(dx * c.Distance)).Add(up.Mul(dy * c.Distance))
}

// Fit frames the box lo..hi and sets clip planes relative to its size.
func (c *Camera) Fit(lo, hi mgl32.Vec3) {
	c.Target = lo.Add(hi).Mul(0.5)
	radius := math32.Max(hi.Sub(lo).Len()/2, 1e-6)
	c.Distance = radius / math32.Sin(c.FOV/2) * 1.1
	c.NearPlane = radius * 0.005
	c.FarPlane = c.Distance + radius*20
}
