// Package viewer ties a render engine, a structure registry and an orbit
// camera into an interactive view: each frame renders the scene into an
// offscreen buffer and copies it to the display, and clicks are resolved
// through a separate pick pass.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"sciviz/config"
	"sciviz/render"
	"sciviz/render/shaders"
	"sciviz/scene"
)

// ErrPickDisabled is returned by Pick when the viewer was built without a
// pick target.
var ErrPickDisabled = errors.New("viewer: picking disabled")

const defaultFOV = math32.Pi / 4

// offscreen is a color texture plus depth render buffer target.
type offscreen struct {
	fb    *render.FrameBuffer
	color *render.TextureBuffer
	depth *render.RenderBuffer
}

func newOffscreen(e *render.Engine, format render.TextureFormat, width, height int, clear [4]float32) (*offscreen, error) {
	o := &offscreen{}
	var err error
	if o.color, err = e.NewTextureBuffer2D(format, width, height, nil); err != nil {
		return nil, err
	}
	if o.depth, err = e.NewRenderBuffer(render.RenderBufferDepth, width, height); err != nil {
		o.destroy()
		return nil, err
	}
	if o.fb, err = e.NewFrameBuffer(); err != nil {
		o.destroy()
		return nil, err
	}
	o.fb.BindToColorTextureBuffer(o.color)
	o.fb.BindToDepthRenderBuffer(o.depth)
	o.fb.ClearColor = clear
	o.fb.ClearDepth = 1
	return o, nil
}

func (o *offscreen) resize(width, height int) error {
	return o.fb.ResizeBuffers(width, height)
}

func (o *offscreen) destroy() {
	if o == nil {
		return
	}
	if o.fb != nil {
		o.fb.Destroy()
	}
	if o.depth != nil {
		o.depth.Destroy()
	}
	if o.color != nil {
		o.color.Destroy()
	}
}

// Viewer renders a Registry through an orbit camera.
type Viewer struct {
	engine *render.Engine
	reg    *scene.Registry
	cam    *scene.Camera
	log    *slog.Logger

	width, height int
	exposure      float32

	scene *offscreen
	pick  *offscreen // nil when picking is off
	blit  *render.ShaderProgram

	lastPick *scene.PickResult
}

// New builds a viewer on e for a width by height display.
func New(e *render.Engine, cfg config.Config, width, height int) (*Viewer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("viewer: invalid size %dx%d", width, height)
	}
	opts := scene.DefaultOptions()
	opts.Material = cfg.Render.Material
	opts.Colormap = cfg.Render.Colormap
	opts.PointRadius = cfg.Render.PointRadius
	opts.EdgeWidth = cfg.Render.EdgeWidth

	reg, err := scene.NewRegistry(e, opts)
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	v := &Viewer{
		engine:   e,
		reg:      reg,
		cam:      scene.NewCamera(mgl32.Vec3{}, 3, defaultFOV, float32(width)/float32(height)),
		log:      e.Logger(),
		width:    width,
		height:   height,
		exposure: cfg.Render.Exposure,
	}
	if err := v.init(cfg); err != nil {
		v.Destroy()
		return nil, err
	}
	return v, nil
}

func (v *Viewer) init(cfg config.Config) error {
	for name, path := range cfg.Render.Matcaps {
		if err := v.reg.Materials().LoadMatcap(name, path); err != nil {
			return fmt.Errorf("viewer: %w", err)
		}
	}
	var err error
	v.scene, err = newOffscreen(v.engine, render.FormatRGBA16F, v.width, v.height, cfg.Render.Background.Array())
	if err != nil {
		return fmt.Errorf("scene target: %w", err)
	}
	if cfg.Pick.Enabled {
		// index 0 is the background
		v.pick, err = newOffscreen(v.engine, render.FormatRGBA32F, v.width, v.height, [4]float32{})
		if err != nil {
			return fmt.Errorf("pick target: %w", err)
		}
	}

	v.blit, err = v.engine.NewShaderProgram("scene blit", shaders.TexturedQuad(), render.DrawTriangles, 0)
	if err != nil {
		return fmt.Errorf("scene blit: %w", err)
	}
	if err := v.blit.SetAttribute("a_position", render.Vec2s(shaders.QuadVertices()), false, 0, -1); err != nil {
		return err
	}
	if err := v.blit.SetTextureFromBuffer("t_image", v.scene.color); err != nil {
		return err
	}
	return v.blit.SetUniform("u_exposure", render.Float(v.exposure))
}

func (v *Viewer) Registry() *scene.Registry { return v.reg }
func (v *Viewer) Camera() *scene.Camera     { return v.cam }
func (v *Viewer) Size() (int, int)          { return v.width, v.height }

// LastPick is the most recent successful pick, if any.
func (v *Viewer) LastPick() (scene.PickResult, bool) {
	if v.lastPick == nil {
		return scene.PickResult{}, false
	}
	return *v.lastPick, true
}

// SetExposure scales the final image brightness.
func (v *Viewer) SetExposure(exposure float32) error {
	if exposure <= 0 {
		return fmt.Errorf("viewer: exposure %v must be positive", exposure)
	}
	v.exposure = exposure
	return v.blit.SetUniform("u_exposure", render.Float(exposure))
}

// FitCamera frames every enabled structure.
func (v *Viewer) FitCamera() {
	if box, ok := v.reg.Bounds(); ok {
		v.cam.Fit(box.Min, box.Max)
	}
}

// Resize follows a display size change. Zero sizes, as reported for
// minimized windows, are ignored.
func (v *Viewer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	v.width, v.height = width, height
	v.engine.ResizeDisplay(width, height)
	v.cam.UpdateAspectRatio(float32(width), float32(height))
	if err := v.scene.resize(width, height); err != nil {
		return err
	}
	if v.pick != nil {
		return v.pick.resize(width, height)
	}
	return nil
}

// Frame renders the scene offscreen, copies it to the display and hands
// the result to p. The stats are those of the scene pass.
func (v *Viewer) Frame(p render.Presenter) (render.FrameStats, error) {
	ctx := v.reg.FrameContext(v.cam, v.height)

	v.engine.SetDepthMode(render.DepthLess)
	v.engine.SetBlendMode(render.BlendOver)
	stats, err := v.engine.RenderFrame(v.scene.fb, v.reg.Drawers(ctx), nil)
	if err != nil {
		return stats, fmt.Errorf("scene pass: %w", err)
	}

	v.engine.SetDepthMode(render.DepthDisable)
	v.engine.SetBlendMode(render.BlendDisable)
	blit, err := v.engine.RenderFrame(nil, []render.Drawer{v.blit}, p)
	if err != nil {
		return stats, fmt.Errorf("blit: %w", err)
	}
	if blit.Failed > 0 {
		return stats, errors.New("blit: draw failed")
	}
	return stats, nil
}

// Pick renders the pick pass and resolves the pixel at (x, y), origin at
// the bottom-left. ok is false when the pixel shows background.
func (v *Viewer) Pick(x, y int) (res scene.PickResult, ok bool, err error) {
	if v.pick == nil {
		return res, false, ErrPickDisabled
	}
	ctx := v.reg.FrameContext(v.cam, v.height)
	if !v.engine.PushFrameBuffer(v.pick.fb) {
		return res, false, &render.IncompleteTargetError{Reason: "pick target rejected"}
	}
	defer v.engine.PopFrameBuffer()

	v.pick.fb.Clear()
	v.engine.SetDepthMode(render.DepthLess)
	v.engine.SetBlendMode(render.BlendDisable)
	for _, d := range v.reg.PickDrawers(ctx) {
		if err := d.Draw(); err != nil {
			v.log.Debug("pick draw skipped", "err", err)
		}
	}

	px, err := v.pick.fb.ReadFloat4(x, y)
	if err != nil {
		return res, false, fmt.Errorf("pick: %w", err)
	}
	res, ok = v.reg.ResolvePick(px)
	if !ok {
		v.lastPick = nil
		return res, false, nil
	}
	v.lastPick = &res
	v.log.Info("picked", "structure", res.Structure.Name(), "element", res.Element, "what", res.String())
	return res, true, nil
}

// Destroy frees the registry and every viewer-owned resource. The engine
// is left running.
func (v *Viewer) Destroy() {
	if v.blit != nil {
		v.blit.Destroy()
		v.blit = nil
	}
	v.scene.destroy()
	v.pick.destroy()
	v.scene, v.pick = nil, nil
	v.reg.Destroy()
}
