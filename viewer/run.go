package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sciviz/config"
	"sciviz/core"
	"sciviz/geometry"
	"sciviz/internal/opengl"
	"sciviz/render"
)

// Open creates the window, the OpenGL device and the engine. The caller
// owns all three; Close releases them in order.
func Open(cfg config.Config, log *slog.Logger) (*core.Window, *render.Engine, error) {
	win, err := core.NewWindow(cfg.WindowConfig())
	if err != nil {
		return nil, nil, err
	}
	dev, err := opengl.NewDevice(log)
	if err != nil {
		win.Destroy()
		return nil, nil, err
	}
	w, h := win.GetFramebufferSize()
	e, err := render.NewEngine(dev, w, h, render.WithLogger(log))
	if err != nil {
		dev.Release()
		win.Destroy()
		return nil, nil, fmt.Errorf("failed to create render engine: %w", err)
	}
	e.SetBackgroundColor(cfg.Render.Background.Array())
	return win, e, nil
}

// Close shuts down what Open created.
func Close(win *core.Window, e *render.Engine) {
	e.Shutdown()
	win.Destroy()
}

// Run drives frames until the window closes or ctx ends. Meshes arriving
// on incoming are registered on the render goroutine and the camera is
// refitted; incoming may be nil.
func (v *Viewer) Run(ctx context.Context, win *core.Window, incoming <-chan *geometry.Mesh) error {
	controls := NewOrbitControls()

	win.OnFramebufferResize(func(w, h int) {
		if err := v.Resize(w, h); err != nil {
			v.log.Warn("resize failed", "width", w, "height", h, "err", err)
		}
	})
	win.SetScrollCallback(func(_, yoff float64) {
		controls.Scroll(v.cam, yoff)
	})
	win.SetClickCallback(func(button int, x, y float64) {
		if button != core.MouseButtonLeft || !controls.IsClick() || v.pick == nil {
			return
		}
		if _, _, err := v.Pick(int(x), int(y)); err != nil {
			v.log.Warn("pick failed", "err", err)
		}
	})

	var (
		frames    int
		lastStats = time.Now()
		resetDown bool
	)
	for !win.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-incoming:
			if !ok {
				incoming = nil
				break
			}
			if _, err := v.reg.AddMesh(m); err != nil {
				v.log.Error("add mesh", "name", m.Name, "err", err)
				break
			}
			v.FitCamera()
		default:
		}

		win.PollEvents()
		if win.IsKeyPressed(core.KeyEscape) {
			win.SetShouldClose(true)
			continue
		}
		// R refits the camera, once per press
		rDown := win.IsKeyPressed(core.KeyR)
		if rDown && !resetDown {
			v.FitCamera()
		}
		resetDown = rDown

		x, y := win.GetCursorPos()
		controls.Update(v.cam, x, y,
			win.IsMouseButtonPressed(core.MouseButtonLeft),
			win.IsMouseButtonPressed(core.MouseButtonRight))

		stats, err := v.Frame(win)
		if err != nil {
			v.log.Warn("frame failed", "err", err)
		}

		frames++
		if elapsed := time.Since(lastStats); elapsed >= 5*time.Second {
			v.log.Debug("frame stats",
				"fps", float64(frames)/elapsed.Seconds(),
				"drawn", stats.Drawn,
				"failed", stats.Failed,
				"structures", v.reg.Len())
			frames, lastStats = 0, time.Now()
		}
	}
	return nil
}
