// Package config loads viewer settings from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"sciviz/core"
	"sciviz/logging"
)

type Config struct {
	Window WindowSection `toml:"window"`
	Render RenderSection `toml:"render"`
	Log    LogSection    `toml:"log"`
	Pick   PickSection   `toml:"pick"`
}

type WindowSection struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	VSync      bool   `toml:"vsync"`
	Fullscreen bool   `toml:"fullscreen"`
	Samples    int    `toml:"samples"`
}

type RenderSection struct {
	Background  core.Color `toml:"background"`
	Material    string     `toml:"material"`
	Colormap    string     `toml:"colormap"`
	EdgeWidth   float32    `toml:"edge_width"`
	PointRadius float32    `toml:"point_radius"` // fraction of the scene length scale
	Exposure    float32    `toml:"exposure"`

	// Matcaps maps extra material names to matcap image files.
	Matcaps map[string]string `toml:"matcaps,omitempty"`
}

type LogSection struct {
	Level string `toml:"level"`
}

type PickSection struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	w := core.DefaultWindowConfig()
	return Config{
		Window: WindowSection{
			Width:  w.Width,
			Height: w.Height,
			Title:  w.Title,
			VSync:  w.VSync,
		},
		Render: RenderSection{
			Background:  core.ColorWhite,
			Material:    "clay",
			Colormap:    "viridis",
			EdgeWidth:   0,
			PointRadius: 0.005,
			Exposure:    1,
		},
		Log:  LogSection{Level: "info"},
		Pick: PickSection{Enabled: true},
	}
}

// Load reads path over Default. Unknown keys are errors so typos do not
// silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load for in-memory TOML.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return c.Validate()
}

// Validate checks ranges the rest of the program relies on.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.Samples < 0 {
		return fmt.Errorf("window samples %d must not be negative", c.Window.Samples)
	}
	if c.Render.Exposure <= 0 {
		return fmt.Errorf("render exposure %v must be positive", c.Render.Exposure)
	}
	if c.Render.PointRadius <= 0 {
		return fmt.Errorf("render point_radius %v must be positive", c.Render.PointRadius)
	}
	if c.Render.EdgeWidth < 0 {
		return fmt.Errorf("render edge_width %v must not be negative", c.Render.EdgeWidth)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// WindowConfig converts the window section for core.NewWindow.
func (c Config) WindowConfig() core.WindowConfig {
	w := core.DefaultWindowConfig()
	w.Width = c.Window.Width
	w.Height = c.Window.Height
	w.Title = c.Window.Title
	w.VSync = c.Window.VSync
	w.Fullscreen = c.Window.Fullscreen
	w.Samples = c.Window.Samples
	return w
}
