package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/core"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
width = 800
vsync = false

[render]
background = "#000000"
colormap = "coolwarm"
edge_width = 1.5

[render.matcaps]
jade = "mats/jade.png"

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.False(t, cfg.Window.VSync)
	assert.Equal(t, core.ColorBlack, cfg.Render.Background)
	assert.Equal(t, "coolwarm", cfg.Render.Colormap)
	assert.Equal(t, float32(1.5), cfg.Render.EdgeWidth)
	assert.Equal(t, "clay", cfg.Render.Material)
	assert.Equal(t, map[string]string{"jade": "mats/jade.png"}, cfg.Render.Matcaps)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Pick.Enabled)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "[window]\nwidht = 3\n",
		"bad color":    "[render]\nbackground = \"red\"\n",
		"bad level":    "[log]\nlevel = \"loud\"\n",
		"zero width":   "[window]\nwidth = 0\n",
		"bad exposure": "[render]\nexposure = -1.0\n",
		"syntax":       "[window\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Window.Title = "round trip"
	cfg.Render.Background = core.Color{R: 0.2, G: 0.4, B: 0.6, A: 1}

	data, err := cfg.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sciviz.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "round trip", back.Window.Title)
	assert.InDelta(t, 0.4, back.Render.Background.G, 1.0/255)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWindowConfig(t *testing.T) {
	cfg := Default()
	cfg.Window.Samples = 4
	w := cfg.WindowConfig()
	assert.Equal(t, 4, w.Samples)
	assert.True(t, w.Resizable)
	assert.Equal(t, cfg.Window.Width, w.Width)
}
