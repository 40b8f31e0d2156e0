package textures

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"sciviz/render"
	"sciviz/render/rendertest"
)

// twoRows is 1 pixel wide: red on top, blue below.
func twoRows() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	return img
}

func TestFromImageFlipsRows(t *testing.T) {
	img := FromImage(twoRows(), "rows")
	assert.Equal(t, 1, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, img.Pixels)
}

func TestDecodeFormats(t *testing.T) {
	var pngBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, twoRows()))
	require.NoError(t, bmp.Encode(&bmpBuf, twoRows()))

	for name, buf := range map[string]*bytes.Buffer{"png": &pngBuf, "bmp": &bmpBuf} {
		t.Run(name, func(t *testing.T) {
			img, err := Decode(buf, name)
			require.NoError(t, err)
			assert.Equal(t, []byte{0, 0, 255, 255}, img.Pixels[:4])
		})
	}

	_, err := Decode(bytes.NewReader([]byte("not an image")), "junk")
	assert.Error(t, err)
}

func TestFit(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	assert.Same(t, src, Fit(src, 0))
	assert.Same(t, src, Fit(src, 400))

	got := Fit(src, 200).Bounds()
	assert.Equal(t, 200, got.Dx())
	assert.Equal(t, 50, got.Dy())

	tall := image.NewNRGBA(image.Rect(0, 0, 1, 1000))
	got = Fit(tall, 10).Bounds()
	assert.Equal(t, 1, got.Dx())
	assert.Equal(t, 10, got.Dy())
}

func TestChecker(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	black := color.NRGBA{0, 0, 0, 255}
	img := Checker("c", 16, white, black)
	require.Len(t, img.Pixels, 16*16*4)
	assert.Equal(t, byte(255), img.Pixels[0])
	assert.Equal(t, byte(0), img.Pixels[2*4])
}

func TestManagerCachesAndFits(t *testing.T) {
	dev := rendertest.New()
	dev.MaxTextureSize = 8
	e, err := render.NewEngine(dev, 32, 32)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	m := NewManager(e)
	defer m.DestroyAll()

	path := filepath.Join(t.TempDir(), "wide.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 32, 16))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	a, err := m.Load(path)
	require.NoError(t, err)
	b, err := m.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, render.FormatRGBA8, a.Format())
	w, h := a.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
}

func TestManagerDefault(t *testing.T) {
	e, dev := rendertest.NewEngine(t, 32, 32)
	m := NewManager(e)

	buf, err := m.GetOrDefault(filepath.Join(t.TempDir(), "missing.png"))
	require.NoError(t, err)
	w, h := buf.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	again, err := m.GetOrDefault("")
	require.NoError(t, err)
	assert.Same(t, buf, again)

	m.DestroyAll()
	assert.Empty(t, dev.Textures)
}
