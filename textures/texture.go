package textures

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"sciviz/render"
)

// Image is CPU-side RGBA8 pixel data with rows stored bottom to top, the
// order texture uploads expect.
type Image struct {
	Name   string
	Width  int
	Height int
	Pixels []byte
}

// Load reads a PNG, JPEG, BMP, TIFF or WebP file.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode reads any registered image format from r.
func Decode(r io.Reader, name string) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", name, err)
	}
	return FromImage(img, name), nil
}

// FromImage converts img to RGBA8 and flips it vertically.
func FromImage(img image.Image, name string) *Image {
	b := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return &Image{Name: name, Width: b.Dx(), Height: b.Dy(), Pixels: flipRows(rgba.Pix, b.Dx()*4)}
}

func flipRows(pix []byte, stride int) []byte {
	out := make([]byte, len(pix))
	rows := len(pix) / stride
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

// Fit returns img scaled down with bilinear filtering so neither side
// exceeds limit, or img itself when it already fits.
func Fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	if w >= h {
		h = max(h*limit/w, 1)
		w = limit
	} else {
		w = max(w*limit/h, 1)
		h = limit
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Solid is a 1x1 image of one color.
func Solid(name string, c color.NRGBA) *Image {
	return &Image{Name: name, Width: 1, Height: 1, Pixels: []byte{c.R, c.G, c.B, c.A}}
}

// Checker is a size×size checkerboard of 8×8 blocks.
func Checker(name string, size int, c1, c2 color.NRGBA) *Image {
	pixels := make([]byte, size*size*4)
	block := max(size/8, 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := c2
			if (x/block+y/block)%2 == 0 {
				c = c1
			}
			copy(pixels[(y*size+x)*4:], []byte{c.R, c.G, c.B, c.A})
		}
	}
	return &Image{Name: name, Width: size, Height: size, Pixels: pixels}
}

// Upload allocates an RGBA8 TextureBuffer holding the image.
func (img *Image) Upload(e *render.Engine) (*render.TextureBuffer, error) {
	buf, err := e.NewTextureBuffer2D(render.FormatRGBA8, img.Width, img.Height, img.Pixels)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", img.Name, err)
	}
	return buf, nil
}

// ── Manager ──────────────────────────────────────────────────────────────────

// Manager caches uploaded images by path.
type Manager struct {
	engine   *render.Engine
	mu       sync.Mutex
	textures map[string]*render.TextureBuffer
}

func NewManager(e *render.Engine) *Manager {
	return &Manager{engine: e, textures: make(map[string]*render.TextureBuffer)}
}

// Load decodes and uploads path, returning the cached buffer on repeat
// calls. Images larger than the backend limit are scaled down.
func (m *Manager) Load(path string) (*render.TextureBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.textures[path]; ok {
		return buf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", path, err)
	}
	fitted := Fit(src, m.engine.Caps().MaxTextureSize)
	if fitted != src {
		m.engine.Logger().Info("scaled image to texture limit", "path", path,
			"from", src.Bounds().Size(), "to", fitted.Bounds().Size())
	}

	buf, err := FromImage(fitted, path).Upload(m.engine)
	if err != nil {
		return nil, err
	}
	m.textures[path] = buf
	return buf, nil
}

// GetOrDefault returns the texture at path, or a white texel when path is
// empty or cannot be loaded.
func (m *Manager) GetOrDefault(path string) (*render.TextureBuffer, error) {
	if path != "" {
		buf, err := m.Load(path)
		if err == nil {
			return buf, nil
		}
		m.engine.Logger().Warn("texture load failed, using default", "path", path, "err", err)
	}
	return m.Default()
}

// Default returns a shared 1x1 white texture.
func (m *Manager) Default() (*render.TextureBuffer, error) {
	const key = "__default_white__"
	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.textures[key]; ok {
		return buf, nil
	}
	buf, err := Solid(key, color.NRGBA{255, 255, 255, 255}).Upload(m.engine)
	if err != nil {
		return nil, err
	}
	m.textures[key] = buf
	return buf, nil
}

// DestroyAll frees every cached texture.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, buf := range m.textures {
		buf.Destroy()
		delete(m.textures, key)
	}
}
