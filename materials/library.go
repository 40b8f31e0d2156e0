package materials

import (
	"fmt"

	"sciviz/render"
	"sciviz/textures"
)

// Library bakes matcaps on first use and shares one TextureBuffer per
// material among every program of an engine. Matcaps loaded from image
// files live in the texture cache instead of being baked.
type Library struct {
	engine   *render.Engine
	buffers  map[string]*render.TextureBuffer
	images   *textures.Manager
	fromFile map[string]bool
}

func NewLibrary(e *render.Engine) *Library {
	return &Library{
		engine:   e,
		buffers:  make(map[string]*render.TextureBuffer),
		images:   textures.NewManager(e),
		fromFile: make(map[string]bool),
	}
}

// LoadMatcap registers an image file as the matcap called name. Two names
// may share one file; the upload happens once.
func (l *Library) LoadMatcap(name, path string) error {
	if name == "" {
		return fmt.Errorf("matcap %q: empty name", path)
	}
	buf, err := l.images.Load(path)
	if err != nil {
		return fmt.Errorf("matcap %q: %w", name, err)
	}
	l.replace(name, buf)
	l.fromFile[name] = true
	l.engine.Logger().Debug("loaded matcap", "material", name, "path", path)
	return nil
}

// Has reports whether name is loaded, baked or built in.
func (l *Library) Has(name string) bool {
	if _, ok := l.buffers[name]; ok {
		return true
	}
	_, err := Lookup(name)
	return err == nil
}

func (l *Library) replace(name string, buf *render.TextureBuffer) {
	if old, ok := l.buffers[name]; ok && !l.fromFile[name] {
		old.Destroy()
	}
	delete(l.fromFile, name)
	l.buffers[name] = buf
}

// Texture returns the shared matcap for a loaded or built-in material.
func (l *Library) Texture(name string) (*render.TextureBuffer, error) {
	if buf, ok := l.buffers[name]; ok {
		return buf, nil
	}
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return l.Add(m)
}

// Add bakes a custom material, replacing any earlier one of the same name.
// Programs still sampling the replaced texture must be rebound.
func (l *Library) Add(m *Material) (*render.TextureBuffer, error) {
	buf, err := l.engine.NewTextureBuffer2D(render.FormatRGB8, MatcapSize, MatcapSize, m.Bake(MatcapSize))
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", m.Name, err)
	}
	l.replace(m.Name, buf)
	l.engine.Logger().Debug("baked matcap", "material", m.Name, "size", MatcapSize)
	return buf, nil
}

// Bind points a program's matcap sampler at the named material.
func (l *Library) Bind(p *render.ShaderProgram, sampler, name string) error {
	buf, err := l.Texture(name)
	if err != nil {
		return err
	}
	return p.SetTextureFromBuffer(sampler, buf)
}

// Destroy frees every baked and loaded texture. Programs using them must
// be destroyed first.
func (l *Library) Destroy() {
	for name, buf := range l.buffers {
		if !l.fromFile[name] {
			buf.Destroy()
		}
		delete(l.buffers, name)
	}
	clear(l.fromFile)
	l.images.DestroyAll()
}
