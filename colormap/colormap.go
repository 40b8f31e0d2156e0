// Package colormap holds the named scalar colormaps structures draw with.
package colormap

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureLength is the number of texels RGB8 produces.
const TextureLength = 500

// Colormap linearly interpolates between evenly spaced control colors.
type Colormap struct {
	name  string
	stops []mgl32.Vec3
}

func newColormap(name string, stops ...mgl32.Vec3) *Colormap {
	return &Colormap{name: name, stops: stops}
}

var registry = map[string]*Colormap{
	"viridis": newColormap("viridis",
		mgl32.Vec3{0.267, 0.005, 0.329},
		mgl32.Vec3{0.283, 0.141, 0.458},
		mgl32.Vec3{0.254, 0.265, 0.530},
		mgl32.Vec3{0.207, 0.372, 0.553},
		mgl32.Vec3{0.164, 0.471, 0.558},
		mgl32.Vec3{0.128, 0.567, 0.551},
		mgl32.Vec3{0.135, 0.659, 0.518},
		mgl32.Vec3{0.267, 0.749, 0.441},
		mgl32.Vec3{0.478, 0.821, 0.318},
		mgl32.Vec3{0.741, 0.873, 0.150},
		mgl32.Vec3{0.993, 0.906, 0.144},
	),
	"coolwarm": newColormap("coolwarm",
		mgl32.Vec3{0.230, 0.299, 0.754},
		mgl32.Vec3{0.406, 0.537, 0.934},
		mgl32.Vec3{0.602, 0.731, 0.999},
		mgl32.Vec3{0.788, 0.845, 0.939},
		mgl32.Vec3{0.865, 0.865, 0.865},
		mgl32.Vec3{0.961, 0.770, 0.677},
		mgl32.Vec3{0.958, 0.604, 0.482},
		mgl32.Vec3{0.870, 0.375, 0.302},
		mgl32.Vec3{0.706, 0.016, 0.150},
	),
	"blues": newColormap("blues",
		mgl32.Vec3{0.969, 0.984, 1.000},
		mgl32.Vec3{0.776, 0.859, 0.937},
		mgl32.Vec3{0.420, 0.682, 0.839},
		mgl32.Vec3{0.129, 0.443, 0.710},
		mgl32.Vec3{0.031, 0.188, 0.420},
	),
	"reds": newColormap("reds",
		mgl32.Vec3{1.000, 0.961, 0.941},
		mgl32.Vec3{0.988, 0.733, 0.631},
		mgl32.Vec3{0.984, 0.416, 0.290},
		mgl32.Vec3{0.796, 0.094, 0.114},
		mgl32.Vec3{0.404, 0.000, 0.051},
	),
	"gray": newColormap("gray",
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{1, 1, 1},
	),
}

// Get looks up a colormap by name.
func Get(name string) (*Colormap, error) {
	cm, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (have %v)", name, Names())
	}
	return cm, nil
}

// Names lists the registered colormaps in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Colormap) Name() string { return c.name }

// Sample returns the color at t, clamped to [0, 1]. NaN maps to the low end.
func (c *Colormap) Sample(t float32) mgl32.Vec3 {
	if math32.IsNaN(t) || t <= 0 {
		return c.stops[0]
	}
	if t >= 1 {
		return c.stops[len(c.stops)-1]
	}
	pos := t * float32(len(c.stops)-1)
	i := int(math32.Floor(pos))
	f := pos - float32(i)
	a, b := c.stops[i], c.stops[i+1]
	return a.Add(b.Sub(a).Mul(f))
}

// RGB8 bakes the map into TextureLength RGB texels.
func (c *Colormap) RGB8() ([]byte, int) {
	data := make([]byte, 0, TextureLength*3)
	for i := 0; i < TextureLength; i++ {
		col := c.Sample(float32(i) / float32(TextureLength-1))
		for _, v := range col {
			data = append(data, byte(math32.Round(clamp01(v)*255)))
		}
	}
	return data, TextureLength
}

// Normalize maps v from [low, high] onto [0, 1]. A degenerate range maps
// everything to 0.
func Normalize(v, low, high float32) float32 {
	if high == low {
		return 0
	}
	return clamp01((v - low) / (high - low))
}

// Range returns the minimum and maximum of values, ignoring NaN.
func Range(values []float32) (low, high float32) {
	low, high = math32.Inf(1), math32.Inf(-1)
	for _, v := range values {
		if math32.IsNaN(v) {
			continue
		}
		low = math32.Min(low, v)
		high = math32.Max(high, v)
	}
	if low > high {
		return 0, 0
	}
	return low, high
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
