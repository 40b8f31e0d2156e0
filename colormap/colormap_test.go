package colormap

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sciviz/render"
)

var _ render.Colormap = (*Colormap)(nil)

func TestGet(t *testing.T) {
	for _, name := range Names() {
		cm, err := Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, cm.Name())
	}
	_, err := Get("jet")
	assert.Error(t, err)
}

func TestSampleEndsAndClamp(t *testing.T) {
	cm, err := Get("gray")
	require.NoError(t, err)

	tests := []struct {
		t    float32
		want float32
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
		{math32.NaN(), 0},
	}
	for _, tt := range tests {
		got := cm.Sample(tt.t)
		assert.InDelta(t, tt.want, got[0], 1e-6, "t=%v", tt.t)
	}
}

func TestSampleInterpolatesStops(t *testing.T) {
	cm := newColormap("two", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0.5, 0}, mgl32.Vec3{1, 1, 1})
	mid := cm.Sample(0.5)
	assert.InDelta(t, 1, mid[0], 1e-6)
	assert.InDelta(t, 0.5, mid[1], 1e-6)
	q := cm.Sample(0.75)
	assert.InDelta(t, 0.75, q[1], 1e-6)
}

func TestRGB8(t *testing.T) {
	cm, err := Get("gray")
	require.NoError(t, err)
	data, n := cm.RGB8()
	require.Equal(t, TextureLength, n)
	require.Len(t, data, 3*n)
	assert.Equal(t, []byte{0, 0, 0}, data[:3])
	assert.Equal(t, []byte{255, 255, 255}, data[len(data)-3:])
}

func TestNormalizeAndRange(t *testing.T) {
	assert.Equal(t, float32(0.5), Normalize(5, 0, 10))
	assert.Equal(t, float32(1), Normalize(20, 0, 10))
	assert.Equal(t, float32(0), Normalize(3, 3, 3))

	low, high := Range([]float32{2, math32.NaN(), -1, 7})
	assert.Equal(t, float32(-1), low)
	assert.Equal(t, float32(7), high)

	low, high = Range(nil)
	assert.Zero(t, low)
	assert.Zero(t, high)
}
