package rendertest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sciviz/render"
)

// NewEngine starts an engine on a fresh fake device and shuts it down when
// the test ends. Only one engine may be active, so tests using it must not
// run in parallel.
func NewEngine(t testing.TB, width, height int, opts ...render.Option) (*render.Engine, *Device) {
	t.Helper()
	dev := New()
	e, err := render.NewEngine(dev, width, height, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	return e, dev
}
