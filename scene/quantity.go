package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"sciviz/colormap"
	"sciviz/render"
)

// Element sets a quantity can be defined on.
const (
	OnVertices = "vertices"
	OnFaces    = "faces"
	OnPoints   = "points"
)

// quantityHost is the structure a quantity belongs to.
type quantityHost interface {
	setActiveQuantity(name string, on bool)
	activeQuantity() string
	invalidate()
}

// Quantity is data attached to a structure's elements and drawn in place
// of the structure's base color when enabled. At most one quantity per
// structure is enabled at a time.
type Quantity interface {
	Name() string
	DefinedOn() string
	Enabled() bool
	SetEnabled(bool)
}

type quantityBase struct {
	host      quantityHost
	name      string
	definedOn string
}

func (q *quantityBase) Name() string       { return q.name }
func (q *quantityBase) DefinedOn() string  { return q.definedOn }
func (q *quantityBase) Enabled() bool      { return q.host.activeQuantity() == q.name }
func (q *quantityBase) SetEnabled(on bool) { q.host.setActiveQuantity(q.name, on) }

// ScalarQuantity colors elements by a value through a colormap.
type ScalarQuantity struct {
	quantityBase
	values    []float32
	cmap      *colormap.Colormap
	low, high float32
	dataLow   float32
	dataHigh  float32
}

func newScalarQuantity(host quantityHost, name, on string, values []float64, cmapName string) (*ScalarQuantity, error) {
	cm, err := colormap.Get(cmapName)
	if err != nil {
		return nil, err
	}
	// scalar data arrives as float64 and is drawn as float32
	vals := make([]float32, len(values))
	for i, v := range values {
		vals[i] = float32(v)
	}
	lo, hi := colormap.Range(vals)
	return &ScalarQuantity{
		quantityBase: quantityBase{host: host, name: name, definedOn: on},
		values:       vals,
		cmap:         cm,
		low:          lo,
		high:         hi,
		dataLow:      lo,
		dataHigh:     hi,
	}, nil
}

func (q *ScalarQuantity) Values() []float32 { return q.values }

func (q *ScalarQuantity) Colormap() string { return q.cmap.Name() }

// SetColormap switches the colormap; the program is rebuilt on next draw.
func (q *ScalarQuantity) SetColormap(name string) error {
	cm, err := colormap.Get(name)
	if err != nil {
		return err
	}
	q.cmap = cm
	q.host.invalidate()
	return nil
}

// Range is the value interval mapped onto the colormap.
func (q *ScalarQuantity) Range() (low, high float32) { return q.low, q.high }

// DataRange is the min and max of the data.
func (q *ScalarQuantity) DataRange() (low, high float32) { return q.dataLow, q.dataHigh }

func (q *ScalarQuantity) SetRange(low, high float32) error {
	if low > high {
		return fmt.Errorf("scalar %q: range low %v above high %v", q.name, low, high)
	}
	q.low, q.high = low, high
	return nil
}

// ResetRange restores the data range.
func (q *ScalarQuantity) ResetRange() { q.low, q.high = q.dataLow, q.dataHigh }

func (q *ScalarQuantity) bind(p *render.ShaderProgram) error {
	return p.SetTextureFromColormap("t_colormap", q.cmap)
}

func (q *ScalarQuantity) uniforms() map[string]render.Value {
	return map[string]render.Value{
		"u_rangeLow":  render.Float(q.low),
		"u_rangeHigh": render.Float(q.high),
	}
}

// ColorQuantity gives every element an explicit RGB color.
type ColorQuantity struct {
	quantityBase
	colors []mgl32.Vec3
}

func (q *ColorQuantity) Colors() []mgl32.Vec3 { return q.colors }

// quantitySet is the quantity bookkeeping shared by structures.
type quantitySet struct {
	byName   map[string]Quantity
	order    []string
	active   string
	onChange func()
}

func newQuantitySet(onChange func()) quantitySet {
	return quantitySet{byName: make(map[string]Quantity), onChange: onChange}
}

// add registers q, replacing a quantity of the same name.
func (s *quantitySet) add(q Quantity) {
	if _, ok := s.byName[q.Name()]; !ok {
		s.order = append(s.order, q.Name())
	} else if s.active == q.Name() {
		s.onChange()
	}
	s.byName[q.Name()] = q
}

func (s *quantitySet) activeQuantity() string { return s.active }

func (s *quantitySet) setActiveQuantity(name string, on bool) {
	switch {
	case on && s.active != name:
		s.active = name
	case !on && s.active == name:
		s.active = ""
	default:
		return
	}
	s.onChange()
}

func (s *quantitySet) current() Quantity { return s.byName[s.active] }

// Quantity looks up a quantity by name.
func (s *quantitySet) Quantity(name string) (Quantity, bool) {
	q, ok := s.byName[name]
	return q, ok
}

// Quantities lists quantities in the order they were added.
func (s *quantitySet) Quantities() []Quantity {
	out := make([]Quantity, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

func (s *quantitySet) RemoveQuantity(name string) {
	if _, ok := s.byName[name]; !ok {
		return
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == name {
		s.active = ""
		s.onChange()
	}
}
