// Package pick maps scene elements to unique indices that a render pass
// writes as colors, and maps read-back colors to elements.
package pick

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// BitsPerChannel is how many index bits each color channel carries. A
// float32 holds every integer below 2^24 exactly, so 22 bits survives a
// float render target with margin.
const BitsPerChannel = 22

const channelMask = 1<<BitsPerChannel - 1

// MaxIndex is the largest index handed out. Indices are uint64, so the
// third channel carries only the top 19 of its 22 bits.
const MaxIndex uint64 = 1<<63 - 1

// Background is the index of pixels no structure covered. Targets are
// cleared to its color, all zeros.
const Background = 0

// ErrExhausted is returned when a request does not fit the index space.
var ErrExhausted = errors.New("pick: index space exhausted")

// IndexToColor splits idx into three channels, low bits first.
func IndexToColor(idx uint64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(idx & channelMask),
		float32(idx >> BitsPerChannel & channelMask),
		float32(idx >> (2 * BitsPerChannel) & channelMask),
	}
}

// ColorToIndex reverses IndexToColor. Channels are rounded, so small
// filtering error is tolerated.
func ColorToIndex(c mgl32.Vec3) uint64 {
	ch := func(v float32) uint64 {
		if v <= 0 {
			return 0
		}
		return uint64(v+0.5) & channelMask
	}
	return ch(c[0]) | ch(c[1])<<BitsPerChannel | ch(c[2])<<(2*BitsPerChannel)
}

// Range is a contiguous block of indices [Start, Start+Count).
type Range struct {
	Owner string
	Start uint64
	Count uint64
}

func (r Range) Contains(idx uint64) bool { return idx >= r.Start && idx-r.Start < r.Count }

// Color is the pick color of the i-th element of the range.
func (r Range) Color(i uint64) mgl32.Vec3 { return IndexToColor(r.Start + i) }

// Result is a resolved pick.
type Result struct {
	Owner   string
	Element uint64
}

func (r Result) String() string { return fmt.Sprintf("%s[%d]", r.Owner, r.Element) }

// Allocator hands out index ranges. Released ranges are not reused;
// indices stay unique for the allocator's lifetime so stale pick buffers
// never resolve to the wrong owner.
type Allocator struct {
	next   uint64
	ranges []Range // sorted by Start
}

func NewAllocator() *Allocator {
	return &Allocator{next: Background + 1}
}

// Request reserves count indices for owner. An owner may hold one range;
// requesting again replaces it.
func (a *Allocator) Request(owner string, count uint64) (Range, error) {
	if count == 0 {
		return Range{}, fmt.Errorf("pick: %q requested an empty range", owner)
	}
	if count > MaxIndex || a.next > MaxIndex-count+1 {
		return Range{}, fmt.Errorf("%w: %q wants %d", ErrExhausted, owner, count)
	}
	a.Release(owner)
	r := Range{Owner: owner, Start: a.next, Count: count}
	a.next += count
	a.ranges = append(a.ranges, r)
	return r, nil
}

// Release drops owner's range.
func (a *Allocator) Release(owner string) {
	for i, r := range a.ranges {
		if r.Owner == owner {
			a.ranges = append(a.ranges[:i], a.ranges[i+1:]...)
			return
		}
	}
}

// Lookup returns owner's current range.
func (a *Allocator) Lookup(owner string) (Range, bool) {
	for _, r := range a.ranges {
		if r.Owner == owner {
			return r, true
		}
	}
	return Range{}, false
}

// Resolve maps a global index to its owner and element.
func (a *Allocator) Resolve(idx uint64) (Result, bool) {
	i := sort.Search(len(a.ranges), func(i int) bool {
		r := a.ranges[i]
		return r.Start+r.Count > idx
	})
	if i == len(a.ranges) || !a.ranges[i].Contains(idx) {
		return Result{}, false
	}
	r := a.ranges[i]
	return Result{Owner: r.Owner, Element: idx - r.Start}, true
}

// ResolvePixel decodes a read-back RGBA pixel. Alpha is ignored.
func (a *Allocator) ResolvePixel(px [4]float32) (Result, bool) {
	idx := ColorToIndex(mgl32.Vec3{px[0], px[1], px[2]})
	if idx == Background {
		return Result{}, false
	}
	return a.Resolve(idx)
}
