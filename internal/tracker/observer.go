package tracker

import (
	"sort"
	"sync"
)

// Rect is a region's vertical extent in document coordinates (px).
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom returns the lower edge of the rect.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Bounds lets a plain Rect serve as its own handle.
func (r Rect) Bounds() Rect { return r }

// BoundsProvider is the handle a region is registered with. The resolver
// never owns it; observers read it to locate the region.
type BoundsProvider interface {
	Bounds() Rect
}

// BatchFunc receives all changes detected in one observation pass.
type BatchFunc func([]Event)

// Observer is the host's viewport-intersection facility. A resolver installs
// exactly one BatchFunc with Listen. Observe and Unobserve must not deliver
// batches synchronously.
type Observer interface {
	Listen(fn BatchFunc)
	Observe(id string, handle BoundsProvider)
	Unobserve(id string, handle BoundsProvider)
	Disconnect()
}

// Margins shrink the root window by a fraction of the viewport height.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// GeometryOptions configures a GeometryObserver.
type GeometryOptions struct {
	Margins    Margins
	Thresholds []float64
}

// DefaultGeometryOptions returns a centre band covering the middle 20% of
// the viewport with a single 0.5 threshold.
func DefaultGeometryOptions() GeometryOptions {
	return GeometryOptions{
		Margins:    Margins{Top: 0.4, Bottom: 0.4},
		Thresholds: []float64{0.5},
	}
}

type target struct {
	handle       BoundsProvider
	seen         bool
	intersecting bool
	bucket       int
}

// GeometryObserver computes intersection changes from region bounds and the
// scroll position reported by a client.
type GeometryObserver struct {
	mu       sync.Mutex
	opts     GeometryOptions
	listener BatchFunc
	targets  map[string]*target
	order    []string
}

// NewGeometryObserver returns an observer with the given options. Thresholds
// are sorted; an empty list means a single threshold of 0.
func NewGeometryObserver(opts GeometryOptions) *GeometryObserver {
	th := append([]float64(nil), opts.Thresholds...)
	if len(th) == 0 {
		th = []float64{0}
	}
	sort.Float64s(th)
	opts.Thresholds = th
	return &GeometryObserver{
		opts:    opts,
		targets: make(map[string]*target),
	}
}

// Listen implements Observer.
func (g *GeometryObserver) Listen(fn BatchFunc) {
	g.mu.Lock()
	g.listener = fn
	g.mu.Unlock()
}

// Observe implements Observer. Observing an id again replaces its handle and
// reports it fresh on the next scroll.
func (g *GeometryObserver) Observe(id string, handle BoundsProvider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.targets[id]; !ok {
		g.order = append(g.order, id)
	}
	g.targets[id] = &target{handle: handle}
}

// Unobserve implements Observer.
func (g *GeometryObserver) Unobserve(id string, _ BoundsProvider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.targets[id]; !ok {
		return
	}
	delete(g.targets, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Disconnect implements Observer.
func (g *GeometryObserver) Disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.targets = make(map[string]*target)
	g.order = nil
}

// Observed returns the observed ids in observation order.
func (g *GeometryObserver) Observed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

// Scroll recomputes every observed region against the window at offset and
// delivers one batch with the regions whose state changed. Regions observed
// since the previous scroll are always included.
func (g *GeometryObserver) Scroll(offset, viewportHeight float64) {
	g.mu.Lock()
	rootTop := offset + viewportHeight*g.opts.Margins.Top
	rootBottom := offset + viewportHeight - viewportHeight*g.opts.Margins.Bottom

	var batch []Event
	for _, id := range g.order {
		t := g.targets[id]
		ratio, ok := Intersect(t.handle.Bounds(), rootTop, rootBottom)
		bucket := -1
		if ok {
			bucket = g.bucket(ratio)
		}
		if t.seen && t.intersecting == ok && t.bucket == bucket {
			continue
		}
		t.seen, t.intersecting, t.bucket = true, ok, bucket
		batch = append(batch, Event{ID: id, Intersecting: ok, Ratio: ratio})
	}
	fn := g.listener
	g.mu.Unlock()

	if fn != nil && len(batch) > 0 {
		fn(batch)
	}
}

// bucket counts the thresholds at or below ratio.
func (g *GeometryObserver) bucket(ratio float64) int {
	n := 0
	for _, th := range g.opts.Thresholds {
		if ratio >= th {
			n++
		}
	}
	return n
}

// Intersect returns the fraction of r inside [rootTop, rootBottom] and
// whether the two overlap. A zero-height rect inside the window counts as
// fully visible.
func Intersect(r Rect, rootTop, rootBottom float64) (float64, bool) {
	if rootBottom <= rootTop {
		return 0, false
	}
	lo := max(r.Top, rootTop)
	hi := min(r.Bottom(), rootBottom)
	if r.Height <= 0 {
		if r.Top >= rootTop && r.Top <= rootBottom {
			return 1, true
		}
		return 0, false
	}
	if hi <= lo {
		return 0, false
	}
	ratio := (hi - lo) / r.Height
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}
