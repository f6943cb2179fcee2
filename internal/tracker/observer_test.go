package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersect(t *testing.T) {
	tests := []struct {
		name      string
		rect      Rect
		top, bot  float64
		wantRatio float64
		wantOK    bool
	}{
		{"fully inside", Rect{Top: 110, Height: 20}, 100, 200, 1, true},
		{"half inside", Rect{Top: 50, Height: 100}, 100, 200, 0.5, true},
		{"taller than window", Rect{Top: 0, Height: 400}, 100, 200, 0.25, true},
		{"above", Rect{Top: 0, Height: 50}, 100, 200, 0, false},
		{"touching edge", Rect{Top: 0, Height: 100}, 100, 200, 0, false},
		{"below", Rect{Top: 250, Height: 50}, 100, 200, 0, false},
		{"empty window", Rect{Top: 0, Height: 50}, 100, 100, 0, false},
		{"zero height inside", Rect{Top: 150}, 100, 200, 1, true},
		{"zero height outside", Rect{Top: 50}, 100, 200, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, ok := Intersect(tt.rect, tt.top, tt.bot)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantRatio, ratio, 1e-9)
		})
	}
}

type batchRecorder struct{ batches [][]Event }

func (b *batchRecorder) record(events []Event) { b.batches = append(b.batches, events) }

func TestGeometryObserverBatches(t *testing.T) {
	g := NewGeometryObserver(DefaultGeometryOptions())
	rec := &batchRecorder{}
	g.Listen(rec.record)

	// Viewport 1000px, default margins leave the band [400, 600] + offset.
	g.Observe("a", Rect{Top: 0, Height: 200})
	g.Observe("b", Rect{Top: 400, Height: 200})
	g.Observe("c", Rect{Top: 900, Height: 200})

	g.Scroll(0, 1000)
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []Event{
		{ID: "a", Intersecting: false, Ratio: 0},
		{ID: "b", Intersecting: true, Ratio: 1},
		{ID: "c", Intersecting: false, Ratio: 0},
	}, rec.batches[0])

	// Nothing crosses a threshold.
	g.Scroll(10, 1000)
	assert.Len(t, rec.batches, 1)

	// Band [900, 1100]: b leaves, c fully inside.
	g.Scroll(500, 1000)
	require.Len(t, rec.batches, 2)
	assert.Equal(t, []Event{
		{ID: "b", Intersecting: false, Ratio: 0},
		{ID: "c", Intersecting: true, Ratio: 1},
	}, rec.batches[1])
}

func TestGeometryObserverThresholdCrossing(t *testing.T) {
	g := NewGeometryObserver(GeometryOptions{Thresholds: []float64{0.5}})
	rec := &batchRecorder{}
	g.Listen(rec.record)
	g.Observe("a", Rect{Top: 0, Height: 100})

	g.Scroll(-80, 100) // window [-80, 20]: ratio 0.2
	g.Scroll(-70, 100) // 0.3, same bucket
	g.Scroll(-40, 100) // 0.6, crosses 0.5
	require.Len(t, rec.batches, 2)
	assert.InDelta(t, 0.6, rec.batches[1][0].Ratio, 1e-9)
}

func TestGeometryObserverUnobserveAndDisconnect(t *testing.T) {
	g := NewGeometryObserver(DefaultGeometryOptions())
	rec := &batchRecorder{}
	g.Listen(rec.record)

	g.Observe("a", Rect{Top: 450, Height: 10})
	g.Observe("b", Rect{Top: 460, Height: 10})
	g.Unobserve("a", nil)
	g.Unobserve("missing", nil)
	assert.Equal(t, []string{"b"}, g.Observed())

	g.Scroll(0, 1000)
	require.Len(t, rec.batches, 1)
	assert.Equal(t, "b", rec.batches[0][0].ID)

	g.Disconnect()
	g.Scroll(0, 1000)
	assert.Len(t, rec.batches, 1)
	assert.Empty(t, g.Observed())
}

func TestGeometryObserverDrivesResolver(t *testing.T) {
	g := NewGeometryObserver(DefaultGeometryOptions())
	r := New(g, Options{})

	require.NoError(t, r.Register("first", Rect{Top: 0, Height: 800}))
	require.NoError(t, r.Register("second", Rect{Top: 800, Height: 800}))

	// Band [400, 600] sits inside "first".
	g.Scroll(0, 1000)
	id, _ := r.ActiveID()
	assert.Equal(t, "first", id)

	// Band [1200, 1400] sits inside "second".
	g.Scroll(800, 1000)
	id, _ = r.ActiveID()
	assert.Equal(t, "second", id)

	// Replacing the handle reports the region fresh, once.
	var batches int
	g.Listen(func(events []Event) {
		batches++
		r.OnBatch(events)
	})
	require.NoError(t, r.Register("second", Rect{Top: 1000, Height: 800}))
	g.Scroll(800, 1000)
	assert.Equal(t, 1, batches)
	assert.Equal(t, []string{"first", "second"}, g.Observed())
}
