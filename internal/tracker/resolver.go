// Package tracker resolves which of a set of on-screen regions is the
// reader's current focus. Regions (timeline cards) are registered with a
// Resolver, an Observer reports how much of each region is inside the
// viewport window, and the Resolver picks the most visible one. An explicit
// selection suppresses automatic resolution for a short cooldown so that the
// scroll animation it triggers does not immediately override it.
//
// One Resolver tracks one independent list. It holds no package-level state.
package tracker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCooldown is how long an explicit selection suppresses automatic
// resolution.
const DefaultCooldown = 1000 * time.Millisecond

var (
	// ErrEmptyID is returned when a region is registered without an id.
	ErrEmptyID = errors.New("tracker: empty region id")
	// ErrUnknownRegion is returned by SetActive for ids that are not registered.
	ErrUnknownRegion = errors.New("tracker: unknown region")
)

// Event is a single intersection change reported for a registered region.
type Event struct {
	ID           string  `json:"id"`
	Intersecting bool    `json:"is_intersecting"`
	Ratio        float64 `json:"ratio"`
}

// Source tells listeners why the active region changed.
type Source string

const (
	SourceAuto       Source = "auto"
	SourceManual     Source = "manual"
	SourceUnregister Source = "unregister"
)

// Change is delivered to listeners after every change of the active region.
// An empty ID means no region is active.
type Change struct {
	ID     string
	Source Source
}

// Listener receives active-region changes. It is called without the
// resolver's lock held and may call back into the resolver.
type Listener func(Change)

// Clock is the time source used for the cooldown window.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures a Resolver. The zero value is usable.
type Options struct {
	// Cooldown after SetActive during which batches are ignored.
	// Zero means DefaultCooldown.
	Cooldown time.Duration

	// ClearWhenNoneVisible clears the active region when a batch leaves no
	// registered region intersecting. By default the last value is held.
	ClearWhenNoneVisible bool

	// KeepActiveOnUnregister leaves the active id in place when its region
	// is unregistered. By default it is cleared.
	KeepActiveOnUnregister bool

	Clock  Clock
	Logger *zap.Logger
}

// Resolver tracks registered regions and the single active one.
type Resolver struct {
	mu       sync.Mutex
	observer Observer
	opts     Options
	clock    Clock
	log      *zap.Logger

	regions map[string]BoundsProvider
	last    map[string]Event

	activeID   string
	suppressed bool
	deadline   time.Time

	enabled bool
	closed  bool

	listeners    map[int]Listener
	nextListener int
}

// New creates a Resolver fed by observer. A nil observer puts the resolver
// in manual-only mode: regions are still tracked but only SetActive changes
// the active region.
func New(observer Observer, opts Options) *Resolver {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &Resolver{
		observer:  observer,
		opts:      opts,
		clock:     clock,
		log:       log,
		regions:   make(map[string]BoundsProvider),
		last:      make(map[string]Event),
		enabled:   true,
		listeners: make(map[int]Listener),
	}
	if observer != nil {
		observer.Listen(r.OnBatch)
	} else {
		log.Debug("no intersection observer, automatic resolution disabled")
	}
	return r
}

// Register associates id with handle and starts observing it. A handle
// already registered under id is unobserved first. A nil handle unregisters
// id; unknown ids are ignored.
func (r *Resolver) Register(id string, handle BoundsProvider) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}

	if prev, ok := r.regions[id]; ok && r.observing() {
		r.observer.Unobserve(id, prev)
	}

	if handle != nil {
		r.regions[id] = handle
		if r.observing() {
			r.observer.Observe(id, handle)
		}
		r.mu.Unlock()
		return nil
	}

	_, known := r.regions[id]
	delete(r.regions, id)
	delete(r.last, id)

	var change *Change
	if known && id == r.activeID && !r.opts.KeepActiveOnUnregister {
		r.activeID = ""
		change = &Change{Source: SourceUnregister}
	}
	listeners := r.snapshotListeners(change)
	r.mu.Unlock()

	r.notify(listeners, change)
	return nil
}

// Unregister stops tracking id. It is the same as Register(id, nil).
func (r *Resolver) Unregister(id string) error {
	return r.Register(id, nil)
}

// OnBatch resolves one batch of intersection events. The whole batch yields
// at most one change of the active region. While suppressed the batch does
// not affect the active region.
func (r *Resolver) OnBatch(events []Event) {
	if len(events) == 0 {
		return
	}

	r.mu.Lock()
	if r.closed || !r.enabled {
		r.mu.Unlock()
		return
	}

	best := -1
	for i, ev := range events {
		if _, ok := r.regions[ev.ID]; !ok {
			continue
		}
		r.last[ev.ID] = ev
		if !ev.Intersecting {
			continue
		}
		if best < 0 || ev.Ratio > events[best].Ratio {
			best = i
		}
	}

	if r.suppressedLocked() {
		r.mu.Unlock()
		return
	}

	next := r.activeID
	switch {
	case best >= 0:
		next = events[best].ID
	case r.opts.ClearWhenNoneVisible && !r.anyVisibleLocked():
		next = ""
	}

	var change *Change
	if next != r.activeID {
		r.activeID = next
		change = &Change{ID: next, Source: SourceAuto}
		r.log.Debug("active region resolved", zap.String("id", next), zap.Int("batch", len(events)))
	}
	listeners := r.snapshotListeners(change)
	r.mu.Unlock()

	r.notify(listeners, change)
}

// SetActive makes id the active region and suppresses automatic resolution
// for the cooldown window. An empty id clears the active region. Repeated
// calls restart the window.
func (r *Resolver) SetActive(id string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if id != "" {
		if _, ok := r.regions[id]; !ok {
			r.mu.Unlock()
			return ErrUnknownRegion
		}
	}

	r.suppressed = true
	r.deadline = r.clock.Now().Add(r.opts.Cooldown)

	var change *Change
	if id != r.activeID {
		r.activeID = id
		change = &Change{ID: id, Source: SourceManual}
	}
	listeners := r.snapshotListeners(change)
	r.mu.Unlock()

	r.notify(listeners, change)
	return nil
}

// ActiveID returns the active region id, if any.
func (r *Resolver) ActiveID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID, r.activeID != ""
}

// Suppressed reports whether automatic resolution is currently paused.
func (r *Resolver) Suppressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressedLocked()
}

// Registered reports whether id is currently tracked.
func (r *Resolver) Registered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.regions[id]
	return ok
}

// Len returns the number of tracked regions.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}

// Subscribe adds a listener for active-region changes and returns a function
// that removes it.
func (r *Resolver) Subscribe(fn Listener) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}
	}
	key := r.nextListener
	r.nextListener++
	r.listeners[key] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, key)
		r.mu.Unlock()
	}
}

// SetEnabled pauses or resumes observation. Disabling disconnects the
// observer; enabling observes every registered region again.
func (r *Resolver) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.enabled == enabled {
		return
	}
	r.enabled = enabled
	if r.observer == nil {
		return
	}
	if !enabled {
		r.observer.Disconnect()
		return
	}
	for id, h := range r.regions {
		r.observer.Observe(id, h)
	}
}

// Close disconnects the observer and drops all listeners. Further calls are
// no-ops.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.observer != nil {
		r.observer.Disconnect()
	}
	r.listeners = make(map[int]Listener)
}

func (r *Resolver) observing() bool {
	return r.observer != nil && r.enabled
}

// suppressedLocked checks the cooldown deadline lazily.
func (r *Resolver) suppressedLocked() bool {
	if r.suppressed && !r.clock.Now().Before(r.deadline) {
		r.suppressed = false
	}
	return r.suppressed
}

func (r *Resolver) anyVisibleLocked() bool {
	for _, ev := range r.last {
		if ev.Intersecting {
			return true
		}
	}
	return false
}

func (r *Resolver) snapshotListeners(change *Change) []Listener {
	if change == nil || len(r.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		out = append(out, fn)
	}
	return out
}

func (r *Resolver) notify(listeners []Listener, change *Change) {
	if change == nil {
		return
	}
	for _, fn := range listeners {
		fn(*change)
	}
}
