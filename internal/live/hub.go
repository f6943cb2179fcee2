// Package live hosts timeline resolvers for browser sessions over WebSocket.
// Each connection owns one tracker.Resolver fed either by scroll positions
// (geometry computed server-side) or by intersection entries computed in the
// browser.
package live

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/tracker"
)

// Recorder stores active-region changes.
type Recorder interface {
	RecordView(ctx context.Context, v store.View) error
}

// Options configures a Hub.
type Options struct {
	Tracker  tracker.Options
	Geometry tracker.GeometryOptions
	Recorder Recorder
	Logger   *zap.Logger

	// CheckOrigin overrides the same-origin check of the upgrader.
	CheckOrigin func(r *http.Request) bool
}

// Hub accepts WebSocket connections and tracks their sessions.
type Hub struct {
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup
}

// NewHub returns a Hub ready to serve.
func NewHub(opts Options) *Hub {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Geometry.Thresholds) == 0 && opts.Geometry.Margins == (tracker.Margins{}) {
		opts.Geometry = tracker.DefaultGeometryOptions()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		opts: opts,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and runs the session until the client
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(h, conn)
	if !h.add(s) {
		conn.Close()
		return
	}
	defer h.remove(s)

	h.log.Debug("session opened", zap.String("session_id", s.ID), zap.String("remote", r.RemoteAddr))
	s.run()
	h.log.Debug("session closed", zap.String("session_id", s.ID))
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close sends a going-away frame to every session and waits for their
// handlers to return. New connections are refused afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.Unlock()

	h.cancel()
	for _, s := range open {
		s.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.wg.Wait()
}

func (h *Hub) add(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.ID] = s
	return true
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
}
