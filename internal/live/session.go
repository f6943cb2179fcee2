package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/tracker"
)

const (
	maxMessageSize = 64 << 10
	writeWait      = 5 * time.Second
	recordTimeout  = 5 * time.Second
)

// Client message types.
const (
	MsgRegister   = "register"
	MsgUnregister = "unregister"
	MsgScroll     = "scroll"
	MsgEntries    = "entries"
	MsgSelect     = "select"
	MsgPause      = "pause"
	MsgResume     = "resume"
)

// Server message types.
const (
	MsgHello  = "hello"
	MsgActive = "active"
	MsgError  = "error"
)

// ClientMessage is sent by the browser. Only the fields of its type are set.
type ClientMessage struct {
	Type           string          `json:"type"`
	ID             string          `json:"id,omitempty"`
	Top            float64         `json:"top,omitempty"`
	Height         float64         `json:"height,omitempty"`
	Offset         float64         `json:"offset,omitempty"`
	ViewportHeight float64         `json:"viewport_height,omitempty"`
	Entries        []tracker.Event `json:"entries,omitempty"`
}

// ServerMessage is pushed to the browser. For "active" an empty ID means no
// card is active.
type ServerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	ID        string `json:"id"`
	Source    string `json:"source,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Session is one connected timeline.
type Session struct {
	ID string

	hub      *Hub
	conn     *websocket.Conn
	log      *zap.Logger
	resolver *tracker.Resolver
	geometry *tracker.GeometryObserver

	writeMu sync.Mutex
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	s := &Session{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
	}
	s.log = h.log.With(zap.String("session_id", s.ID))
	s.geometry = tracker.NewGeometryObserver(h.opts.Geometry)

	opts := h.opts.Tracker
	opts.Logger = s.log
	s.resolver = tracker.New(s.geometry, opts)
	s.resolver.Subscribe(s.onChange)
	return s
}

func (s *Session) run() {
	defer s.resolver.Close()
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.send(ServerMessage{Type: MsgHello, SessionID: s.ID})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("invalid message format")
			continue
		}
		if err := s.handle(msg); err != nil {
			s.sendError(err.Error())
		}
	}
}

func (s *Session) handle(msg ClientMessage) error {
	switch msg.Type {
	case MsgRegister:
		if msg.Height < 0 {
			return fmt.Errorf("negative height for %q", msg.ID)
		}
		return s.resolver.Register(msg.ID, tracker.Rect{Top: msg.Top, Height: msg.Height})
	case MsgUnregister:
		return s.resolver.Unregister(msg.ID)
	case MsgScroll:
		if msg.ViewportHeight <= 0 {
			return errors.New("viewport_height must be positive")
		}
		s.geometry.Scroll(msg.Offset, msg.ViewportHeight)
		return nil
	case MsgEntries:
		for _, e := range msg.Entries {
			if e.Ratio < 0 || e.Ratio > 1 {
				return fmt.Errorf("ratio for %q must be within [0, 1]", e.ID)
			}
		}
		s.resolver.OnBatch(msg.Entries)
		return nil
	case MsgSelect:
		if err := s.resolver.SetActive(msg.ID); err != nil {
			if errors.Is(err, tracker.ErrUnknownRegion) {
				return fmt.Errorf("unknown region %q", msg.ID)
			}
			return err
		}
		return nil
	case MsgPause:
		s.resolver.SetEnabled(false)
		return nil
	case MsgResume:
		s.resolver.SetEnabled(true)
		return nil
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// onChange records the change before pushing it, so a client that has seen
// the push can rely on the view being stored.
func (s *Session) onChange(c tracker.Change) {
	if rec := s.hub.opts.Recorder; rec != nil && c.ID != "" && c.Source != tracker.SourceUnregister {
		ctx, cancel := context.WithTimeout(s.hub.ctx, recordTimeout)
		err := rec.RecordView(ctx, store.View{
			SessionID: s.ID,
			RegionID:  c.ID,
			Source:    string(c.Source),
		})
		cancel()
		if err != nil {
			s.log.Warn("failed to record view", zap.String("region", c.ID), zap.Error(err))
		}
	}
	s.send(ServerMessage{Type: MsgActive, SessionID: s.ID, ID: c.ID, Source: string(c.Source)})
}

func (s *Session) sendError(message string) {
	s.send(ServerMessage{Type: MsgError, SessionID: s.ID, Message: message})
}

func (s *Session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("websocket write", zap.Error(err))
	}
}

func (s *Session) close(code int, text string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	s.conn.Close()
}
