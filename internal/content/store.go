package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store serves the current portfolio and reloads it when its file changes.
type Store struct {
	mu      sync.RWMutex
	current *Portfolio
	path    string
	log     *zap.Logger
}

// NewStore loads the portfolio from path (built-in content when empty).
func NewStore(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving content path: %w", err)
		}
		path = abs
	}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{current: p, path: path, log: log}, nil
}

// NewStaticStore wraps an already loaded portfolio; Watch is a no-op.
func NewStaticStore(p *Portfolio) *Store {
	return &Store{current: p, log: zap.NewNop()}
}

// Get returns the current portfolio. Callers must not modify it.
func (s *Store) Get() *Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the file. On error the previous content stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	p, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	s.log.Info("content reloaded",
		zap.String("path", s.path),
		zap.Int("experience", len(p.Experience)),
		zap.Int("skills", len(p.Skills)))
	return nil
}

// Watch reloads the content whenever its file is written, created or
// renamed into place. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating content watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file rather than
	// writing it in place.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching %s: %w", s.path, err)
	}
	s.log.Debug("watching content", zap.String("path", s.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Warn("content reload failed, keeping previous content", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("content watcher error", zap.Error(err))
		}
	}
}
