// Package site serves the portfolio: HTML pages and HTMX fragments, the
// JSON API behind the timeline and command palette, the live timeline
// socket, and the admin area.
package site

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/live"
	"github.com/Zachkp/folio/internal/store"
)

//go:embed assets
var assetsFS embed.FS

// Deps are the collaborators of a Server.
type Deps struct {
	Config  *config.Config
	Content *content.Store
	DB      *store.DB
	Hub     *live.Hub
	Mailer  Mailer
	Logger  *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP surface of the site.
type Server struct {
	cfg     *config.Config
	content *content.Store
	db      *store.DB
	hub     *live.Hub
	mailer  Mailer
	log     *zap.Logger
	now     func() time.Time

	hasher     *ipHasher
	adminToken string
	engine     *gin.Engine
}

// New builds the server and its routes.
func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Content == nil || d.DB == nil || d.Hub == nil {
		return nil, errors.New("site: config, content, db and hub are required")
	}
	s := &Server{
		cfg:     d.Config,
		content: d.Content,
		db:      d.DB,
		hub:     d.Hub,
		mailer:  d.Mailer,
		log:     d.Logger,
		now:     d.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.mailer == nil {
		s.mailer = NewSMTPMailer(d.Config.SMTP)
	}

	var err error
	if s.hasher, err = newIPHasher(); err != nil {
		return nil, err
	}
	if s.adminToken, err = randomToken(); err != nil {
		return nil, err
	}
	if s.engine, err = s.routes(); err != nil {
		return nil, err
	}

	if s.adminEnabled() {
		s.log.Info("admin access available at /admin/login")
	}
	s.log.Info("visitor tracking enabled with hashed IP addresses")
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// CleanupVisitors deletes visits older than the retention window.
func (s *Server) CleanupVisitors(ctx context.Context) (int64, error) {
	before := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	n, err := s.db.CleanupVisitors(ctx, before)
	if err != nil {
		s.log.Error("error cleaning up old visitor data", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.log.Info("privacy cleanup removed visitor records",
			zap.Int64("deleted", n),
			zap.Int("retention_days", s.cfg.RetentionDays))
	}
	return n, nil
}

func (s *Server) routes() (*gin.Engine, error) {
	gin.SetMode(s.cfg.Mode)
	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log))
	r.Use(visitorTracking(s.db, s.hasher, s.log))

	tmpl, err := parseTemplates(s.now)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	r.StaticFS("/assets", http.FS(assets))
	if s.cfg.StaticDir != "" {
		r.Static("/static", s.cfg.StaticDir)
	}
	if s.cfg.ImagesDir != "" {
		r.Static("/images", s.cfg.ImagesDir)
	}

	s.setupPageRoutes(r)
	s.setupAPIRoutes(r)
	s.setupAdminRoutes(r)
	r.GET("/ws/timeline", gin.WrapH(s.hub))
	return r, nil
}
