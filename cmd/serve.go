package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/live"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/tracker"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 24 * time.Hour
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portfolio web server",
	Long: `Starts the HTTP server. The content file is watched and reloaded on
change, and visitor records older than retention_days are deleted daily.
SIGINT or SIGTERM shuts the server down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		if servePort != 0 {
			cfg.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg, log)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	contentStore, err := content.NewStore(cfg.ContentFile, log.Named("content"))
	if err != nil {
		return err
	}

	hub := live.NewHub(live.Options{
		Tracker: tracker.Options{
			Cooldown:               cfg.Tracker.Cooldown(),
			ClearWhenNoneVisible:   cfg.Tracker.ClearWhenNoneVisible,
			KeepActiveOnUnregister: cfg.Tracker.KeepActiveOnRemove,
		},
		Geometry: cfg.Tracker.Geometry(),
		Recorder: db,
		Logger:   log.Named("live"),
	})
	defer hub.Close()

	srv, err := site.New(site.Deps{
		Config:  cfg,
		Content: contentStore,
		DB:      db,
		Hub:     hub,
		Logger:  log.Named("site"),
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("database", cfg.DBPath()),
			zap.Bool("smtp", cfg.SMTP.Enabled()))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return contentStore.Watch(gctx)
	})
	g.Go(func() error {
		retentionLoop(gctx, srv, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// retentionLoop deletes expired visitor records now and then once a day.
func retentionLoop(ctx context.Context, srv *site.Server, log *zap.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		if _, err := srv.CleanupVisitors(ctx); err != nil && ctx.Err() == nil {
			log.Warn("visitor cleanup failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
