package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aaronzipp/coup-online/internal/auth"
	"github.com/aaronzipp/coup-online/internal/config"
	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/handlers"
	"github.com/aaronzipp/coup-online/internal/sse"
	"github.com/aaronzipp/coup-online/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	log := config.NewLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, closeSnapshots, err := openSnapshots(cfg, log)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	svc := game.NewService(store.NewLobbyStore(),
		game.WithSnapshotStore(snapshots),
		game.WithBroadcaster(sse.NewBroadcaster(log)),
		game.WithLogger(log),
		game.WithReactionWindow(cfg.ReactionWindow),
	)
	if _, err := svc.Restore(ctx); err != nil {
		return err
	}

	secret := cfg.TokenSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("COUP_TOKEN_SECRET not set, guest tokens will not survive a restart")
	}
	issuer, err := auth.NewIssuer(secret, cfg.TokenTTL, nil)
	if err != nil {
		return err
	}

	h := &handlers.Context{
		Service:        svc,
		Auth:           issuer,
		Log:            log,
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server starting on %s", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openSnapshots picks SQLite when a database path is configured and an
// in-memory store otherwise.
func openSnapshots(cfg config.Config, log logrus.FieldLogger) (game.SnapshotStore, func(), error) {
	if cfg.DBPath == "" {
		log.Info("COUP_DB_PATH not set, rooms are kept in memory only")
		return store.NewMemorySnapshotStore(), func() {}, nil
	}
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("path", cfg.DBPath).Info("Using SQLite snapshots")
	return db, func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("close database")
		}
	}, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
