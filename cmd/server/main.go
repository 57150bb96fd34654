package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AdeelRMZ/BlockShock/internal/config"
	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/httpapi"
	"github.com/AdeelRMZ/BlockShock/internal/hub"
	"github.com/AdeelRMZ/BlockShock/internal/logging"
	"github.com/AdeelRMZ/BlockShock/internal/random"
	"github.com/AdeelRMZ/BlockShock/internal/settings"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
	"github.com/AdeelRMZ/BlockShock/internal/storage"
	"github.com/AdeelRMZ/BlockShock/internal/storage/file"
	"github.com/AdeelRMZ/BlockShock/internal/storage/postgres"
	"github.com/AdeelRMZ/BlockShock/internal/storage/sqlite"
	"github.com/AdeelRMZ/BlockShock/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		log.Fatal(err)
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	format, err := snapshot.ParseFormat(cfg.SnapshotFormat)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, format)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := settings.New(store, logger)
	h := hub.NewHub(context.Background(), hub.Options{
		Store:  store,
		Format: format,
		Scores: svc,
		NewSpawner: func(code string) *engine.Spawner {
			return engine.NewSpawner(random.New(random.Derive(cfg.Seed, code)))
		},
		Logger: logger,
	})

	handler := httpapi.SetupRoutes(h, svc, ws.Options{
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		Logger:       logger,
	}, logger)
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Rooms write their final snapshots before the store closes.
		done := make(chan struct{})
		h.Inbox() <- hub.ShutdownHub{Done: done}
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("rooms did not stop in time")
		}
		return err
	})
	return g.Wait()
}

func openStore(cfg config.Config, format snapshot.Format) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.StorePostgres:
		return postgres.Open(cfg.PostgresDSN)
	default:
		return file.Open(cfg.DataDir, file.WithSnapshotName(snapshotName(format)))
	}
}

func snapshotName(f snapshot.Format) string {
	if f == snapshot.FormatMsgpack {
		return "savedGame.msgpack"
	}
	return file.DefaultSnapshotName
}
