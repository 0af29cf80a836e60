package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fast-playout/internal/platform/config"
	"fast-playout/internal/platform/logger"
	"fast-playout/internal/platform/metrics"
	"fast-playout/internal/playout"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	store := newStore(cfg, log)
	if cfg.ChannelsFile != "" {
		n, err := playout.SeedChannelsFromFile(context.Background(), store, cfg.ChannelsFile)
		if err != nil {
			log.Error("channel seed failed", "file", cfg.ChannelsFile, "error", err)
			os.Exit(1)
		}
		log.Info("channels seeded", "file", cfg.ChannelsFile, "count", n)
	}

	stitcher, err := playout.NewStitcher(cfg.StitcherURL, cfg.StitcherTimeout, log, met)
	if err != nil {
		log.Error("stitcher setup failed", "error", err)
		os.Exit(1)
	}

	filler := playout.FillerAd{URL: cfg.FillerAdURL, Duration: cfg.FillerAdDuration}
	svc := playout.NewService(store, stitcher, filler, log, met)
	h := playout.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() {
			if n, err := store.ChannelCount(req.Context()); err == nil {
				met.SetChannels(n)
			}
		}).ServeHTTP(w, req)
	})
	r.Get("/healthz", healthz(store))
	r.Get("/next-vod", h.GetNextVod)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"stitcher_url", cfg.StitcherURL,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// newStore picks the channel store backend from configuration. A failed
// redis connection is fatal: a replica that cannot reach shared state must
// not fall back to serving positions from its own memory.
func newStore(cfg config.Config, log *slog.Logger) playout.ChannelStore {
	if cfg.StoreBackend == "redis" {
		store, err := playout.NewRedisStore(playout.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			log.Error("redis store setup failed", "error", err)
			os.Exit(1)
		}
		return store
	}
	return playout.NewMemoryStore()
}

func healthz(store playout.ChannelStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type pinger interface {
			Ping(ctx context.Context) error
		}
		if p, ok := store.(pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
