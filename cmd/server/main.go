package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carteirinha/internal/photo"
	"carteirinha/internal/platform/config"
	"carteirinha/internal/platform/httpserver"
	"carteirinha/internal/platform/logger"
	"carteirinha/internal/platform/metrics"
	platformredis "carteirinha/internal/platform/redis"
	"carteirinha/internal/student/handler"
	"carteirinha/internal/student/service"
	"carteirinha/internal/student/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}
	if err := store.ApplyMigrations(db); err != nil {
		log.Error("migrations failed", "error", err.Error())
		os.Exit(1)
	}

	// Redis backs the session cache when configured; nil means the cache
	// endpoints simply are not wired server-side.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	photos, err := photo.NewFSStore(cfg.Photo.Dir, cfg.Photo.BaseURL)
	if err != nil {
		log.Error("photo store init failed", "error", err.Error())
		os.Exit(1)
	}

	m := metrics.New()
	students := service.New(store.NewPostgres(db), photos, log, m)

	router := chi.NewRouter()
	handler.New(students, log, m, cfg.RateLimit).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, redisClient))
	router.Handle("/photos/*", http.StripPrefix("/photos/", http.FileServer(http.Dir(cfg.Photo.Dir))))

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting carteirinha gateway", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}

// healthz reports readiness of the backing stores.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
