package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/gatekeeper/internal/auth"
	"github.com/geocoder89/gatekeeper/internal/config"
	"github.com/geocoder89/gatekeeper/internal/db"
	httpx "github.com/geocoder89/gatekeeper/internal/http"
	"github.com/geocoder89/gatekeeper/internal/http/handlers"
	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/geocoder89/gatekeeper/internal/redisclient"
	"github.com/geocoder89/gatekeeper/internal/repo/memory"
	"github.com/geocoder89/gatekeeper/internal/repo/postgres"
	"github.com/geocoder89/gatekeeper/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type credentialStore interface {
	handlers.UserStore
	Seed(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.UsesDefaultSecret() && cfg.Env != "dev" && cfg.Env != "test" {
		log.Warn("JWT_SECRET is the built-in demo value; set a real secret")
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	hasher, err := security.NewHasher(cfg.PasswordHasher)
	if err != nil {
		log.Error("password hasher", "err", err)
		os.Exit(1)
	}

	var (
		store   credentialStore
		cleanup []func()
	)

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		store = postgres.NewUsersRepo(pool, hasher, prom)
	case "memory", "":
		store = memory.NewUsersRepo(hasher)
	default:
		log.Error("unknown STORE_DRIVER", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	err = store.Seed(seedCtx)
	cancelSeed()
	if err != nil {
		log.Error("seed demo accounts failed", "err", err)
		os.Exit(1)
	}

	deps := httpx.Deps{
		Log:       log,
		Cfg:       cfg,
		Prom:      prom,
		Gatherer:  reg,
		Tokens:    auth.NewManager(auth.StaticKey(cfg.JWTSecret), auth.WithTTL(cfg.SessionTTL)),
		Cookies:   auth.NewCookieJar(cfg.CookieName, cfg.SessionTTL, cfg.CookieSecure),
		Hasher:    hasher,
		Users:     store,
		Directory: memory.NewDirectoryRepo(),
		Ping:      store.Ping,
	}

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanup = append(cleanup, func() { _ = rdb.Close() })

		pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			// the limiter fails open, so keep serving
			log.Warn("redis unreachable, rate limits may not apply", "err", err)
		}
		cancelPing()

		deps.RateCounter = rdb
	}

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "hasher", cfg.PasswordHasher)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}

		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
