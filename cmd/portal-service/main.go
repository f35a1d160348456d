package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mamportal/internal/adminapi"
	"mamportal/internal/audit"
	"mamportal/internal/login"
	"mamportal/internal/verify"
	"mamportal/pkg/config"
	"mamportal/pkg/db"
	"mamportal/pkg/logger"
	"mamportal/pkg/middleware"
	"mamportal/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var store tenants.Mutator
	if pool != nil {
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("tenant schema", "err", err)
		}
		store = tenants.NewPostgresStore(pool, log)
	} else if _, err := os.Stat(cfg.ConfigPath); err == nil {
		store = tenants.NewFileStore(log, cfg.ConfigPath)
	} else {
		log.Warnw("no tenant registry configured, using in-memory store", "config_path", cfg.ConfigPath)
		store = tenants.NewMemoryStoreFromEnv(log)
	}

	ledger, err := audit.NewLedger(log, cfg.LogFile)
	if err != nil {
		log.Fatalw("audit ledger", "err", err)
	}

	verifier := verify.NewSOAPVerifier(log, cfg.VerifyTimeout)
	svc := login.NewService(log, store, verifier, ledger)
	if cfg.AccessPolicyFile != "" {
		policy, err := login.LoadAccessPolicy(context.Background(), cfg.AccessPolicyFile)
		if err != nil {
			log.Fatalw("access policy", "err", err)
		}
		svc = svc.WithPolicy(policy)
	}
	if rdb != nil {
		svc = svc.WithThrottle(login.NewThrottle(log, rdb))
	}

	admin, err := adminapi.New(log, store, ledger, verifier, adminapi.Config{
		SessionSecret: cfg.AdminSessionSecret,
		TokenTTL:      cfg.AdminTokenTTL,
		DefaultUser:   cfg.DefaultAdminUser,
		DefaultPass:   cfg.DefaultAdminPass,
		AdminFile:     cfg.AdminFile,
	})
	if err != nil {
		log.Fatalw("admin api", "err", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	login.RegisterHTTP(r, svc, store)
	admin.Register(r)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("portal-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("portal-service stopped")
}
