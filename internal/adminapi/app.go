// Package adminapi is the operator-facing surface: tenant CRUD against the
// registry, audit/stats views, connection tests, and the admin account
// store. It is the only writer of tenant records; the login path never
// mutates the registry.
package adminapi

import (
	"time"

	"go.uber.org/zap"

	"mamportal/internal/audit"
	"mamportal/internal/verify"
	"mamportal/pkg/tenants"
)

// Config holds admin-api specific configuration.
type Config struct {
	SessionSecret string
	TokenTTL      time.Duration
	DefaultUser   string
	DefaultPass   string
	AdminFile     string
}

// App is the admin application container.
//
// Keep it lean: shared deps and config only.
// Request-scoped work should use context.
type App struct {
	log      *zap.SugaredLogger
	store    tenants.Mutator
	ledger   *audit.Ledger
	verifier *verify.SOAPVerifier
	users    *UserStore
	sessions *sessionManager
}

// New constructs App and ensures the default admin account exists.
func New(log *zap.SugaredLogger, store tenants.Mutator, ledger *audit.Ledger, verifier *verify.SOAPVerifier, cfg Config) (*App, error) {
	users, err := NewUserStore(cfg.AdminFile)
	if err != nil {
		return nil, err
	}
	created, err := users.EnsureDefault(cfg.DefaultUser, cfg.DefaultPass)
	if err != nil {
		return nil, err
	}
	if created {
		log.Warnw("default admin ensured — change the password before production", "username", cfg.DefaultUser)
	}
	return &App{
		log:      log,
		store:    store,
		ledger:   ledger,
		verifier: verifier,
		users:    users,
		sessions: newSessionManager(cfg.SessionSecret, cfg.TokenTTL),
	}, nil
}
