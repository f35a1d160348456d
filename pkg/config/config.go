// pkg/config/config.go
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// On-disk state (JSONL audit ledger, admin user db, INI tenant registry)
	DataDir    string
	LogFile    string
	AdminFile  string
	ConfigPath string

	// Admin sessions
	AdminSessionSecret string
	AdminTokenTTL      time.Duration
	DefaultAdminUser   string
	DefaultAdminPass   string

	// Optional login access policy (YAML rules, optionally referencing rego)
	AccessPolicyFile string

	// Outbound credential verification
	VerifyTimeout time.Duration

	// Honor X-Forwarded-For / X-Real-IP when behind a reverse proxy.
	TrustProxyHeaders bool

	// Redis & Postgres (both optional; file stores are the default)
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	dataDir := env("DATA_DIR", "data")
	cfg := Config{
		Env:                env("MAM_ENV", "dev"),
		HTTPAddr:           env("MAM_HTTP_ADDR", ":8080"),
		DataDir:            dataDir,
		LogFile:            env("LOG_FILE", filepath.Join(dataDir, "login_attempts.jsonl")),
		AdminFile:          env("ADMIN_FILE", filepath.Join(dataDir, "admin_users.json")),
		ConfigPath:         env("CONFIG_PATH", "config.ini"),
		AdminSessionSecret: env("ADMIN_SESSION_SECRET", "CHANGE_ME_SESSION_SECRET"),
		AdminTokenTTL:      envDur("ADMIN_TOKEN_TTL_MIN", 480) * time.Minute,
		DefaultAdminUser:   env("DEFAULT_ADMIN_USER", "admin"),
		DefaultAdminPass:   env("DEFAULT_ADMIN_PASS", "admin"),
		AccessPolicyFile:   env("ACCESS_POLICY_FILE", ""),
		VerifyTimeout:      envDur("VERIFY_TIMEOUT_SEC", 10) * time.Second,
		TrustProxyHeaders:  envBool("TRUST_PROXY_HEADERS", false),
		RedisURL:           env("REDIS_URL", ""),
		DatabaseURL:        env("DATABASE_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[INFO] DATABASE_URL not set — using INI file tenant registry at " + cfg.ConfigPath)
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
