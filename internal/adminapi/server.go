// internal/adminapi/server.go
package adminapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Register mounts the admin routes under /api/admin.
func (a *App) Register(r chi.Router) {
	allowed := []string{}
	if v := strings.TrimSpace(os.Getenv("ADMIN_CORS_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				allowed = append(allowed, s)
			}
		}
	}

	r.Route("/api/admin", func(ar chi.Router) {
		if len(allowed) > 0 {
			ar.Use(cors(allowed))
		}
		ar.Post("/login", a.postLogin)
		ar.Post("/logout", a.postLogout)
		ar.Get("/me", a.getMe)

		ar.Group(func(pr chi.Router) {
			pr.Use(a.adminAuth)
			pr.Get("/servers", a.listServers)
			pr.Post("/servers", a.createServer)
			pr.Put("/servers/{key}", a.updateServer)
			pr.Delete("/servers/{key}", a.deleteServer)
			pr.Post("/servers/{key}/test", a.testServer)
			pr.Get("/stats", a.getStats)
			pr.Get("/logs", a.getLogs)
			pr.Get("/users", a.listUsers)
			pr.Post("/users", a.createUser)
			pr.Delete("/users/{username}", a.deleteUser)
		})
	})
}

// cors sets CORS headers and answers preflight for the allowed origins.
func cors(allowed []string) func(http.Handler) http.Handler {
	match := func(origin string) bool {
		if origin == "" {
			return false
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); match(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
