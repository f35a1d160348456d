// internal/login/http.go
package login

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mamportal/pkg/tenants"
)

// RegisterHTTP mounts the public login surface.
// POST /api/login      body: { username|email, password, server_key? }
// GET  /api/servers    public tenant projection (no secrets)
// GET  /api/health
func RegisterHTTP(r chi.Router, svc *Service, registry tenants.Provider) {
	r.Post("/api/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			ServerKey string `json:"server_key"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		identifier := body.Username
		if identifier == "" {
			identifier = body.Email
		}

		out := svc.Login(req.Context(), Request{
			Identifier: identifier,
			Password:   body.Password,
			ServerKey:  strings.TrimSpace(body.ServerKey),
			IP:         clientIP(req),
			UserAgent:  req.UserAgent(),
		})

		if out.OK {
			writeJSON(w, http.StatusOK, map[string]any{
				"redirectUrl": out.RedirectURL,
				"server":      out.TenantKey,
			})
			return
		}

		// Input problems are reported as such; every other failure collapses
		// into one generic auth-failure body so the response does not reveal
		// which tenants exist or were tried.
		switch out.Reason {
		case ReasonMissingCredentials:
			writeJSON(w, http.StatusBadRequest, map[string]any{"reason": out.Reason, "error": "username/password required"})
		case ReasonInvalidEmail:
			writeJSON(w, http.StatusBadRequest, map[string]any{"reason": out.Reason, "error": "invalid email format"})
		case ReasonInternalError:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"reason": out.Reason, "error": "internal error"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"reason": ReasonAuthFailed, "error": "login failed"})
		}
	})

	r.Get("/api/servers", func(w http.ResponseWriter, req *http.Request) {
		list, _, err := registry.Snapshot(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
			return
		}
		type pub struct {
			Key     string   `json:"key"`
			Name    string   `json:"name"`
			Server  string   `json:"server"`
			Domains []string `json:"domains"`
		}
		out := make([]pub, 0, len(list))
		for _, t := range list {
			out = append(out, pub{Key: t.Key, Name: t.Name, Server: t.BaseURL, Domains: t.Domains})
		}
		writeJSON(w, http.StatusOK, map[string]any{"servers": out})
	})

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
}

// clientIP copes with both host:port remote addrs and the bare IP that the
// RealIP middleware leaves behind.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
