// internal/adminapi/handlers.go
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mamportal/internal/audit"
	"mamportal/internal/verify"
	"mamportal/pkg/tenants"
)

const (
	statsWindow  = 5000
	logsDefault  = 200
	logsMaxLimit = 2000
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// --- sessions ---

func (a *App) postLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Username == "" || body.Password == "" {
		writeErr(w, http.StatusBadRequest, "username/password required")
		return
	}
	if !a.users.Authenticate(body.Username, body.Password) {
		writeErr(w, http.StatusUnauthorized, "admin login failed")
		return
	}
	token, err := a.sessions.issue(body.Username)
	if err != nil {
		a.log.Errorw("session issue failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "token": token})
}

func (a *App) postLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; the client discards its copy.
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) getMe(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		if username, err := a.sessions.validate(strings.TrimSpace(authz[len("Bearer "):])); err == nil && username != "" {
			writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "username": username})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
}

// --- tenant registry ---

// serverPayload is the admin wire form of a tenant record. The preauth key
// is write-only: list responses carry only the masked projection.
type serverPayload struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Server      string   `json:"server"`
	Domains     []string `json:"domains"`
	PreauthKey  string   `json:"preauthkey"`
	SOAPPath    string   `json:"soap_path"`
	PreauthPath string   `json:"preauth_path"`
	CAFile      string   `json:"ca_file"`
	InsecureTLS bool     `json:"insecure_tls"`
}

func (p serverPayload) tenant() tenants.Tenant {
	t := tenants.Tenant{
		Key:         p.Key,
		Name:        p.Name,
		BaseURL:     p.Server,
		Domains:     p.Domains,
		Secret:      p.PreauthKey,
		VerifyPath:  p.SOAPPath,
		TokenPath:   p.PreauthPath,
		CAFile:      p.CAFile,
		InsecureTLS: p.InsecureTLS,
	}
	t.Normalize()
	if t.Name == "" {
		t.Name = t.Key
	}
	return t
}

func (a *App) listServers(w http.ResponseWriter, r *http.Request) {
	list, _, err := a.store.Snapshot(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to read registry")
		return
	}
	type view struct {
		Key          string   `json:"key"`
		Name         string   `json:"name"`
		Server       string   `json:"server"`
		Domains      []string `json:"domains"`
		MaskedSecret string   `json:"preauthkey_masked"`
		SOAPPath     string   `json:"soap_path"`
		PreauthPath  string   `json:"preauth_path"`
		CAFile       string   `json:"ca_file,omitempty"`
		InsecureTLS  bool     `json:"insecure_tls"`
	}
	out := make([]view, 0, len(list))
	for _, t := range list {
		out = append(out, view{
			Key: t.Key, Name: t.Name, Server: t.BaseURL, Domains: t.Domains,
			MaskedSecret: t.Masked(), SOAPPath: t.VerifyPath, PreauthPath: t.TokenPath,
			CAFile: t.CAFile, InsecureTLS: t.InsecureTLS,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": out})
}

func (a *App) createServer(w http.ResponseWriter, r *http.Request) {
	var p serverPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := a.store.Create(r.Context(), p.tenant()); err != nil {
		if errors.Is(err, tenants.ErrDuplicateKey) {
			writeErr(w, http.StatusBadRequest, "key already exists")
			return
		}
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	a.log.Infow("tenant created", "key", p.Key, "by", adminUserFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) updateServer(w http.ResponseWriter, r *http.Request) {
	var p serverPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}
	p.Key = chi.URLParam(r, "key")
	if err := a.store.Update(r.Context(), p.tenant()); err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "server not found")
			return
		}
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	a.log.Infow("tenant updated", "key", p.Key, "by", adminUserFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) deleteServer(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := a.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "server not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete failed")
		return
	}
	a.log.Infow("tenant deleted", "key", key, "by", adminUserFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// testServer checks reachability of a tenant's auth endpoint, or performs a
// full credential verification when test credentials are supplied.
func (a *App) testServer(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	list, _, err := a.store.Snapshot(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to read registry")
		return
	}
	var target *tenants.Tenant
	for i := range list {
		if list[i].Key == key {
			target = &list[i]
			break
		}
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "server not found"})
		return
	}
	tlsLabel := verify.TrustLabel(target.CAFile, target.InsecureTLS)

	var body struct {
		TestEmail    string `json:"test_email"`
		TestPassword string `json:"test_password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if body.TestEmail != "" && body.TestPassword != "" {
		res, err := a.verifier.Verify(ctx, *target, body.TestEmail, body.TestPassword)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "endpoint unreachable",
				"details": map[string]any{"soap": "UNREACHABLE", "tls": tlsLabel}})
			return
		}
		if res.OK {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true,
				"details": map[string]any{"soap": "AUTH_OK", "tls": tlsLabel, "status": res.Status}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "auth request failed",
			"details": map[string]any{"soap": "AUTH_FAIL", "tls": tlsLabel, "status": res.Status}})
		return
	}

	status, looksSOAP, err := a.verifier.Ping(ctx, *target)
	if err != nil || !looksSOAP {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "soap endpoint not reachable",
			"details": map[string]any{"soap": "UNREACHABLE", "tls": tlsLabel, "status": status}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true,
		"details": map[string]any{"soap": "REACHABLE", "tls": tlsLabel, "status": status}})
}

// --- audit ---

func (a *App) getStats(w http.ResponseWriter, r *http.Request) {
	entries := a.ledger.Tail(statsWindow)
	writeJSON(w, http.StatusOK, map[string]any{"stats": audit.ComputeStats(entries, time.Now())})
}

func (a *App) getLogs(w http.ResponseWriter, r *http.Request) {
	limit := logsDefault
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > logsMaxLimit {
		limit = logsMaxLimit
	}
	entries := a.ledger.Tail(limit)
	if q := r.URL.Query().Get("query"); q != "" {
		filtered, err := audit.Filter(entries, q)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid query expression")
			return
		}
		entries = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// --- admin users ---

func (a *App) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to read users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *App) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Username == "" || body.Password == "" {
		writeErr(w, http.StatusBadRequest, "username/password required")
		return
	}
	if err := a.users.Create(body.Username, body.Password); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeErr(w, http.StatusBadRequest, "username already exists")
			return
		}
		writeErr(w, http.StatusInternalServerError, "create failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) deleteUser(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(chi.URLParam(r, "username"))
	if target == "" {
		writeErr(w, http.StatusBadRequest, "username required")
		return
	}
	if target == adminUserFrom(r.Context()) {
		writeErr(w, http.StatusBadRequest, "cannot delete the logged-in user")
		return
	}
	if err := a.users.Delete(target); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			writeErr(w, http.StatusNotFound, "user not found")
		case errors.Is(err, ErrLastAdmin):
			writeErr(w, http.StatusBadRequest, "cannot delete the last admin")
		default:
			writeErr(w, http.StatusInternalServerError, "delete failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
