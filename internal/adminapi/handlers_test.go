package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mamportal/internal/audit"
	"mamportal/internal/verify"
	"mamportal/pkg/tenants"
)

type adminHarness struct {
	router chi.Router
	store  tenants.Mutator
	token  string
}

func newHarness(t *testing.T) *adminHarness {
	t.Helper()
	log := zap.NewNop().Sugar()
	dir := t.TempDir()

	store := tenants.NewMemoryStore(log, "example.com", tenants.Tenant{
		Key: "MaMKey_1", Name: "Primary", BaseURL: "https://mail.example.com",
		Domains: []string{"example.com"}, Secret: "topsecret",
	})
	ledger, err := audit.NewLedger(log, filepath.Join(dir, "attempts.jsonl"))
	require.NoError(t, err)

	app, err := New(log, store, ledger, verify.NewSOAPVerifier(log, time.Second), Config{
		SessionSecret: "test-session-secret",
		TokenTTL:      time.Hour,
		DefaultUser:   "admin",
		DefaultPass:   "admin",
		AdminFile:     filepath.Join(dir, "admin_users.json"),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	app.Register(r)

	h := &adminHarness{router: r, store: store}
	rec := h.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"admin"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	h.token = body.Token
	return h
}

func (h *adminHarness) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuthRequired(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/admin/servers", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/servers", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMe(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/admin/me", "", h.token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loggedIn":true`)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)

	rec = h.do(t, http.MethodGet, "/api/admin/me", "", "")
	assert.Contains(t, rec.Body.String(), `"loggedIn":false`)
}

func TestAdminServerListMasksSecrets(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/admin/servers", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"preauthkey_masked":"to***et"`)
	assert.NotContains(t, rec.Body.String(), "topsecret")
}

func TestAdminServerCRUD(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/servers",
		`{"key":"MaMKey_2","name":"Second","server":"https://m2.example.com","domains":["corp.com"],"preauthkey":"k2"}`, h.token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/admin/servers",
		`{"key":"MaMKey_2","name":"Dup","server":"https://dup.example.com","domains":["d.com"],"preauthkey":"k"}`, h.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/admin/servers",
		`{"key":"MaMKey_3","name":"Insecure","server":"http://plain.example.com","domains":["p.com"],"preauthkey":"k"}`, h.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "non-https base url is rejected at the boundary")

	// Update with a blank secret keeps the stored signing key.
	rec = h.do(t, http.MethodPut, "/api/admin/servers/MaMKey_2",
		`{"name":"Second v2","server":"https://m2.example.com","domains":["corp.com"],"preauthkey":""}`, h.token)
	require.Equal(t, http.StatusOK, rec.Code)

	list, _, err := h.store.Snapshot(context.Background())
	require.NoError(t, err)
	for _, tn := range list {
		if tn.Key == "MaMKey_2" {
			assert.Equal(t, "Second v2", tn.Name)
			assert.Equal(t, "k2", tn.Secret)
		}
	}

	rec = h.do(t, http.MethodDelete, "/api/admin/servers/MaMKey_2", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/admin/servers/MaMKey_2", "", h.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminLogsAndStats(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/admin/stats", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)

	rec = h.do(t, http.MethodGet, "/api/admin/logs?limit=10", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/logs?query=][", "", h.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUserEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/users", `{"username":"ops","password":"pw"}`, h.token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/admin/users/admin", "", h.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "cannot delete the logged-in user")

	rec = h.do(t, http.MethodDelete, "/api/admin/users/ops", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/users", "", h.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)
}
