// internal/adminapi/auth.go
package adminapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const sessionIssuer = "mamportal-admin"

type ctxUserKey struct{}

// sessionManager issues and validates short-lived HS256 admin tokens. The
// portal keeps no server-side session state; logout is the client dropping
// its token before the TTL runs out.
type sessionManager struct {
	secret []byte
	ttl    time.Duration
}

func newSessionManager(secret string, ttl time.Duration) *sessionManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &sessionManager{secret: []byte(secret), ttl: ttl}
}

func (m *sessionManager) issue(username string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(sessionIssuer).
		Subject(username).
		IssuedAt(now).
		Expiration(now.Add(m.ttl)).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, m.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func (m *sessionManager) validate(raw string) (string, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, m.secret),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", err
	}
	return tok.Subject(), nil
}

// adminAuth requires a valid bearer session token.
func (a *App) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		username, err := a.sessions.validate(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil || username == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminUserFrom(ctx context.Context) string {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		return v.(string)
	}
	return ""
}
