package tenants

import (
	"errors"
	"regexp"
	"strings"
)

const (
	DefaultVerifyPath = "/service/soap"
	DefaultTokenPath  = "/service/preauth"
)

// Wildcard is the catch-all domain entry, matched only after exact domains.
const Wildcard = "*"

var keyRe = regexp.MustCompile(`^MaMKey_\d+$`)

// Tenant is one configured mail-platform backend: the domains it owns, the
// shared preauth secret, and its verification / token endpoints.
type Tenant struct {
	Key         string   // unique, MaMKey_<n>
	Name        string   // display label
	BaseURL     string   // https origin, no trailing slash
	Domains     []string // lowercase; may include "*"
	Secret      string   // preauth signing key, never exposed once stored
	VerifyPath  string   // default /service/soap
	TokenPath   string   // default /service/preauth
	CAFile      string   // optional pinned root
	InsecureTLS bool     // disables cert verification, wins over CAFile
}

// HasDomain reports whether d (already lowercased) is in the tenant's set.
func (t Tenant) HasDomain(d string) bool {
	for _, x := range t.Domains {
		if x == d {
			return true
		}
	}
	return false
}

// Masked returns a display-safe projection of the secret: the stored value
// never leaves the registry in full.
func (t Tenant) Masked() string {
	return MaskSecret(t.Secret)
}

func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:2] + "***" + s[len(s)-2:]
}

// Normalize applies defaults and canonical forms in place.
func (t *Tenant) Normalize() {
	t.Key = strings.TrimSpace(t.Key)
	t.Name = strings.TrimSpace(t.Name)
	t.BaseURL = strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	clean := make([]string, 0, len(t.Domains))
	for _, d := range t.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			clean = append(clean, d)
		}
	}
	t.Domains = clean
	if t.VerifyPath = strings.TrimSpace(t.VerifyPath); t.VerifyPath == "" {
		t.VerifyPath = DefaultVerifyPath
	}
	if t.TokenPath = strings.TrimSpace(t.TokenPath); t.TokenPath == "" {
		t.TokenPath = DefaultTokenPath
	}
	t.Secret = strings.TrimSpace(t.Secret)
	t.CAFile = strings.TrimSpace(t.CAFile)
}

// Validate enforces the registry invariants. requireSecret is false on
// updates, where a blank secret means "keep the stored one".
func (t Tenant) Validate(requireSecret bool) error {
	if !keyRe.MatchString(t.Key) {
		return errors.New("key must match MaMKey_<integer>")
	}
	if !strings.HasPrefix(t.BaseURL, "https://") {
		return errors.New("base url must be https://")
	}
	if len(t.Domains) == 0 {
		return errors.New("at least one domain required")
	}
	if requireSecret && t.Secret == "" {
		return errors.New("preauth secret required")
	}
	return nil
}
