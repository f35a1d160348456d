// Package resolve maps a raw login identifier onto the ordered list of
// tenants that may own it: exact-domain tenants first, wildcard tenants
// after, registry order preserved within each group.
package resolve

import (
	"errors"
	"strings"

	"mamportal/pkg/tenants"
)

var (
	ErrInvalidEmail    = errors.New("identifier has no resolvable domain")
	ErrUnknownOverride = errors.New("unknown tenant key override")
	ErrDomainUnmapped  = errors.New("no tenant mapped for domain")
)

// Resolution is the outcome of a routing decision.
type Resolution struct {
	Email      string
	Domain     string
	Candidates []tenants.Tenant
}

// NormalizeEmail completes a bare identifier with the default domain. An
// identifier already containing '@' is used verbatim; with no default domain
// the bare identifier passes through and fails later as an invalid email.
func NormalizeEmail(identifier, defaultDomain string) string {
	u := strings.TrimSpace(identifier)
	if u == "" {
		return ""
	}
	if strings.Contains(u, "@") {
		return u
	}
	if defaultDomain == "" {
		return u
	}
	return u + "@" + defaultDomain
}

// Domain extracts the part after the last '@', lowercased. Empty when the
// email has no domain portion.
func Domain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// Resolve normalizes the identifier and produces the candidate list. When
// overrideKey is set, resolution collapses to that single tenant.
func Resolve(registry []tenants.Tenant, defaultDomain, identifier, overrideKey string) (Resolution, error) {
	res := Resolution{Email: NormalizeEmail(identifier, defaultDomain)}
	res.Domain = Domain(res.Email)
	if res.Domain == "" {
		return res, ErrInvalidEmail
	}
	if overrideKey != "" {
		for _, t := range registry {
			if t.Key == overrideKey {
				res.Candidates = []tenants.Tenant{t}
				return res, nil
			}
		}
		return res, ErrUnknownOverride
	}
	res.Candidates = Candidates(registry, res.Domain)
	if len(res.Candidates) == 0 {
		return res, ErrDomainUnmapped
	}
	return res, nil
}

// Candidates lists every tenant claiming the exact domain, followed by every
// wildcard tenant not already listed.
func Candidates(registry []tenants.Tenant, domain string) []tenants.Tenant {
	var out []tenants.Tenant
	for _, t := range registry {
		if t.HasDomain(domain) {
			out = append(out, t)
		}
	}
	for _, t := range registry {
		if t.HasDomain(tenants.Wildcard) && !t.HasDomain(domain) {
			out = append(out, t)
		}
	}
	return out
}
