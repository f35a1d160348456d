package tenants

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("tenant not found")
	ErrDuplicateKey = errors.New("tenant key already exists")
)

// Provider is the read side of the registry. Snapshot is called at the start
// of every routing decision so configuration edits take effect without a
// restart; implementations must not cache across calls.
type Provider interface {
	// Snapshot returns the configured tenants in registry order plus the
	// default domain for bare identifiers.
	Snapshot(ctx context.Context) ([]Tenant, string, error)
}

// Mutator is the write side, used only by the admin API. It enforces the
// blank-secret-keeps-existing rule on update and rejects duplicate keys and
// non-HTTPS base URLs before anything reaches the login path.
type Mutator interface {
	Provider
	Create(ctx context.Context, t Tenant) error
	// Update replaces the record for t.Key; an empty incoming Secret keeps
	// the stored secret.
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, key string) error
}
