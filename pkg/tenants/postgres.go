// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements the registry on PostgreSQL. Registry order is the
// insertion order (position), matching how INI sections are ordered on disk.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Mutator {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mam_tenants (
  key text PRIMARY KEY,
  name text NOT NULL DEFAULT '',
  base_url text NOT NULL,
  domains text[] NOT NULL DEFAULT '{}',
  secret text NOT NULL,
  verify_path text NOT NULL DEFAULT '/service/soap',
  token_path text NOT NULL DEFAULT '/service/preauth',
  ca_file text NOT NULL DEFAULT '',
  insecure_tls boolean NOT NULL DEFAULT false,
  position bigserial,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS mam_settings (
  name text PRIMARY KEY,
  value text NOT NULL DEFAULT ''
);
`)
	return err
}

func (p *pgStore) Snapshot(ctx context.Context) ([]Tenant, string, error) {
	var defaultDomain string
	err := p.dbPool.QueryRow(ctx, `SELECT value FROM mam_settings WHERE name='default_domain'`).Scan(&defaultDomain)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}
	rows, err := p.dbPool.Query(ctx, `
SELECT key, name, base_url, domains, secret, verify_path, token_path, ca_file, insecure_tls
FROM mam_tenants ORDER BY position`)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.Key, &t.Name, &t.BaseURL, &t.Domains, &t.Secret,
			&t.VerifyPath, &t.TokenPath, &t.CAFile, &t.InsecureTLS); err != nil {
			return nil, "", err
		}
		t.Normalize()
		out = append(out, t)
	}
	return out, strings.TrimSpace(defaultDomain), rows.Err()
}

func (p *pgStore) Create(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(true); err != nil {
		return err
	}
	tag, err := p.dbPool.Exec(ctx, `
INSERT INTO mam_tenants (key, name, base_url, domains, secret, verify_path, token_path, ca_file, insecure_tls)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (key) DO NOTHING`,
		t.Key, t.Name, t.BaseURL, t.Domains, t.Secret, t.VerifyPath, t.TokenPath, t.CAFile, t.InsecureTLS)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (p *pgStore) Update(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(false); err != nil {
		return err
	}
	// COALESCE(NULLIF(...)) keeps the stored secret when the incoming one is blank.
	tag, err := p.dbPool.Exec(ctx, `
UPDATE mam_tenants SET
  name=$2, base_url=$3, domains=$4,
  secret=COALESCE(NULLIF($5,''), secret),
  verify_path=$6, token_path=$7, ca_file=$8, insecure_tls=$9,
  updated_at=NOW()
WHERE key=$1`,
		t.Key, t.Name, t.BaseURL, t.Domains, t.Secret, t.VerifyPath, t.TokenPath, t.CAFile, t.InsecureTLS)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgStore) Delete(ctx context.Context, key string) error {
	tag, err := p.dbPool.Exec(ctx, `DELETE FROM mam_tenants WHERE key=$1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
