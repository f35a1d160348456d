// pkg/tenants/memory.go
package tenants

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"
)

type memStore struct {
	log *zap.SugaredLogger

	mu            sync.RWMutex
	list          []Tenant
	defaultDomain string
}

// NewMemoryStore builds an in-memory registry. Useful for tests and as the
// dev fallback when neither CONFIG_PATH nor DATABASE_URL point anywhere.
func NewMemoryStore(log *zap.SugaredLogger, defaultDomain string, seed ...Tenant) Mutator {
	m := &memStore{log: log, defaultDomain: defaultDomain}
	for _, t := range seed {
		t.Normalize()
		m.list = append(m.list, t)
	}
	return m
}

// NewMemoryStoreFromEnv seeds from TENANT_SEED_JSON, a JSON array of tenant
// objects ({key, name, base_url, domains, secret, ...}).
func NewMemoryStoreFromEnv(log *zap.SugaredLogger) Mutator {
	var seed []Tenant
	if raw := os.Getenv("TENANT_SEED_JSON"); raw != "" {
		var entries []struct {
			Key         string   `json:"key"`
			Name        string   `json:"name"`
			BaseURL     string   `json:"base_url"`
			Domains     []string `json:"domains"`
			Secret      string   `json:"secret"`
			VerifyPath  string   `json:"verify_path"`
			TokenPath   string   `json:"token_path"`
			CAFile      string   `json:"ca_file"`
			InsecureTLS bool     `json:"insecure_tls"`
		}
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			log.Warnw("tenant seed parse failed", "err", err)
		}
		for _, e := range entries {
			seed = append(seed, Tenant{
				Key: e.Key, Name: e.Name, BaseURL: e.BaseURL, Domains: e.Domains,
				Secret: e.Secret, VerifyPath: e.VerifyPath, TokenPath: e.TokenPath,
				CAFile: e.CAFile, InsecureTLS: e.InsecureTLS,
			})
		}
	}
	return NewMemoryStore(log, os.Getenv("DEFAULT_DOMAIN"), seed...)
}

func (m *memStore) Snapshot(ctx context.Context) ([]Tenant, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tenant, len(m.list))
	copy(out, m.list)
	return out, m.defaultDomain, nil
}

func (m *memStore) Create(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(true); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.list {
		if x.Key == t.Key {
			return ErrDuplicateKey
		}
	}
	m.list = append(m.list, t)
	return nil
}

func (m *memStore) Update(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(false); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.list {
		if x.Key == t.Key {
			if t.Secret == "" {
				t.Secret = x.Secret
			}
			m.list[i] = t
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.list {
		if x.Key == key {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
