// pkg/tenants/file.go
package tenants

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

// fileStore keeps the registry in an INI file, one [MaMKey_<n>] section per
// tenant. The file is re-read on every Snapshot so admin edits (and manual
// edits on disk) are visible to the next login without a restart.
type fileStore struct {
	log  *zap.SugaredLogger
	path string
	mu   sync.Mutex // serializes writers; readers load their own copy
}

func NewFileStore(log *zap.SugaredLogger, path string) Mutator {
	return &fileStore{log: log, path: path}
}

func (f *fileStore) load() (*ini.File, error) {
	cfg, err := ini.Load(f.path)
	if err != nil {
		return nil, fmt.Errorf("load tenant registry %s: %w", f.path, err)
	}
	return cfg, nil
}

func sectionTenant(sec *ini.Section) Tenant {
	t := Tenant{
		Key:         sec.Name(),
		Name:        sec.Key("name").String(),
		BaseURL:     sec.Key("server").String(),
		Domains:     strings.Split(sec.Key("domains").String(), ","),
		Secret:      sec.Key("preauthkey").String(),
		VerifyPath:  sec.Key("soap_path").String(),
		TokenPath:   sec.Key("preauth_path").String(),
		CAFile:      sec.Key("ca_file").String(),
		InsecureTLS: sec.Key("insecure_tls").MustBool(false),
	}
	t.Normalize()
	if t.Name == "" {
		t.Name = t.Key
	}
	return t
}

func applyTenant(sec *ini.Section, t Tenant) {
	sec.Key("name").SetValue(t.Name)
	sec.Key("server").SetValue(t.BaseURL)
	sec.Key("domains").SetValue(strings.Join(t.Domains, ","))
	sec.Key("preauthkey").SetValue(t.Secret)
	sec.Key("soap_path").SetValue(t.VerifyPath)
	sec.Key("preauth_path").SetValue(t.TokenPath)
	sec.Key("ca_file").SetValue(t.CAFile)
	sec.Key("insecure_tls").SetValue(fmt.Sprintf("%t", t.InsecureTLS))
}

func (f *fileStore) Snapshot(ctx context.Context) ([]Tenant, string, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, "", err
	}
	defaultDomain := strings.TrimSpace(cfg.Section("DEFAULT").Key("default_domain").String())
	var out []Tenant
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "MaMKey_") {
			continue
		}
		t := sectionTenant(sec)
		// A half-configured section is skipped, not fatal: the portal keeps
		// routing for the tenants that are complete.
		if t.BaseURL == "" || t.Secret == "" || len(t.Domains) == 0 {
			f.log.Warnw("skipping incomplete tenant section", "key", t.Key)
			continue
		}
		out = append(out, t)
	}
	return out, defaultDomain, nil
}

func (f *fileStore) Create(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(true); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return err
	}
	if cfg.HasSection(t.Key) {
		return ErrDuplicateKey
	}
	sec, err := cfg.NewSection(t.Key)
	if err != nil {
		return err
	}
	applyTenant(sec, t)
	return cfg.SaveTo(f.path)
}

func (f *fileStore) Update(ctx context.Context, t Tenant) error {
	t.Normalize()
	if err := t.Validate(false); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return err
	}
	if !cfg.HasSection(t.Key) {
		return ErrNotFound
	}
	sec := cfg.Section(t.Key)
	if t.Secret == "" {
		t.Secret = strings.TrimSpace(sec.Key("preauthkey").String())
	}
	applyTenant(sec, t)
	return cfg.SaveTo(f.path)
}

func (f *fileStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return err
	}
	if !cfg.HasSection(key) {
		return ErrNotFound
	}
	cfg.DeleteSection(key)
	return cfg.SaveTo(f.path)
}
