package tenants

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleINI = `[DEFAULT]
default_domain = example.com

[MaMKey_1]
name = Primary
server = https://mail.example.com/
domains = example.com,corp.id
preauthkey = 0123456789abcdef
soap_path = /service/soap
preauth_path = /service/preauth
insecure_tls = false

[MaMKey_2]
name = Fallback
server = https://backup.example.com
domains = *
preauthkey = fedcba9876543210
insecure_tls = true

[MaMKey_3]
name = HalfConfigured
server = https://broken.example.com
domains =
`

func newFileStore(t *testing.T) Mutator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o644))
	return NewFileStore(zap.NewNop().Sugar(), path)
}

func TestFileStoreSnapshot(t *testing.T) {
	s := newFileStore(t)
	list, defaultDomain, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "example.com", defaultDomain)
	require.Len(t, list, 2, "incomplete sections are skipped")

	assert.Equal(t, "MaMKey_1", list[0].Key)
	assert.Equal(t, "https://mail.example.com", list[0].BaseURL, "trailing slash stripped")
	assert.Equal(t, []string{"example.com", "corp.id"}, list[0].Domains)
	assert.Equal(t, "0123456789abcdef", list[0].Secret)

	assert.Equal(t, "MaMKey_2", list[1].Key)
	assert.True(t, list[1].InsecureTLS)
	assert.Equal(t, DefaultVerifyPath, list[1].VerifyPath, "missing paths get defaults")
}

func TestFileStoreCreate(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	err := s.Create(ctx, Tenant{
		Key: "MaMKey_1", BaseURL: "https://dup.example.com",
		Domains: []string{"dup.com"}, Secret: "x",
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	require.NoError(t, s.Create(ctx, Tenant{
		Key: "MaMKey_7", Name: "New", BaseURL: "https://new.example.com",
		Domains: []string{"new.com"}, Secret: "newsecret",
	}))
	list, _, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MaMKey_7", list[len(list)-1].Key)
}

func TestFileStoreUpdateBlankSecretKeepsExisting(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, Tenant{
		Key: "MaMKey_1", Name: "Renamed", BaseURL: "https://mail.example.com",
		Domains: []string{"example.com"}, Secret: "",
	}))

	list, _, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", list[0].Name)
	assert.Equal(t, "0123456789abcdef", list[0].Secret,
		"blank secret on update must preserve the stored signing key")

	// A non-empty secret replaces it.
	require.NoError(t, s.Update(ctx, Tenant{
		Key: "MaMKey_1", Name: "Renamed", BaseURL: "https://mail.example.com",
		Domains: []string{"example.com"}, Secret: "rotated",
	}))
	list, _, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated", list[0].Secret)
}

func TestFileStoreDelete(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Delete(ctx, "MaMKey_99"), ErrNotFound)
	require.NoError(t, s.Delete(ctx, "MaMKey_2"))

	list, _, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "MaMKey_1", list[0].Key)
}
