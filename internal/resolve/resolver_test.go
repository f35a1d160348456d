package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamportal/pkg/tenants"
)

func reg() []tenants.Tenant {
	return []tenants.Tenant{
		{Key: "MaMKey_1", Domains: []string{"example.com"}},
		{Key: "MaMKey_2", Domains: []string{"corp.com", "corp.id"}},
		{Key: "MaMKey_3", Domains: []string{"*"}},
		{Key: "MaMKey_4", Domains: []string{"corp.com", "*"}},
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name          string
		identifier    string
		defaultDomain string
		want          string
	}{
		{"verbatim with at", "alice@other.tld", "example.com", "alice@other.tld"},
		{"bare plus default", "alice", "example.com", "alice@example.com"},
		{"bare no default", "alice", "", "alice"},
		{"trims whitespace", "  bob  ", "example.com", "bob@example.com"},
		{"empty", "", "example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.identifier, tt.defaultDomain))
		})
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("alice@Example.COM"))
	assert.Equal(t, "b.com", Domain("weird@a.com@b.com"))
	assert.Equal(t, "", Domain("alice"))
	assert.Equal(t, "", Domain("alice@"))
}

func TestCandidatesExactBeforeWildcard(t *testing.T) {
	cands := Candidates(reg(), "corp.com")
	keys := make([]string, 0, len(cands))
	for _, c := range cands {
		keys = append(keys, c.Key)
	}
	// Exact matches in registry order, then wildcard-only tenants. MaMKey_4
	// claims both corp.com and * and must appear once, in the exact group.
	assert.Equal(t, []string{"MaMKey_2", "MaMKey_4", "MaMKey_3"}, keys)
}

func TestCandidatesWildcardOnly(t *testing.T) {
	cands := Candidates(reg(), "unknown.tld")
	require.Len(t, cands, 2)
	assert.Equal(t, "MaMKey_3", cands[0].Key)
	assert.Equal(t, "MaMKey_4", cands[1].Key)
}

func TestResolveOverride(t *testing.T) {
	res, err := Resolve(reg(), "example.com", "alice", "MaMKey_2")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "MaMKey_2", res.Candidates[0].Key)

	_, err = Resolve(reg(), "example.com", "alice", "MaMKey_99")
	assert.ErrorIs(t, err, ErrUnknownOverride)
}

func TestResolveInvalidEmail(t *testing.T) {
	res, err := Resolve(reg(), "", "alice", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, res.Candidates)
}

func TestResolveDomainUnmapped(t *testing.T) {
	noWildcard := []tenants.Tenant{{Key: "MaMKey_1", Domains: []string{"example.com"}}}
	_, err := Resolve(noWildcard, "", "bob@unknown.tld", "")
	assert.ErrorIs(t, err, ErrDomainUnmapped)
}
