package preauth

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamportal/pkg/tenants"
)

// Reference vector from the receiving platform's preauth documentation.
func TestComputeKnownVector(t *testing.T) {
	got := Compute(
		"john.doe@domain.com",
		ByName,
		NoExpiry,
		"1135280708088",
		"6b7ead4bd425836e8cf0079cd6c1a05acc127acd07c8ee4b61023e19250e929c",
	)
	assert.Equal(t, "b248f6cfd027edd45c5369f8490125204772f844", got)
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute("alice@example.com", ByName, NoExpiry, "1700000000000", "secret")
	b := Compute("alice@example.com", ByName, NoExpiry, "1700000000000", "secret")
	assert.Equal(t, a, b)
}

func TestComputeFieldSensitivity(t *testing.T) {
	base := Compute("alice@example.com", ByName, NoExpiry, "1700000000000", "secret")
	variants := []struct {
		name                                   string
		account, by, expires, timestamp, secret string
	}{
		{"account", "bob@example.com", ByName, NoExpiry, "1700000000000", "secret"},
		{"by", "alice@example.com", "id", NoExpiry, "1700000000000", "secret"},
		{"expires", "alice@example.com", ByName, "60000", "1700000000000", "secret"},
		{"timestamp", "alice@example.com", ByName, NoExpiry, "1700000000001", "secret"},
		{"secret", "alice@example.com", ByName, NoExpiry, "1700000000000", "other"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			assert.NotEqual(t, base, Compute(v.account, v.by, v.expires, v.timestamp, v.secret))
		})
	}
}

func TestRedirectURL(t *testing.T) {
	tenant := tenants.Tenant{
		Key:       "MaMKey_1",
		BaseURL:   "https://mail.example.com",
		TokenPath: "/service/preauth",
		Secret:    "topsecret",
	}
	ts := time.UnixMilli(1700000000000)
	raw := RedirectURL(tenant, "alice+test@example.com", ts)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "mail.example.com", u.Host)
	assert.Equal(t, "/service/preauth", u.Path)

	q := u.Query()
	assert.Equal(t, "alice+test@example.com", q.Get("account"))
	assert.Equal(t, ByName, q.Get("by"))
	assert.Equal(t, NoExpiry, q.Get("expires"))
	assert.Equal(t, strconv.FormatInt(ts.UnixMilli(), 10), q.Get("timestamp"))

	// The receiving server recomputes the HMAC from the query fields; the
	// preauth parameter must round-trip against the shared secret.
	want := Compute(q.Get("account"), q.Get("by"), q.Get("expires"), q.Get("timestamp"), tenant.Secret)
	assert.Equal(t, want, q.Get("preauth"))
}
