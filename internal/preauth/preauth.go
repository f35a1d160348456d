// Package preauth computes the signed single-sign-on redirect accepted by a
// tenant's webmail UI. The signature is HMAC-SHA1 over the pipe-delimited
// string account|by|expires|timestamp, keyed by the tenant's shared secret
// and hex-encoded; the receiving platform recomputes the same HMAC, so the
// field order and encoding are fixed by its protocol and not configurable.
package preauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"mamportal/pkg/tenants"
)

const (
	// ByName authorizes the token by account name.
	ByName = "name"
	// NoExpiry defers expiry handling to the receiving platform's own
	// preauth validation window (Zimbra defaults to 5 minutes around the
	// timestamp, so tokens are short-lived regardless).
	NoExpiry = "0"
)

// Compute returns the lowercase-hex HMAC-SHA1 signature for the given
// fields. Deterministic: identical inputs always produce identical output.
func Compute(account, by, expires, timestamp, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(account + "|" + by + "|" + expires + "|" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// RedirectURL builds the full preauth redirect for account at tenant t,
// timestamped at ts. The timestamp is millisecond epoch and must be fresh
// per issuance; callers pass the current wall clock.
func RedirectURL(t tenants.Tenant, account string, ts time.Time) string {
	millis := strconv.FormatInt(ts.UnixMilli(), 10)
	sig := Compute(account, ByName, NoExpiry, millis, t.Secret)

	q := url.Values{}
	q.Set("account", account)
	q.Set("by", ByName)
	q.Set("expires", NoExpiry)
	q.Set("timestamp", millis)
	q.Set("preauth", sig)
	return t.BaseURL + t.TokenPath + "?" + q.Encode()
}
