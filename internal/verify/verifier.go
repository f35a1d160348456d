// Package verify performs the per-candidate credential check against a
// tenant's native SOAP authentication endpoint.
package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"mamportal/pkg/tenants"
)

// Verifier is the outbound credential check. Implementations hold no state
// between calls; every call is one synchronous round trip.
type Verifier interface {
	Verify(ctx context.Context, t tenants.Tenant, account, password string) (Result, error)
}

// Result reports one verification round trip. OK requires both a successful
// transport status and the protocol's success marker in the body.
type Result struct {
	OK     bool
	Status int
}

var authTokenRe = regexp.MustCompile(`(?i)<authToken>[^<]+</authToken>`)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// SOAPVerifier speaks the mail platform's SOAP 1.2 AuthRequest protocol.
type SOAPVerifier struct {
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewSOAPVerifier(log *zap.SugaredLogger, timeout time.Duration) *SOAPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SOAPVerifier{log: log, timeout: timeout}
}

// client builds a one-shot HTTP client under the tenant's trust policy. A
// fresh transport per call keeps per-tenant TLS settings from bleeding
// across tenants.
func (v *SOAPVerifier) client(t tenants.Tenant) (*http.Client, error) {
	tlsCfg, err := TLSConfig(t.CAFile, t.InsecureTLS)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg,
	}
	return &http.Client{
		Timeout:   v.timeout,
		Transport: otelhttp.NewTransport(tr),
	}, nil
}

func authEnvelope(account, password string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">` +
		`<soap:Header><context xmlns="urn:zimbra"><format type="xml"/></context></soap:Header>` +
		`<soap:Body><AuthRequest xmlns="urn:zimbraAccount">` +
		`<account by="name">` + xmlEscaper.Replace(account) + `</account>` +
		`<password>` + xmlEscaper.Replace(password) + `</password>` +
		`</AuthRequest></soap:Body></soap:Envelope>`
}

// Verify posts an AuthRequest carrying the plain-text credential. Any
// transport or TLS failure comes back as an error; the failover controller
// absorbs it and moves to the next candidate.
func (v *SOAPVerifier) Verify(ctx context.Context, t tenants.Tenant, account, password string) (Result, error) {
	cli, err := v.client(t)
	if err != nil {
		return Result{}, err
	}
	url := t.BaseURL + t.VerifyPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(authEnvelope(account, password)))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset="utf-8"`)
	req.Header.Set("Accept", "application/soap+xml, text/xml")

	resp, err := cli.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("auth request to %s: %w", t.Key, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{Status: resp.StatusCode}, fmt.Errorf("read auth response from %s: %w", t.Key, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 && authTokenRe.Match(body)
	v.log.Debugw("credential verification", "tenant", t.Key, "status", resp.StatusCode, "ok", ok)
	return Result{OK: ok, Status: resp.StatusCode}, nil
}

// Ping posts a NoOpRequest to check that the endpoint is reachable and
// answers SOAP. Used by the admin connection test, not by the login path.
func (v *SOAPVerifier) Ping(ctx context.Context, t tenants.Tenant) (status int, looksSOAP bool, err error) {
	cli, err := v.client(t)
	if err != nil {
		return 0, false, err
	}
	body := `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">` +
		`<soap:Body><NoOpRequest xmlns="urn:zimbraAccount"/></soap:Body></soap:Envelope>`
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+t.VerifyPath, strings.NewReader(body))
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	resp, err := cli.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	s := string(text)
	return resp.StatusCode, strings.Contains(strings.ToLower(s), "envelope") || strings.Contains(strings.ToLower(s), "soap"), nil
}
