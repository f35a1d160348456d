// Package login orchestrates a credential-relay attempt: resolve the
// domain, verify the credential against each candidate tenant in order, and
// issue the signed preauth redirect on the first success.
package login

// Reason classifies a terminal or per-candidate failure. Reasons are stored
// in the audit ledger; the HTTP layer collapses most of them into a uniform
// auth-failure response so callers cannot probe which tenants exist.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonMissingCredentials Reason = "missing_credentials"
	ReasonInvalidEmail       Reason = "invalid_email"
	ReasonUnknownServerKey   Reason = "unknown_server_key"
	ReasonDomainUnmapped     Reason = "domain_unmapped"
	ReasonRemoteError        Reason = "remote_error" // one candidate's transport/TLS failure, advances failover
	ReasonAuthFailed         Reason = "auth_failed"  // all candidates exhausted
	ReasonPolicyDenied       Reason = "policy_denied"
	ReasonThrottled          Reason = "throttled"
	ReasonInternalError      Reason = "internal_error"
)
