// internal/login/service.go
package login

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mamportal/internal/audit"
	"mamportal/internal/preauth"
	"mamportal/internal/resolve"
	"mamportal/internal/verify"
	"mamportal/pkg/tenants"
)

// Clock supplies wall time; injected so tests can pin timestamps.
type Clock func() time.Time

// maxDiagLen bounds the transport diagnostic kept in the audit ledger.
const maxDiagLen = 200

// Request is one top-level login call.
type Request struct {
	Identifier string
	Password   string
	ServerKey  string // optional tenant override
	IP         string
	UserAgent  string
}

// Outcome is the terminal state of the failover chain. Reason is the precise
// internal classification; the HTTP layer decides how much of it to expose.
type Outcome struct {
	OK          bool
	RedirectURL string
	TenantKey   string
	Email       string
	Domain      string
	Attempted   []string
	Reason      Reason
	LastError   string
}

// Service is the failover controller. The registry is read through the
// Provider at the start of every call, so admin edits apply to the next
// login without a restart.
type Service struct {
	log      *zap.SugaredLogger
	registry tenants.Provider
	verifier verify.Verifier
	ledger   *audit.Ledger
	policy   *AccessPolicy // optional
	throttle *Throttle     // optional
	now      Clock
}

func NewService(log *zap.SugaredLogger, registry tenants.Provider, verifier verify.Verifier, ledger *audit.Ledger) *Service {
	return &Service{
		log:      log,
		registry: registry,
		verifier: verifier,
		ledger:   ledger,
		now:      time.Now,
	}
}

// WithPolicy installs an access policy checked before any candidate call.
func (s *Service) WithPolicy(p *AccessPolicy) *Service { s.policy = p; return s }

// WithThrottle installs the failed-attempt throttle.
func (s *Service) WithThrottle(t *Throttle) *Service { s.throttle = t; return s }

// WithClock overrides the wall clock (tests).
func (s *Service) WithClock(c Clock) *Service { s.now = c; return s }

// Login runs the chain: Resolve → VerifyCandidate(i) → Success | Exhausted.
// Candidates are tried strictly in resolver order, sequentially, and never
// after the first success. Per-candidate errors are absorbed into failover
// progression; only pre-resolution failures or exhaustion reach the caller.
// The terminal audit record is written before this returns.
func (s *Service) Login(ctx context.Context, req Request) Outcome {
	started := s.now()
	out := Outcome{}

	finish := func() Outcome {
		result := audit.ResultFail
		if out.OK {
			result = audit.ResultOK
		}
		loginAttempts.WithLabelValues(result).Inc()
		s.ledger.Append(audit.Record{
			Timestamp: started,
			Method:    "password",
			Email:     out.Email,
			Domain:    out.Domain,
			TenantKey: out.TenantKey,
			Attempted: out.Attempted,
			Result:    result,
			Reason:    string(out.Reason),
			Error:     out.LastError,
			LatencyMS: s.now().Sub(started).Milliseconds(),
			IP:        req.IP,
			UserAgent: req.UserAgent,
		})
		return out
	}

	if req.Identifier == "" || req.Password == "" {
		out.Reason = ReasonMissingCredentials
		return finish()
	}

	registry, defaultDomain, err := s.registry.Snapshot(ctx)
	if err != nil {
		s.log.Errorw("tenant registry snapshot failed", "err", err)
		out.Reason = ReasonInternalError
		out.LastError = truncate(err.Error())
		return finish()
	}

	res, err := resolve.Resolve(registry, defaultDomain, req.Identifier, req.ServerKey)
	out.Email, out.Domain = res.Email, res.Domain
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrInvalidEmail):
			out.Reason = ReasonInvalidEmail
		case errors.Is(err, resolve.ErrUnknownOverride):
			out.Reason = ReasonUnknownServerKey
			out.TenantKey = req.ServerKey
		case errors.Is(err, resolve.ErrDomainUnmapped):
			out.Reason = ReasonDomainUnmapped
		default:
			out.Reason = ReasonInternalError
		}
		return finish()
	}

	if s.policy != nil {
		allowed, perr := s.policy.Allow(ctx, PolicyInput{
			Email:  res.Email,
			Domain: res.Domain,
			IP:     req.IP,
		})
		if perr != nil {
			// Policy engine trouble is logged but fails open: the credential
			// check downstream is still the real gate.
			s.log.Warnw("access policy evaluation failed", "err", perr)
		} else if !allowed {
			out.Reason = ReasonPolicyDenied
			return finish()
		}
	}

	if s.throttle != nil && s.throttle.Blocked(ctx, res.Email, req.IP) {
		out.Reason = ReasonThrottled
		return finish()
	}

	for _, cand := range res.Candidates {
		out.Attempted = append(out.Attempted, cand.Key)

		result, verr := s.verifier.Verify(ctx, cand, res.Email, req.Password)
		if verr != nil {
			out.LastError = truncate(verr.Error())
			verifyCalls.WithLabelValues(cand.Key, "error").Inc()
			s.ledger.Append(audit.Record{
				Timestamp: s.now(),
				Method:    "password",
				Email:     res.Email,
				Domain:    res.Domain,
				TenantKey: cand.Key,
				Result:    audit.ResultFail,
				Reason:    string(ReasonRemoteError),
				Error:     out.LastError,
				LatencyMS: s.now().Sub(started).Milliseconds(),
				IP:        req.IP,
				UserAgent: req.UserAgent,
			})
			continue
		}
		if !result.OK {
			verifyCalls.WithLabelValues(cand.Key, "fail").Inc()
			continue
		}

		verifyCalls.WithLabelValues(cand.Key, "ok").Inc()
		out.OK = true
		out.TenantKey = cand.Key
		// Timestamp is generated fresh here, never reused across candidates.
		out.RedirectURL = preauth.RedirectURL(cand, res.Email, s.now())
		return finish()
	}

	if s.throttle != nil {
		s.throttle.RecordFailure(ctx, res.Email, req.IP)
	}
	out.Reason = ReasonAuthFailed
	return finish()
}

func truncate(s string) string {
	if len(s) > maxDiagLen {
		return s[:maxDiagLen]
	}
	return s
}
