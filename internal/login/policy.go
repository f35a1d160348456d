// internal/login/policy.go
package login

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"gopkg.in/yaml.v3"
)

// PolicyInput is what the access policy sees about a login attempt: never
// the password, only routing facts.
type PolicyInput struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
	IP     string `json:"ip"`
}

type policyRules struct {
	DeniedDomains []string `yaml:"denied_domains"`
	DeniedCIDRs   []string `yaml:"denied_cidrs"`
	RegoFile      string   `yaml:"rego_file"`
}

// AccessPolicy pre-screens login attempts before any candidate is called.
// Static YAML deny rules are checked first; an optional rego policy
// (data.mamportal.access.allow) gets the final word when configured.
type AccessPolicy struct {
	deniedDomains map[string]struct{}
	deniedNets    []*net.IPNet
	query         *rego.PreparedEvalQuery
}

// LoadAccessPolicy reads the YAML rules file and prepares the referenced
// rego module, if any.
func LoadAccessPolicy(ctx context.Context, path string) (*AccessPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read access policy: %w", err)
	}
	var rules policyRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse access policy: %w", err)
	}

	p := &AccessPolicy{deniedDomains: map[string]struct{}{}}
	for _, d := range rules.DeniedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			p.deniedDomains[d] = struct{}{}
		}
	}
	for _, c := range rules.DeniedCIDRs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			// bare address, treat as host route
			if strings.Contains(c, ":") {
				c += "/128"
			} else {
				c += "/32"
			}
		}
		_, ipnet, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("parse denied cidr %q: %w", c, err)
		}
		p.deniedNets = append(p.deniedNets, ipnet)
	}

	if rules.RegoFile != "" {
		q, err := rego.New(
			rego.Query("data.mamportal.access.allow"),
			rego.Load([]string{rules.RegoFile}, nil),
		).PrepareForEval(ctx)
		if err != nil {
			return nil, fmt.Errorf("prepare rego policy: %w", err)
		}
		p.query = &q
	}
	return p, nil
}

// Allow reports whether the attempt may proceed to verification.
func (p *AccessPolicy) Allow(ctx context.Context, in PolicyInput) (bool, error) {
	if _, denied := p.deniedDomains[in.Domain]; denied {
		return false, nil
	}
	if ip := net.ParseIP(in.IP); ip != nil {
		for _, n := range p.deniedNets {
			if n.Contains(ip) {
				return false, nil
			}
		}
	}
	if p.query == nil {
		return true, nil
	}
	rs, err := p.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return false, err
	}
	// With a rego policy configured, allow must be defined and true.
	return len(rs) > 0 && len(rs[0].Expressions) > 0 && rs[0].Expressions[0].Value == true, nil
}
