// Package audit keeps the append-only ledger of login attempts and the
// read-side aggregation over it.
package audit

import "time"

// Result values for a completed login call.
const (
	ResultOK   = "ok"
	ResultFail = "fail"
)

// Record is one immutable audit entry, written once per completed top-level
// login call. Field names match the on-disk JSONL ledger.
type Record struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method,omitempty"`
	Email     string    `json:"email"`
	Domain    string    `json:"domain"`
	TenantKey string    `json:"server_key"`         // winning tenant, empty if none
	Attempted []string  `json:"attempted,omitempty"` // candidate keys in resolver order
	Result    string    `json:"result"`              // ok | fail
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"` // truncated transport diagnostic, operators only
	LatencyMS int64     `json:"ms"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
}
