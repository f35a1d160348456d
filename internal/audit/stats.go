// internal/audit/stats.go
package audit

import "time"

// Stats is the rolling aggregation over recent ledger entries.
type Stats struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Fail  int `json:"fail"`

	Last24Total int `json:"last24_total"`
	Last24OK    int `json:"last24_ok"`
	Last24Fail  int `json:"last24_fail"`

	ByTenant map[string]int `json:"byServer"`
	ByDomain map[string]int `json:"byDomain"`
}

// ComputeStats reduces entries into Stats. Pure and idempotent: it reads the
// slice and the supplied clock, nothing else. Records with a zero timestamp
// still count toward the totals but never toward the 24-hour window.
func ComputeStats(entries []Record, now time.Time) Stats {
	s := Stats{
		ByTenant: map[string]int{},
		ByDomain: map[string]int{},
	}
	for _, e := range entries {
		s.Total++
		if e.Result == ResultOK {
			s.OK++
		}

		key := e.TenantKey
		if key == "" {
			key = "unknown"
		}
		s.ByTenant[key]++
		dom := e.Domain
		if dom == "" {
			dom = "unknown"
		}
		s.ByDomain[dom]++

		if !e.Timestamp.IsZero() && now.Sub(e.Timestamp) <= 24*time.Hour {
			s.Last24Total++
			if e.Result == ResultOK {
				s.Last24OK++
			}
		}
	}
	s.Fail = s.Total - s.OK
	s.Last24Fail = s.Last24Total - s.Last24OK
	return s
}
