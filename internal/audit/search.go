// internal/audit/search.go
package audit

import (
	"encoding/json"
	"fmt"

	jmes "github.com/jmespath/go-jmespath"
)

// Filter keeps the entries for which the JMESPath expression evaluates to a
// truthy value, letting operators search the ledger without a query
// language of our own (e.g. `result=='fail'` or `domain=='corp.com'`).
// Entries that fail to round-trip through JSON are skipped.
func Filter(entries []Record, expr string) ([]Record, error) {
	if expr == "" {
		return entries, nil
	}
	compiled, err := jmes.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	var out []Record
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			continue
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		v, err := compiled.Search(doc)
		if err != nil {
			continue
		}
		if truthy(v) {
			out = append(out, e)
		}
	}
	return out, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
