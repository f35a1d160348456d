// internal/audit/ledger.go
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger is an append-only JSONL file of Records. Appends are serialized by
// a mutex so concurrent requests never interleave partial lines; each record
// is written as exactly one line.
type Ledger struct {
	log  *zap.SugaredLogger
	path string
	mu   sync.Mutex
}

func NewLedger(log *zap.SugaredLogger, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &Ledger{log: log, path: path}, nil
}

// Append writes one record. A ledger failure must never take down the login
// path, so errors degrade to the fallback sink (the structured log) instead
// of propagating.
func (l *Ledger) Append(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		l.log.Errorw("audit marshal failed, record sent to fallback sink", "err", err, "record", rec)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.log.Errorw("audit append failed, record sent to fallback sink", "err", err, "record", string(line))
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		l.log.Errorw("audit write failed, record sent to fallback sink", "err", err, "record", string(line))
	}
}

// Tail returns up to k records in reverse-chronological order (newest
// first). Malformed lines are skipped rather than failing the read.
func (l *Ledger) Tail(k int) []Record {
	f, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var all []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		all = append(all, rec)
	}
	if k > 0 && len(all) > k {
		all = all[len(all)-k:]
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}
