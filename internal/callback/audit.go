package callback

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

// Callback audit log. Every POST attempt is recorded in memory and
// mirrored to a JSON array on disk, capped at the most recent 1000
// records. Disk failures degrade to in-memory-only logging.

const maxAuditRecords = 1000

// Auditor keeps the callback attempt history.
type Auditor struct {
	mu      sync.Mutex
	path    string
	records []models.CallbackRecord
}

// NewAuditor opens the audit log at path, loading any existing history.
// An empty path disables the on-disk mirror.
func NewAuditor(path string) *Auditor {
	a := &Auditor{path: path}
	if path == "" {
		return a
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Audit] Could not read %s: %v", path, err)
		}
		return a
	}
	if err := json.Unmarshal(data, &a.records); err != nil {
		log.Printf("[Audit] Corrupt history at %s, starting fresh: %v", path, err)
		a.records = nil
	}
	if len(a.records) > maxAuditRecords {
		a.records = a.records[len(a.records)-maxAuditRecords:]
	}
	return a
}

// Append records one callback attempt and rewrites the on-disk mirror.
func (a *Auditor) Append(rec models.CallbackRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, rec)
	if len(a.records) > maxAuditRecords {
		a.records = a.records[len(a.records)-maxAuditRecords:]
	}

	if a.path == "" {
		return
	}
	data, err := json.Marshal(a.records)
	if err != nil {
		log.Printf("[Audit] Failed to marshal history: %v", err)
		return
	}
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		log.Printf("[Audit] Failed to write %s: %v", a.path, err)
	}
}

// Recent returns up to limit records, most recent first.
func (a *Auditor) Recent(limit int) []models.CallbackRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit <= 0 || limit > len(a.records) {
		limit = len(a.records)
	}
	out := make([]models.CallbackRecord, limit)
	for i := 0; i < limit; i++ {
		out[i] = a.records[len(a.records)-1-i]
	}
	return out
}

// Size returns the number of records currently held.
func (a *Auditor) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}
