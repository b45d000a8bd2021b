// Package audit keeps the append-only system-of-record for every policy
// decision. Entries are chained with SHA-256 so any in-place tampering is
// detectable; there is deliberately no delete or mutate API.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// GenesisHash is the prev_hash of the first entry in a log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log is an in-memory, append-only audit log. Appends are the only mutation;
// entries keep insertion order for the lifetime of the process.
type Log struct {
	mu       sync.Mutex
	entries  []*model.AuditEntry
	prevHash string
}

// New returns an empty audit log.
func New() *Log {
	return &Log{prevHash: GenesisHash}
}

// chainedFields is the canonical byte form an entry is hashed over. Fixed
// struct fields (no maps) keep json.Marshal field order deterministic.
type chainedFields struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"ts"`
	Prompt     string  `json:"prompt"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Decision   string  `json:"decision"`
	RuleID     string  `json:"rule_id"`
	PrevHash   string  `json:"prev_hash"`
}

// Record appends exactly one entry with a fresh unique id and the current
// timestamp, and returns it. It never fails.
func (l *Log) Record(prompt string, classification *model.Classification, evaluation *model.Evaluation) *model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &model.AuditEntry{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		Prompt:         prompt,
		Classification: classification,
		Evaluation:     evaluation,
		PrevHash:       l.prevHash,
	}
	entry.EntryHash = hashEntry(entry)

	l.entries = append(l.entries, entry)
	l.prevHash = entry.EntryHash
	return entry
}

// Entries returns all entries in insertion order as a defensive copy of the
// backing slice; the entries themselves are shared and must not be mutated.
func (l *Log) Entries() []*model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*model.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Alerts returns, in insertion order, the entries whose evaluation carries
// one or more alert targets.
func (l *Log) Alerts() []*model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.AuditEntry
	for _, e := range l.entries {
		if len(e.Evaluation.Alerts) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Verify walks the hash chain and reports the first broken link, if any.
func (l *Log) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := GenesisHash
	for i, e := range l.entries {
		if e.PrevHash != prev {
			return fmt.Errorf("audit chain broken at entry %d (%s): prev_hash mismatch", i, e.ID)
		}
		if hashEntry(e) != e.EntryHash {
			return fmt.Errorf("audit chain broken at entry %d (%s): entry hash mismatch", i, e.ID)
		}
		prev = e.EntryHash
	}
	return nil
}

func hashEntry(e *model.AuditEntry) string {
	line, err := json.Marshal(chainedFields{
		ID:         e.ID,
		Timestamp:  e.Timestamp.Format(time.RFC3339Nano),
		Prompt:     e.Prompt,
		Category:   e.Classification.Category,
		Confidence: e.Classification.Confidence,
		Decision:   string(e.Evaluation.Decision),
		RuleID:     e.Evaluation.RuleID,
		PrevHash:   e.PrevHash,
	})
	if err != nil {
		// Marshal of fixed string/float fields cannot fail.
		panic(err)
	}
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
