// store/audit.go
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/BetJor/plantilla-sub000/models"
)

// AuditStore is append-only with a soft retention cap: when the cap is
// exceeded the oldest entries are evicted first. Entries are never mutated.
type AuditStore struct {
	blobs Blobs
	cap   int

	mu      sync.Mutex
	entries []models.AuditEntry
}

func NewAuditStore(ctx context.Context, blobs Blobs, retentionCap int) (*AuditStore, error) {
	s := &AuditStore{blobs: blobs, cap: retentionCap}
	var entries []models.AuditEntry
	err := blobs.Get(ctx, KeyAuditLog, &entries)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	s.entries = entries
	return s, nil
}

func (s *AuditStore) List() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ListForAction returns entries for one action, oldest first.
func (s *AuditStore) ListForAction(actionID string) []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range s.entries {
		if e.ActionID == actionID {
			out = append(out, e)
		}
	}
	return out
}

func (s *AuditStore) Append(ctx context.Context, e models.AuditEntry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	if s.cap > 0 && len(s.entries) > s.cap {
		s.entries = s.entries[len(s.entries)-s.cap:]
	}
	snapshot := make([]models.AuditEntry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyAuditLog, snapshot)
}
