// audit/recorder.go
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
)

// Recorder appends audit entries and pushes them to interested observers
// (the websocket hub in production). A persistence failure is logged and
// otherwise ignored: the audit trail is best-effort within a session.
type Recorder struct {
	store     *store.AuditStore
	broadcast func(models.AuditEntry)
	now       func() time.Time
}

func NewRecorder(s *store.AuditStore, broadcast func(models.AuditEntry)) *Recorder {
	if broadcast == nil {
		broadcast = func(models.AuditEntry) {}
	}
	return &Recorder{store: s, broadcast: broadcast, now: time.Now}
}

// Record appends one entry for a create/update/status-change/close/comment
// event. Field-level updates arrive batched in details.
func (r *Recorder) Record(ctx context.Context, actionID string, actor models.Actor, kind string, details map[string]interface{}) models.AuditEntry {
	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		ActionID:  actionID,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Kind:      kind,
		Details:   details,
		CreatedAt: r.now(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		log.Printf("Failed to persist audit entry %s: %v", entry.ID, err)
	}
	r.broadcast(entry)
	return entry
}
