// models/audit_entry.go
package models

import "time"

// Audit entry kinds.
const (
	AuditActionCreated = "action_created"
	AuditActionUpdated = "action_updated"
	AuditStatusChanged = "status_changed"
	AuditActionClosed  = "action_closed"
	AuditCommentAdded  = "comment_added"
	AuditBisGenerated  = "bis_generated"
)

// AuditEntry is immutable once appended. Field-level updates are batched as
// one entry with a map of changed fields.
type AuditEntry struct {
	ID        string                 `json:"id" bson:"id"`
	ActionID  string                 `json:"actionId" bson:"actionId"`
	UserID    string                 `json:"userId" bson:"userId"`
	UserName  string                 `json:"userName,omitempty" bson:"userName,omitempty"`
	Kind      string                 `json:"kind" bson:"kind"`
	Details   map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}
