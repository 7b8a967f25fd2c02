// store/store.go
package store

import (
	"context"
	"errors"
)

// Storage keys. Each collection is serialized as one ordered array under its
// own key, written whole on every change (no partial writes).
const (
	KeyActions       = "corrective_actions"
	KeyComments      = "action_comments"
	KeyNotifications = "action_notifications"
	KeyAuditLog      = "action_audit_log"
)

var ErrNotFound = errors.New("blob not found")

// Blobs is the persistence abstraction: get/put of whole serialized
// collections plus change subscription. Constructed once at startup and
// never torn down.
type Blobs interface {
	// Get decodes the blob stored under key into v. Returns ErrNotFound
	// when the key has never been written.
	Get(ctx context.Context, key string, v interface{}) error
	// Put overwrites the blob under key with the serialized form of v.
	Put(ctx context.Context, key string, v interface{}) error
	// Subscribe registers fn to run after every successful Put on key.
	Subscribe(key string, fn func())
}
