// store/notifications.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BetJor/plantilla-sub000/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationStore struct {
	blobs Blobs

	mu            sync.Mutex
	notifications []models.Notification
}

func NewNotificationStore(ctx context.Context, blobs Blobs) (*NotificationStore, error) {
	s := &NotificationStore{blobs: blobs}
	var notifications []models.Notification
	err := blobs.Get(ctx, KeyNotifications, &notifications)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	s.notifications = notifications
	return s, nil
}

func (s *NotificationStore) List() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ListForRecipient returns notifications addressed to one recipient.
func (s *NotificationStore) ListForRecipient(recipientID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// HasType reports whether a notification of the given type already exists
// for the action. The deadline sweep uses this to keep at most one overdue
// and one upcoming_deadline notification per action.
func (s *NotificationStore) HasType(actionID string, t models.NotificationType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ActionID == actionID && n.Type == t {
			return true
		}
	}
	return false
}

func (s *NotificationStore) Insert(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	snapshot := make([]models.Notification, len(s.notifications))
	copy(snapshot, s.notifications)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyNotifications, snapshot)
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrNotificationNotFound
	}
	snapshot := make([]models.Notification, len(s.notifications))
	copy(snapshot, s.notifications)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyNotifications, snapshot)
}
