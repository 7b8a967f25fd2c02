// models/notification.go
package models

import "time"

type NotificationType string

const (
	NotificationStatusChange       NotificationType = "status_change"
	NotificationQualityReview      NotificationType = "quality_review"
	NotificationBisCreated         NotificationType = "bis_created"
	NotificationMultipleBisWarning NotificationType = "multiple_bis_warning"
	NotificationOverdue            NotificationType = "overdue"
	NotificationUpcomingDeadline   NotificationType = "upcoming_deadline"
)

// Notification is an addressed, typed message produced as a side effect of
// workflow transitions, BIS generation, or the deadline sweep. It never
// mutates an action.
type Notification struct {
	ID          string           `json:"id" bson:"id"`
	Type        NotificationType `json:"type" bson:"type"`
	ActionID    string           `json:"actionId" bson:"actionId"`
	RecipientID string           `json:"recipientId" bson:"recipientId"`
	Title       string           `json:"title" bson:"title"`
	Message     string           `json:"message,omitempty" bson:"message,omitempty"`
	Read        bool             `json:"read" bson:"read"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}
