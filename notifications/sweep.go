// notifications/sweep.go
package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
)

// DefaultUpcomingWindow is how far ahead of the due date the
// upcoming_deadline notification fires.
const DefaultUpcomingWindow = 7 * 24 * time.Hour

// Sweep periodically scans non-terminal actions for passed or approaching
// due dates. At most one overdue and one upcoming_deadline notification may
// exist per action, so the sweep checks existing notifications first.
type Sweep struct {
	actions       *store.ActionStore
	notifications *store.NotificationStore
	dispatcher    *Dispatcher
	window        time.Duration
	now           func() time.Time
}

func NewSweep(actions *store.ActionStore, notifications *store.NotificationStore, d *Dispatcher, window time.Duration) *Sweep {
	if window <= 0 {
		window = DefaultUpcomingWindow
	}
	return &Sweep{
		actions:       actions,
		notifications: notifications,
		dispatcher:    d,
		window:        window,
		now:           time.Now,
	}
}

// Run performs one pass over the collection.
func (s *Sweep) Run(ctx context.Context) {
	now := s.now()
	for _, a := range s.actions.List() {
		if a.Status.IsTerminal() || a.DueDate == nil {
			continue
		}
		recipient := a.AssignedTo
		if recipient == "" {
			recipient = a.CreatedBy
		}
		if recipient == "" {
			continue
		}

		switch {
		case now.After(*a.DueDate):
			if s.notifications.HasType(a.ID, models.NotificationOverdue) {
				continue
			}
			s.dispatcher.emit(ctx, models.Notification{
				Type:        models.NotificationOverdue,
				ActionID:    a.ID,
				RecipientID: recipient,
				Title:       fmt.Sprintf("Action %q is overdue", a.Title),
			})
		case a.DueDate.Sub(now) <= s.window:
			if s.notifications.HasType(a.ID, models.NotificationUpcomingDeadline) {
				continue
			}
			s.dispatcher.emit(ctx, models.Notification{
				Type:        models.NotificationUpcomingDeadline,
				ActionID:    a.ID,
				RecipientID: recipient,
				Title:       fmt.Sprintf("Action %q is due on %s", a.Title, a.DueDate.Format("2006-01-02")),
			})
		}
	}
}

// Start schedules the sweep with the given cron expression and returns the
// running scheduler.
func (s *Sweep) Start(cronExpr string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep cron expression %q: %w", cronExpr, err)
	}
	c.Start()
	log.Printf("Deadline sweep scheduled: %s", cronExpr)
	return c, nil
}
