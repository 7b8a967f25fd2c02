// notifications/dispatcher.go
package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
)

// Dispatcher produces recipient-addressed, typed notifications. Delivery is
// an external side channel (log plus websocket push); there is no retry and
// no acknowledgment.
type Dispatcher struct {
	store            *store.NotificationStore
	broadcast        func(models.Notification)
	qualityDirection string
	now              func() time.Time
}

func NewDispatcher(s *store.NotificationStore, broadcast func(models.Notification), qualityDirection string) *Dispatcher {
	if broadcast == nil {
		broadcast = func(models.Notification) {}
	}
	return &Dispatcher{
		store:            s,
		broadcast:        broadcast,
		qualityDirection: qualityDirection,
		now:              time.Now,
	}
}

func (d *Dispatcher) emit(ctx context.Context, n models.Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = d.now()
	if err := d.store.Insert(ctx, n); err != nil {
		log.Printf("Failed to persist notification %s: %v", n.ID, err)
	}
	log.Printf("Notification [%s] to %s: %s", n.Type, n.RecipientID, n.Title)
	d.broadcast(n)
}

// statusRecipient resolves who is told about a transition into newStatus.
func statusRecipient(a models.Action, newStatus models.ActionStatus) string {
	switch newStatus {
	case models.StatusPendingAnalysis:
		return a.AnalysisResponsible
	case models.StatusPendingVerification:
		return a.VerificationResponsible
	case models.StatusPendingClosure:
		if a.ClosureResponsible != "" {
			return a.ClosureResponsible
		}
		return a.CreatedBy
	case models.StatusClosed, models.StatusAnnulled:
		return a.CreatedBy
	}
	return ""
}

// NotifyStatusChange emits one notification for an accepted transition.
// Skips silently when no recipient is configured for the new status.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, a models.Action, newStatus models.ActionStatus) {
	recipient := statusRecipient(a, newStatus)
	if recipient == "" {
		return
	}
	d.emit(ctx, models.Notification{
		Type:        models.NotificationStatusChange,
		ActionID:    a.ID,
		RecipientID: recipient,
		Title:       fmt.Sprintf("Action %q moved to %s", a.Title, newStatus),
	})
}

// NotifyQualityReview alerts quality direction that a non-conforming action
// reached pending_closure and needs review before final closure.
func (d *Dispatcher) NotifyQualityReview(ctx context.Context, a models.Action) {
	if d.qualityDirection == "" {
		return
	}
	d.emit(ctx, models.Notification{
		Type:        models.NotificationQualityReview,
		ActionID:    a.ID,
		RecipientID: d.qualityDirection,
		Title:       fmt.Sprintf("Non-conforming action %q awaiting closure review", a.Title),
	})
}

// NotifyBisCreated tells the new action's analysis responsible (falling back
// to the original creator) that a BIS follow-up was generated.
func (d *Dispatcher) NotifyBisCreated(ctx context.Context, bis, original models.Action) {
	recipient := bis.AnalysisResponsible
	if recipient == "" {
		recipient = original.CreatedBy
	}
	if recipient == "" {
		return
	}
	d.emit(ctx, models.Notification{
		Type:        models.NotificationBisCreated,
		ActionID:    bis.ID,
		RecipientID: recipient,
		Title:       fmt.Sprintf("BIS action generated from %q", original.Title),
		Message:     fmt.Sprintf("Action %s closed as non-conforming; follow-up %s created.", original.ID, bis.ID),
	})
}

// NotifyMultipleBis is the heuristic pattern-detection signal sent to
// quality direction when related BIS actions accumulate.
func (d *Dispatcher) NotifyMultipleBis(ctx context.Context, bis models.Action, relatedCount int) {
	if d.qualityDirection == "" {
		return
	}
	d.emit(ctx, models.Notification{
		Type:        models.NotificationMultipleBisWarning,
		ActionID:    bis.ID,
		RecipientID: d.qualityDirection,
		Title:       "Repeated BIS actions detected",
		Message:     fmt.Sprintf("%d related BIS actions share the type, department or centre of %q.", relatedCount, bis.Title),
	})
}
