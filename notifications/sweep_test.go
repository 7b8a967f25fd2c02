package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
)

var sweepNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestSweep(t *testing.T) (*Sweep, *store.ActionStore, *store.NotificationStore) {
	t.Helper()
	ctx := context.Background()
	blobs := store.NewMemoryBlobs()

	actions, err := store.NewActionStore(ctx, blobs)
	require.NoError(t, err)
	notifStore, err := store.NewNotificationStore(ctx, blobs)
	require.NoError(t, err)

	d := NewDispatcher(notifStore, nil, "quality-direction")
	s := NewSweep(actions, notifStore, d, DefaultUpcomingWindow)
	s.now = func() time.Time { return sweepNow }
	return s, actions, notifStore
}

func dueAction(id string, due time.Time, status models.ActionStatus) models.Action {
	return models.Action{
		ID:         id,
		Title:      "Action " + id,
		Status:     status,
		AssignedTo: "assignee",
		DueDate:    &due,
	}
}

func typesFor(s *store.NotificationStore, actionID string) []models.NotificationType {
	var out []models.NotificationType
	for _, n := range s.List() {
		if n.ActionID == actionID {
			out = append(out, n.Type)
		}
	}
	return out
}

func TestSweepOverdue(t *testing.T) {
	s, actions, notifStore := newTestSweep(t)
	ctx := context.Background()
	require.NoError(t, actions.Insert(ctx, dueAction("a-1", sweepNow.AddDate(0, 0, -3), models.StatusPendingAnalysis)))

	s.Run(ctx)

	got := notifStore.ListForRecipient("assignee")
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationOverdue, got[0].Type)
}

func TestSweepUpcomingDeadline(t *testing.T) {
	s, actions, notifStore := newTestSweep(t)
	ctx := context.Background()
	require.NoError(t, actions.Insert(ctx, dueAction("a-1", sweepNow.AddDate(0, 0, 3), models.StatusPendingVerification)))
	require.NoError(t, actions.Insert(ctx, dueAction("a-2", sweepNow.AddDate(0, 0, 30), models.StatusPendingVerification)))

	s.Run(ctx)

	assert.Equal(t, []models.NotificationType{models.NotificationUpcomingDeadline}, typesFor(notifStore, "a-1"))
	assert.Empty(t, typesFor(notifStore, "a-2"), "due date outside the window")
}

func TestSweepIsIdempotentPerType(t *testing.T) {
	s, actions, notifStore := newTestSweep(t)
	ctx := context.Background()
	require.NoError(t, actions.Insert(ctx, dueAction("a-1", sweepNow.AddDate(0, 0, -1), models.StatusPendingClosure)))

	s.Run(ctx)
	s.Run(ctx)
	s.Run(ctx)

	assert.Len(t, typesFor(notifStore, "a-1"), 1, "repeated sweeps must not duplicate")
}

func TestSweepSkipsTerminalAndUndatedActions(t *testing.T) {
	s, actions, notifStore := newTestSweep(t)
	ctx := context.Background()

	require.NoError(t, actions.Insert(ctx, dueAction("closed", sweepNow.AddDate(0, 0, -5), models.StatusClosed)))
	require.NoError(t, actions.Insert(ctx, dueAction("annulled", sweepNow.AddDate(0, 0, -5), models.StatusAnnulled)))
	undated := models.Action{ID: "undated", Status: models.StatusPendingAnalysis, AssignedTo: "assignee"}
	require.NoError(t, actions.Insert(ctx, undated))

	s.Run(ctx)
	assert.Empty(t, notifStore.List())
}

func TestSweepFallsBackToCreator(t *testing.T) {
	s, actions, notifStore := newTestSweep(t)
	ctx := context.Background()

	a := dueAction("a-1", sweepNow.AddDate(0, 0, -1), models.StatusPendingAnalysis)
	a.AssignedTo = ""
	a.CreatedBy = "creator"
	require.NoError(t, actions.Insert(ctx, a))

	s.Run(ctx)

	got := notifStore.ListForRecipient("creator")
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationOverdue, got[0].Type)
}
