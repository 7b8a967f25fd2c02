package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *store.NotificationStore) {
	t.Helper()
	s, err := store.NewNotificationStore(context.Background(), store.NewMemoryBlobs())
	require.NoError(t, err)
	return NewDispatcher(s, nil, "quality-direction"), s
}

func TestStatusRecipientResolution(t *testing.T) {
	a := models.Action{
		CreatedBy:               "creator",
		AnalysisResponsible:     "analyst",
		VerificationResponsible: "verifier",
		ClosureResponsible:      "closer",
	}

	assert.Equal(t, "analyst", statusRecipient(a, models.StatusPendingAnalysis))
	assert.Equal(t, "verifier", statusRecipient(a, models.StatusPendingVerification))
	assert.Equal(t, "closer", statusRecipient(a, models.StatusPendingClosure))
	assert.Equal(t, "creator", statusRecipient(a, models.StatusClosed))
	assert.Equal(t, "creator", statusRecipient(a, models.StatusAnnulled))
	assert.Equal(t, "", statusRecipient(a, models.StatusDraft))
}

func TestStatusRecipientClosureFallsBackToCreator(t *testing.T) {
	a := models.Action{CreatedBy: "creator"}
	assert.Equal(t, "creator", statusRecipient(a, models.StatusPendingClosure))
}

func TestNotifyStatusChange(t *testing.T) {
	d, s := newTestDispatcher(t)
	a := models.Action{ID: "a-1", Title: "Fridge excursions", AnalysisResponsible: "analyst"}

	d.NotifyStatusChange(context.Background(), a, models.StatusPendingAnalysis)

	got := s.ListForRecipient("analyst")
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationStatusChange, got[0].Type)
	assert.Equal(t, "a-1", got[0].ActionID)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Read)
}

func TestNotifyStatusChangeSkipsWithoutRecipient(t *testing.T) {
	d, s := newTestDispatcher(t)
	a := models.Action{ID: "a-1", Title: "No responsible set"}

	// No analysis responsible configured: nothing is emitted, no error.
	d.NotifyStatusChange(context.Background(), a, models.StatusPendingAnalysis)
	assert.Empty(t, s.List())
}

func TestNotifyQualityReviewGoesToQualityDirection(t *testing.T) {
	d, s := newTestDispatcher(t)
	d.NotifyQualityReview(context.Background(), models.Action{ID: "a-1", Title: "Bad closure"})

	got := s.ListForRecipient("quality-direction")
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationQualityReview, got[0].Type)
}

func TestQualityNotifiersSkipWithoutRecipient(t *testing.T) {
	s, err := store.NewNotificationStore(context.Background(), store.NewMemoryBlobs())
	require.NoError(t, err)
	d := NewDispatcher(s, nil, "")

	d.NotifyQualityReview(context.Background(), models.Action{ID: "a-1", Title: "Orphan"})
	d.NotifyMultipleBis(context.Background(), models.Action{ID: "a-1", Title: "Orphan"}, 2)
	assert.Empty(t, s.List())
}

func TestNotifyBisCreatedFallsBackToOriginalCreator(t *testing.T) {
	d, s := newTestDispatcher(t)
	bis := models.Action{ID: "bis-1", Title: "Follow-up"}
	original := models.Action{ID: "orig-1", Title: "Original", CreatedBy: "creator"}

	d.NotifyBisCreated(context.Background(), bis, original)

	got := s.ListForRecipient("creator")
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationBisCreated, got[0].Type)
	assert.Equal(t, "bis-1", got[0].ActionID)
}
