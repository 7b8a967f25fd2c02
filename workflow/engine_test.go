package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetJor/plantilla-sub000/audit"
	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/notifications"
	"github.com/BetJor/plantilla-sub000/store"
)

type allowAll struct{}

func (allowAll) CanEdit(models.Action, models.Actor) bool { return true }

type denyAll struct{}

func (denyAll) CanEdit(models.Action, models.Actor) bool { return false }

var testActor = models.Actor{ID: "user-1", Name: "Test User", Role: "user"}

type testEnv struct {
	engine        *Engine
	actions       *store.ActionStore
	notifications *store.NotificationStore
	auditLog      *store.AuditStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	blobs := store.NewMemoryBlobs()

	actions, err := store.NewActionStore(ctx, blobs)
	require.NoError(t, err)
	comments, err := store.NewCommentStore(ctx, blobs)
	require.NoError(t, err)
	notifStore, err := store.NewNotificationStore(ctx, blobs)
	require.NoError(t, err)
	auditStore, err := store.NewAuditStore(ctx, blobs, 500)
	require.NoError(t, err)

	rec := audit.NewRecorder(auditStore, nil)
	disp := notifications.NewDispatcher(notifStore, nil, "quality-direction")
	return &testEnv{
		engine:        NewEngine(actions, comments, rec, disp, allowAll{}),
		actions:       actions,
		notifications: notifStore,
		auditLog:      auditStore,
	}
}

// createFilledDraft creates a draft whose completion predicate passes.
func createFilledDraft(t *testing.T, env *testEnv) models.Action {
	t.Helper()
	a, err := env.engine.CreateAction(context.Background(), models.Action{
		Title:               "Sterilization log gaps",
		Description:         "Instrument sterilization records missing for March",
		Type:                "corrective",
		Category:            "patient-safety",
		SubCategory:         "sterilization",
		Department:          "surgery",
		Centre:              "central-hospital",
		AnalysisResponsible: "analyst-1",
	}, testActor)
	require.NoError(t, err)
	return a
}

// fillAnalysis completes the analysis stage, including the similarity gate.
func fillAnalysis(t *testing.T, env *testEnv, id string) models.Action {
	t.Helper()
	ctx := context.Background()
	a, err := env.actions.Get(id)
	require.NoError(t, err)

	due := time.Now().AddDate(0, 0, 10)
	a.AnalysisData = &models.AnalysisData{
		RootCauses: "No ownership of the sterilization log",
		ProposedActions: []models.ProposedActionItem{{
			ID:                   "item-1",
			Description:          "Assign daily log owner",
			AssignedTo:           "nurse-1",
			DueDate:              &due,
			ImplementationStatus: models.ImplementationPending,
			VerificationStatus:   models.VerificationNotVerified,
		}},
	}
	a, err = env.engine.UpdateAction(ctx, a, testActor)
	require.NoError(t, err)

	if !a.IsBis {
		a, err = env.engine.MarkSimilarityChecked(ctx, a.ID, testActor)
		require.NoError(t, err)
	}
	return a
}

// verifyItems marks every proposed action item as verified.
func verifyItems(t *testing.T, env *testEnv, id string) models.Action {
	t.Helper()
	a, err := env.actions.Get(id)
	require.NoError(t, err)
	data := *a.AnalysisData
	data.ProposedActions = append([]models.ProposedActionItem{}, data.ProposedActions...)
	for i := range data.ProposedActions {
		data.ProposedActions[i].VerificationStatus = models.VerificationImplemented
	}
	a.AnalysisData = &data
	a, err = env.engine.UpdateAction(context.Background(), a, testActor)
	require.NoError(t, err)
	return a
}

// fillClosure completes the closure stage with the given outcome.
func fillClosure(t *testing.T, env *testEnv, id string, kind models.ClosureKind) models.Action {
	t.Helper()
	a, err := env.actions.Get(id)
	require.NoError(t, err)
	a.ClosureData = &models.ClosureData{
		Notes:                   "All steps completed",
		EffectivenessEvaluation: "Log compliance back at 100%",
	}
	a.ClosureKind = kind
	a, err = env.engine.UpdateAction(context.Background(), a, testActor)
	require.NoError(t, err)
	return a
}

// closeAction walks an action from draft to closed with the given outcome.
func closeAction(t *testing.T, env *testEnv, id string, kind models.ClosureKind) models.Action {
	t.Helper()
	ctx := context.Background()
	fillAnalysis(t, env, id)
	a, err := env.engine.Advance(ctx, id, testActor) // -> pending_verification
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingVerification, a.Status)

	verifyItems(t, env, id)
	a, err = env.engine.Advance(ctx, id, testActor) // -> pending_closure
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingClosure, a.Status)

	fillClosure(t, env, id, kind)
	a, err = env.engine.Advance(ctx, id, testActor) // -> closed
	require.NoError(t, err)
	require.Equal(t, models.StatusClosed, a.Status)
	return a
}

func TestCreateActionSeedsHistory(t *testing.T) {
	env := newTestEnv(t)
	a := createFilledDraft(t, env)

	require.Len(t, a.StatusHistory, 1)
	assert.Equal(t, models.StatusDraft, a.StatusHistory[0].Status)
	assert.Equal(t, testActor.ID, a.StatusHistory[0].UserID)
	assert.Equal(t, models.StatusDraft, a.Status)

	entries := env.auditLog.ListForAction(a.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionCreated, entries[0].Kind)
}

func TestCanAdvanceDraftReportsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.engine.CreateAction(context.Background(), models.Action{
		Title: "Empty draft",
	}, testActor)
	require.NoError(t, err)

	missing := env.engine.CanAdvance(a)
	assert.Contains(t, missing, "description")
	assert.Contains(t, missing, "type")
	assert.Contains(t, missing, "category")
	assert.Contains(t, missing, "subCategory")
	assert.Contains(t, missing, "analysisResponsible")

	_, err = env.engine.Advance(context.Background(), a.ID, testActor)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Missing, "description")
}

func TestAdvanceDraftToPendingAnalysis(t *testing.T) {
	env := newTestEnv(t)
	a := createFilledDraft(t, env)
	require.Empty(t, env.engine.CanAdvance(a))

	advanced, err := env.engine.Advance(context.Background(), a.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAnalysis, advanced.Status)
	require.Len(t, advanced.StatusHistory, 2)
	assert.Equal(t, models.StatusPendingAnalysis, advanced.StatusHistory[1].Status)

	// The analysis responsible is notified of the transition.
	notifs := env.notifications.ListForRecipient("analyst-1")
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationStatusChange, notifs[0].Type)
}

func TestPendingAnalysisRequiresSimilarityCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	// Complete every analysis field except the similarity gate.
	a, err = env.actions.Get(a.ID)
	require.NoError(t, err)
	due := time.Now().AddDate(0, 0, 5)
	a.AnalysisData = &models.AnalysisData{
		RootCauses: "Missing log ownership",
		ProposedActions: []models.ProposedActionItem{{
			ID:                   "item-1",
			Description:          "Assign owner",
			AssignedTo:           "nurse-1",
			DueDate:              &due,
			ImplementationStatus: models.ImplementationPending,
			VerificationStatus:   models.VerificationNotVerified,
		}},
	}
	a, err = env.engine.UpdateAction(ctx, a, testActor)
	require.NoError(t, err)

	missing := env.engine.CanAdvance(a)
	assert.Equal(t, []string{"similarityCheck"}, missing)

	// A completed check, even with zero matches, opens the gate.
	a, err = env.engine.MarkSimilarityChecked(ctx, a.ID, testActor)
	require.NoError(t, err)
	assert.True(t, a.HasCheckedSimilarity)
	assert.Empty(t, env.engine.CanAdvance(a))

	advanced, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingVerification, advanced.Status)
}

func TestPendingVerificationGatesOnItemVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	fillAnalysis(t, env, a.ID)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	current, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	missing := env.engine.CanAdvance(current)
	assert.Contains(t, missing, "proposedActions[0].verificationStatus")

	verifyItems(t, env, a.ID)
	current, err = env.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Empty(t, env.engine.CanAdvance(current))
}

func TestPendingClosureValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	fillAnalysis(t, env, a.ID)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	verifyItems(t, env, a.ID)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	current, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	missing := env.engine.CanAdvance(current)
	assert.Contains(t, missing, "closureNotes")
	assert.Contains(t, missing, "effectivenessEvaluation")
	assert.Contains(t, missing, "closureKind")

	fillClosure(t, env, a.ID, models.ClosureConforming)
	current, err = env.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Empty(t, env.engine.CanAdvance(current))
}

func TestConformingClosureGeneratesNoBis(t *testing.T) {
	env := newTestEnv(t)
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(context.Background(), a.ID, testActor)
	require.NoError(t, err)
	closeAction(t, env, a.ID, models.ClosureConforming)

	assert.False(t, env.actions.HasBis(a.ID))
	assert.Len(t, env.actions.List(), 1)
}

func TestNonConformingClosureGeneratesExactlyOneBis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	closed := closeAction(t, env, a.ID, models.ClosureNonConforming)

	all := env.actions.List()
	require.Len(t, all, 2)

	bisIDs := env.actions.BisFor(a.ID)
	require.Len(t, bisIDs, 1)
	bis, err := env.actions.Get(bisIDs[0])
	require.NoError(t, err)

	assert.True(t, bis.IsBis)
	assert.Equal(t, a.ID, bis.OriginalActionID)
	assert.Equal(t, closed.Title+" (BIS)", bis.Title)
	assert.Equal(t, models.StatusPendingAnalysis, bis.Status)
	assert.Equal(t, closed.Type, bis.Type)
	assert.Equal(t, closed.Department, bis.Department)
	require.NotNil(t, bis.DueDate)
	require.NotNil(t, bis.AnalysisDeadline)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *bis.DueDate, time.Minute)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 15), *bis.AnalysisDeadline, time.Minute)
	require.NotNil(t, bis.AnalysisData)
	assert.Contains(t, bis.AnalysisData.RootCauses, "No ownership of the sterilization log")

	// Re-evaluating the trigger must not create a second BIS.
	latest, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Nil(t, env.engine.maybeGenerateBis(ctx, latest, testActor))
	assert.Len(t, env.actions.List(), 2)
}

func TestClosureKindSetAfterCloseTriggersBis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	closeAction(t, env, a.ID, models.ClosureConforming)
	require.False(t, env.actions.HasBis(a.ID))

	// Out-of-order update: the closure outcome is corrected after closing.
	current, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	current.ClosureKind = models.ClosureNonConforming
	_, err = env.engine.UpdateAction(ctx, current, testActor)
	require.NoError(t, err)
	require.Len(t, env.actions.BisFor(a.ID), 1)

	// Resubmitting the same update stays exactly-once.
	current, err = env.actions.Get(a.ID)
	require.NoError(t, err)
	amended := *current.ClosureData
	amended.Notes = "Amended notes"
	current.ClosureData = &amended
	_, err = env.engine.UpdateAction(ctx, current, testActor)
	require.NoError(t, err)
	assert.Len(t, env.actions.BisFor(a.ID), 1)
}

func TestBisActionExemptFromSimilarityGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	closeAction(t, env, a.ID, models.ClosureNonConforming)

	bisIDs := env.actions.BisFor(a.ID)
	require.Len(t, bisIDs, 1)

	bis := fillAnalysis(t, env, bisIDs[0])
	require.False(t, bis.HasCheckedSimilarity)
	assert.Empty(t, env.engine.CanAdvance(bis),
		"BIS actions advance without a similarity check")
}

func TestQualityReviewNotificationOnNonConformingPendingClosure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	fillAnalysis(t, env, a.ID)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	verifyItems(t, env, a.ID)

	// The outcome is already known before entering pending_closure.
	current, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	current.ClosureKind = models.ClosureNonConforming
	_, err = env.engine.UpdateAction(ctx, current, testActor)
	require.NoError(t, err)

	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	var reviews []models.Notification
	for _, n := range env.notifications.ListForRecipient("quality-direction") {
		if n.Type == models.NotificationQualityReview {
			reviews = append(reviews, n)
		}
	}
	require.Len(t, reviews, 1)
	assert.Equal(t, a.ID, reviews[0].ActionID)
}

func TestMultipleBisWarning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		a := createFilledDraft(t, env)
		_, err := env.engine.Advance(ctx, a.ID, testActor)
		require.NoError(t, err)
		closeAction(t, env, a.ID, models.ClosureNonConforming)
	}

	var warnings []models.Notification
	for _, n := range env.notifications.ListForRecipient("quality-direction") {
		if n.Type == models.NotificationMultipleBisWarning {
			warnings = append(warnings, n)
		}
	}
	require.Len(t, warnings, 1, "second related BIS triggers the warning")
}

func TestAnnulFromPendingVerificationIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	fillAnalysis(t, env, a.ID)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	annulled, err := env.engine.Annul(ctx, a.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAnnulled, annulled.Status)
	assert.Equal(t, models.StatusAnnulled, annulled.StatusHistory[len(annulled.StatusHistory)-1].Status)

	_, err = env.engine.Annul(ctx, a.ID, testActor)
	assert.ErrorIs(t, err, ErrTerminalStatus)
	_, err = env.engine.Advance(ctx, a.ID, testActor)
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestUpdateDeniedByAuthorizer(t *testing.T) {
	env := newTestEnv(t)
	a := createFilledDraft(t, env)

	env.engine.auth = denyAll{}
	a.Title = "Changed"
	_, err := env.engine.UpdateAction(context.Background(), a, testActor)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = env.engine.Advance(context.Background(), a.ID, testActor)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestMarkSimilarityCheckedRequiresEditRights(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)

	env.engine.auth = denyAll{}
	_, err = env.engine.MarkSimilarityChecked(ctx, a.ID, testActor)
	assert.ErrorIs(t, err, ErrNotAllowed)

	// A rejected attempt must not open the analysis gate.
	current, err := env.actions.Get(a.ID)
	require.NoError(t, err)
	assert.False(t, current.HasCheckedSimilarity)
	assert.Contains(t, env.engine.CanAdvance(current), "similarityCheck")
}

func TestUpdateBatchesChangedFieldsInAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)

	a.Title = "Sterilization log gaps (rev 2)"
	a.Priority = "high"
	_, err := env.engine.UpdateAction(ctx, a, testActor)
	require.NoError(t, err)

	entries := env.auditLog.ListForAction(a.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, models.AuditActionUpdated, last.Kind)
	assert.Contains(t, last.Details, "title")
	assert.Contains(t, last.Details, "priority")
	assert.NotContains(t, last.Details, "description")
}

func TestStatusHistoryMatchesCurrentStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)
	_, err := env.engine.Advance(ctx, a.ID, testActor)
	require.NoError(t, err)
	closeAction(t, env, a.ID, models.ClosureNonConforming)

	for _, action := range env.actions.List() {
		require.NotEmpty(t, action.StatusHistory)
		last := action.StatusHistory[len(action.StatusHistory)-1]
		assert.Equal(t, action.Status, last.Status)
	}
}

func TestAddCommentRecordsAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createFilledDraft(t, env)

	c, err := env.engine.AddComment(ctx, a.ID, testActor, "Please prioritise this")
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.ActionID)

	entries := env.auditLog.ListForAction(a.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, models.AuditCommentAdded, last.Kind)

	_, err = env.engine.AddComment(ctx, "missing-id", testActor, "hello")
	assert.ErrorIs(t, err, store.ErrActionNotFound)
}
