// workflow/engine.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BetJor/plantilla-sub000/audit"
	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/notifications"
	"github.com/BetJor/plantilla-sub000/store"
)

var (
	// ErrNotAllowed means the authorization collaborator rejected the actor.
	ErrNotAllowed = errors.New("actor may not edit this action")
	// ErrTerminalStatus means no transition is defined from the current status.
	ErrTerminalStatus = errors.New("no transition defined from terminal status")
)

// ValidationError carries the list of missing-field reasons when a forward
// transition is blocked. It is surfaced to the caller for rendering, never
// treated as fatal.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "cannot advance: missing " + strings.Join(e.Missing, ", ")
}

// Authorizer is the external capability check gating every mutation. It is
// consulted on each attempt, never cached.
type Authorizer interface {
	CanEdit(a models.Action, actor models.Actor) bool
}

// Engine owns the corrective-action state machine: transitions, completion
// validation, annulment, derivative BIS generation and the audit and
// notification side effects of each accepted mutation.
type Engine struct {
	actions  *store.ActionStore
	comments *store.CommentStore
	audit    *audit.Recorder
	notifier *notifications.Dispatcher
	auth     Authorizer
	now      func() time.Time
}

func NewEngine(actions *store.ActionStore, comments *store.CommentStore, rec *audit.Recorder, notifier *notifications.Dispatcher, auth Authorizer) *Engine {
	return &Engine{
		actions:  actions,
		comments: comments,
		audit:    rec,
		notifier: notifier,
		auth:     auth,
		now:      time.Now,
	}
}

// CreateAction registers a new action in draft with its creation history
// entry. User-supplied status and lineage fields are ignored.
func (e *Engine) CreateAction(ctx context.Context, a models.Action, actor models.Actor) (models.Action, error) {
	now := e.now()
	a.ID = uuid.NewString()
	a.Status = models.StatusDraft
	a.IsBis = false
	a.OriginalActionID = ""
	a.HasCheckedSimilarity = false
	a.CreatedBy = actor.ID
	a.CreatorName = actor.Name
	a.CreatedAt = now
	a.UpdatedAt = now
	a.StatusHistory = []models.StatusHistoryEntry{{
		Status:    models.StatusDraft,
		Timestamp: now,
		UserID:    actor.ID,
		UserName:  actor.Name,
	}}

	if err := e.actions.Insert(ctx, a); err != nil {
		log.Printf("Persist warning on create %s: %v", a.ID, err)
	}
	e.audit.Record(ctx, a.ID, actor, models.AuditActionCreated, map[string]interface{}{
		"title": a.Title,
		"type":  a.Type,
	})
	return a, nil
}

// UpdateAction applies field-level edits to the latest stored snapshot.
// Identity, lineage, status and history are immutable here: status moves
// only through Advance/Annul. Setting closureKind to non-conforming on an
// already-closed action re-evaluates the BIS trigger.
func (e *Engine) UpdateAction(ctx context.Context, updated models.Action, actor models.Actor) (models.Action, error) {
	current, err := e.actions.Get(updated.ID)
	if err != nil {
		return models.Action{}, err
	}
	if !e.auth.CanEdit(current, actor) {
		return models.Action{}, ErrNotAllowed
	}

	changes := diffChanges(current, updated)
	if len(changes) == 0 {
		return current, nil
	}

	merged := current
	applyEditable(&merged, updated)
	merged.UpdatedAt = e.now()

	if err := e.actions.Update(ctx, merged); err != nil {
		log.Printf("Persist warning on update %s: %v", merged.ID, err)
	}
	e.audit.Record(ctx, merged.ID, actor, models.AuditActionUpdated, changes)

	// Out-of-order closure: closureKind may arrive after the action is
	// already closed. Re-check the BIS trigger here as well as on the
	// transition itself; the idempotence guard keeps this exactly-once.
	if merged.Status == models.StatusClosed && merged.ClosureKind == models.ClosureNonConforming {
		e.maybeGenerateBis(ctx, merged, actor)
	}

	latest, err := e.actions.Get(merged.ID)
	if err != nil {
		return merged, nil
	}
	return latest, nil
}

// CanAdvance returns the list of reasons the action cannot yet leave its
// current status. Empty means the forward transition is permitted.
func (e *Engine) CanAdvance(a models.Action) []string {
	var missing []string
	switch a.Status {
	case models.StatusDraft:
		if strings.TrimSpace(a.Description) == "" {
			missing = append(missing, "description")
		}
		if a.Type == "" {
			missing = append(missing, "type")
		}
		if a.Category == "" {
			missing = append(missing, "category")
		}
		if strings.TrimSpace(a.SubCategory) == "" {
			missing = append(missing, "subCategory")
		}
		if a.AnalysisResponsible == "" {
			missing = append(missing, "analysisResponsible")
		}

	case models.StatusPendingAnalysis:
		if a.AnalysisData == nil || strings.TrimSpace(a.AnalysisData.RootCauses) == "" {
			missing = append(missing, "rootCauses")
		}
		if a.AnalysisData == nil || len(a.AnalysisData.ProposedActions) == 0 {
			missing = append(missing, "proposedActions")
		} else {
			for i, item := range a.AnalysisData.ProposedActions {
				if strings.TrimSpace(item.Description) == "" {
					missing = append(missing, fmt.Sprintf("proposedActions[%d].description", i))
				}
				if item.AssignedTo == "" {
					missing = append(missing, fmt.Sprintf("proposedActions[%d].assignedTo", i))
				}
				if item.DueDate == nil {
					missing = append(missing, fmt.Sprintf("proposedActions[%d].dueDate", i))
				}
			}
		}
		// BIS actions are exempt from the similarity gate.
		if !a.IsBis && !a.HasCheckedSimilarity {
			missing = append(missing, "similarityCheck")
		}

	case models.StatusPendingVerification:
		if a.AnalysisData == nil || len(a.AnalysisData.ProposedActions) == 0 {
			missing = append(missing, "proposedActions")
		} else {
			for i, item := range a.AnalysisData.ProposedActions {
				if item.VerificationStatus == "" || item.VerificationStatus == models.VerificationNotVerified {
					missing = append(missing, fmt.Sprintf("proposedActions[%d].verificationStatus", i))
				}
			}
		}

	case models.StatusPendingClosure:
		if a.ClosureData == nil || strings.TrimSpace(a.ClosureData.Notes) == "" {
			missing = append(missing, "closureNotes")
		}
		if a.ClosureData == nil || strings.TrimSpace(a.ClosureData.EffectivenessEvaluation) == "" {
			missing = append(missing, "effectivenessEvaluation")
		}
		if a.ClosureKind == "" {
			missing = append(missing, "closureKind")
		}

	case models.StatusClosed, models.StatusAnnulled:
		missing = append(missing, "status is terminal")
	}
	return missing
}

// Advance moves the action to its forward successor after the capability
// and completion checks pass, then fires the transition side effects.
func (e *Engine) Advance(ctx context.Context, id string, actor models.Actor) (models.Action, error) {
	a, err := e.actions.Get(id)
	if err != nil {
		return models.Action{}, err
	}
	if !e.auth.CanEdit(a, actor) {
		return models.Action{}, ErrNotAllowed
	}
	next, ok := models.NextStatus(a.Status)
	if !ok {
		return models.Action{}, ErrTerminalStatus
	}
	if missing := e.CanAdvance(a); len(missing) > 0 {
		return models.Action{}, &ValidationError{Missing: missing}
	}

	e.transition(ctx, &a, next, actor)

	if next == models.StatusPendingClosure && a.ClosureKind == models.ClosureNonConforming {
		e.notifier.NotifyQualityReview(ctx, a)
	}
	if next == models.StatusClosed {
		e.audit.Record(ctx, a.ID, actor, models.AuditActionClosed, map[string]interface{}{
			"closureKind": string(a.ClosureKind),
		})
		if a.ClosureKind == models.ClosureNonConforming {
			e.maybeGenerateBis(ctx, a, actor)
		}
	}
	return a, nil
}

// Annul is permitted from any non-terminal state and is irreversible.
func (e *Engine) Annul(ctx context.Context, id string, actor models.Actor) (models.Action, error) {
	a, err := e.actions.Get(id)
	if err != nil {
		return models.Action{}, err
	}
	if a.Status.IsTerminal() {
		return models.Action{}, ErrTerminalStatus
	}
	if !e.auth.CanEdit(a, actor) {
		return models.Action{}, ErrNotAllowed
	}
	e.transition(ctx, &a, models.StatusAnnulled, actor)
	return a, nil
}

// transition applies the status change and the side effects every accepted
// transition shares: history entry, status_changed audit entry, dispatcher.
func (e *Engine) transition(ctx context.Context, a *models.Action, to models.ActionStatus, actor models.Actor) {
	from := a.Status
	now := e.now()
	a.Status = to
	a.UpdatedAt = now
	a.StatusHistory = append(a.StatusHistory, models.StatusHistoryEntry{
		Status:    to,
		Timestamp: now,
		UserID:    actor.ID,
		UserName:  actor.Name,
	})
	if err := e.actions.Update(ctx, *a); err != nil {
		log.Printf("Persist warning on transition %s: %v", a.ID, err)
	}
	e.audit.Record(ctx, a.ID, actor, models.AuditStatusChanged, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	e.notifier.NotifyStatusChange(ctx, *a, to)
}

// MarkSimilarityChecked records that a similarity check completed for this
// action instance (success or empty result both count).
func (e *Engine) MarkSimilarityChecked(ctx context.Context, id string, actor models.Actor) (models.Action, error) {
	a, err := e.actions.Get(id)
	if err != nil {
		return models.Action{}, err
	}
	if !e.auth.CanEdit(a, actor) {
		return models.Action{}, ErrNotAllowed
	}
	if a.HasCheckedSimilarity {
		return a, nil
	}
	a.HasCheckedSimilarity = true
	a.UpdatedAt = e.now()
	if err := e.actions.Update(ctx, a); err != nil {
		log.Printf("Persist warning on similarity mark %s: %v", a.ID, err)
	}
	e.audit.Record(ctx, a.ID, actor, models.AuditActionUpdated, map[string]interface{}{
		"hasCheckedSimilarity": true,
	})
	return a, nil
}

// AddComment stores a comment and its audit entry.
func (e *Engine) AddComment(ctx context.Context, actionID string, actor models.Actor, text string) (models.Comment, error) {
	if _, err := e.actions.Get(actionID); err != nil {
		return models.Comment{}, err
	}
	c := models.Comment{
		ID:         uuid.NewString(),
		ActionID:   actionID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Text:       text,
		CreatedAt:  e.now(),
	}
	if err := e.comments.Insert(ctx, c); err != nil {
		log.Printf("Persist warning on comment %s: %v", c.ID, err)
	}
	e.audit.Record(ctx, actionID, actor, models.AuditCommentAdded, map[string]interface{}{
		"commentId": c.ID,
	})
	return c, nil
}

// applyEditable copies the user-editable fields of src onto dst, leaving
// identity, lineage, status, history and the similarity flag untouched.
func applyEditable(dst *models.Action, src models.Action) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Type = src.Type
	dst.Category = src.Category
	dst.SubCategory = src.SubCategory
	dst.Priority = src.Priority
	dst.Centre = src.Centre
	dst.Department = src.Department
	dst.FunctionalAreas = src.FunctionalAreas
	dst.AssignedTo = src.AssignedTo
	dst.AnalysisResponsible = src.AnalysisResponsible
	dst.VerificationResponsible = src.VerificationResponsible
	dst.ClosureResponsible = src.ClosureResponsible
	dst.DueDate = src.DueDate
	dst.AnalysisDeadline = src.AnalysisDeadline
	dst.AnalysisData = src.AnalysisData
	dst.VerificationData = src.VerificationData
	dst.ClosureData = src.ClosureData
	dst.ClosureKind = src.ClosureKind
}

// diffChanges builds the batched field map for the action_updated audit
// entry: changed field name -> new value.
func diffChanges(old, new models.Action) map[string]interface{} {
	changes := make(map[string]interface{})
	if old.Title != new.Title {
		changes["title"] = new.Title
	}
	if old.Description != new.Description {
		changes["description"] = new.Description
	}
	if old.Type != new.Type {
		changes["type"] = new.Type
	}
	if old.Category != new.Category {
		changes["category"] = new.Category
	}
	if old.SubCategory != new.SubCategory {
		changes["subCategory"] = new.SubCategory
	}
	if old.Priority != new.Priority {
		changes["priority"] = new.Priority
	}
	if old.Centre != new.Centre {
		changes["centre"] = new.Centre
	}
	if old.Department != new.Department {
		changes["department"] = new.Department
	}
	if !reflect.DeepEqual(old.FunctionalAreas, new.FunctionalAreas) {
		changes["functionalAreas"] = new.FunctionalAreas
	}
	if old.AssignedTo != new.AssignedTo {
		changes["assignedTo"] = new.AssignedTo
	}
	if old.AnalysisResponsible != new.AnalysisResponsible {
		changes["analysisResponsible"] = new.AnalysisResponsible
	}
	if old.VerificationResponsible != new.VerificationResponsible {
		changes["verificationResponsible"] = new.VerificationResponsible
	}
	if old.ClosureResponsible != new.ClosureResponsible {
		changes["closureResponsible"] = new.ClosureResponsible
	}
	if !reflect.DeepEqual(old.DueDate, new.DueDate) {
		changes["dueDate"] = new.DueDate
	}
	if !reflect.DeepEqual(old.AnalysisDeadline, new.AnalysisDeadline) {
		changes["analysisDeadline"] = new.AnalysisDeadline
	}
	if !reflect.DeepEqual(old.AnalysisData, new.AnalysisData) {
		changes["analysisData"] = new.AnalysisData
	}
	if !reflect.DeepEqual(old.VerificationData, new.VerificationData) {
		changes["verificationData"] = new.VerificationData
	}
	if !reflect.DeepEqual(old.ClosureData, new.ClosureData) {
		changes["closureData"] = new.ClosureData
	}
	if old.ClosureKind != new.ClosureKind {
		changes["closureKind"] = string(new.ClosureKind)
	}
	return changes
}
