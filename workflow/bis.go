// workflow/bis.go
package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BetJor/plantilla-sub000/models"
)

// How long the generated BIS action gets for resolution and analysis.
const (
	bisDueDays      = 30
	bisAnalysisDays = 15
)

// NewBisAction derives the follow-up action for a non-conforming closure.
// Pure: the caller decides whether generation is permitted.
func NewBisAction(original models.Action, now time.Time) models.Action {
	due := now.AddDate(0, 0, bisDueDays)
	analysisDeadline := now.AddDate(0, 0, bisAnalysisDays)

	rootCauses := "not specified"
	if original.AnalysisData != nil && strings.TrimSpace(original.AnalysisData.RootCauses) != "" {
		rootCauses = original.AnalysisData.RootCauses
	}

	bis := models.Action{
		ID:    uuid.NewString(),
		Title: original.Title + " (BIS)",
		Description: fmt.Sprintf(
			"Follow-up action automatically generated after the non-conforming closure of action %s.\n\n%s",
			original.ID, original.Description),
		Type:                original.Type,
		Category:            original.Category,
		SubCategory:         original.SubCategory,
		Priority:            original.Priority,
		Centre:              original.Centre,
		Department:          original.Department,
		FunctionalAreas:     append([]string{}, original.FunctionalAreas...),
		CreatedBy:           original.CreatedBy,
		CreatorName:         original.CreatorName,
		AssignedTo:          original.AssignedTo,
		AnalysisResponsible: original.AnalysisResponsible,
		DueDate:             &due,
		AnalysisDeadline:    &analysisDeadline,
		IsBis:               true,
		OriginalActionID:    original.ID,
		// Skips draft: the problem statement is already known.
		Status: models.StatusPendingAnalysis,
		AnalysisData: &models.AnalysisData{
			RootCauses: fmt.Sprintf(
				"Root causes of the original action were judged insufficiently addressed: %s",
				rootCauses),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	bis.StatusHistory = []models.StatusHistoryEntry{{
		Status:    models.StatusPendingAnalysis,
		Timestamp: now,
		UserID:    "system",
		UserName:  "BIS generator",
	}}
	return bis
}

// maybeGenerateBis evaluates the shared trigger for both closure orderings
// (status reaches closed while non-conforming, or closureKind turns
// non-conforming while already closed). The store-level BIS index makes the
// at-most-one guard O(1), so re-evaluation on every field update is safe.
func (e *Engine) maybeGenerateBis(ctx context.Context, original models.Action, actor models.Actor) *models.Action {
	if original.IsBis {
		return nil
	}
	if original.Status != models.StatusClosed || original.ClosureKind != models.ClosureNonConforming {
		return nil
	}
	if e.actions.HasBis(original.ID) {
		return nil
	}

	bis := NewBisAction(original, e.now())
	if err := e.actions.Insert(ctx, bis); err != nil {
		log.Printf("Persist warning on BIS creation %s: %v", bis.ID, err)
	}

	e.audit.Record(ctx, bis.ID, actor, models.AuditActionCreated, map[string]interface{}{
		"title":            bis.Title,
		"originalActionId": original.ID,
	})
	e.audit.Record(ctx, original.ID, actor, models.AuditBisGenerated, map[string]interface{}{
		"bisActionId": bis.ID,
	})
	e.notifier.NotifyBisCreated(ctx, bis, original)

	if related := e.countRelatedBis(bis); related >= 2 {
		e.notifier.NotifyMultipleBis(ctx, bis, related)
	}
	return &bis
}

// countRelatedBis counts BIS actions sharing the new one's type, department
// or centre (itself included). A heuristic signal, not an invariant.
func (e *Engine) countRelatedBis(bis models.Action) int {
	count := 0
	for _, a := range e.actions.List() {
		if !a.IsBis {
			continue
		}
		if a.Type == bis.Type ||
			(bis.Department != "" && a.Department == bis.Department) ||
			(bis.Centre != "" && a.Centre == bis.Centre) {
			count++
		}
	}
	return count
}
