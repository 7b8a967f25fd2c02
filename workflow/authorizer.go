// workflow/authorizer.go
package workflow

import "github.com/BetJor/plantilla-sub000/models"

// RoleAuthorizer is the default capability check: admins and the quality
// role edit everything; otherwise the creator, the assignee and the
// responsible party for the current stage may edit.
type RoleAuthorizer struct{}

func (RoleAuthorizer) CanEdit(a models.Action, actor models.Actor) bool {
	if actor.ID == "" {
		return false
	}
	switch actor.Role {
	case "admin", "quality":
		return true
	}
	if actor.ID == a.CreatedBy || actor.ID == a.AssignedTo {
		return true
	}
	switch a.Status {
	case models.StatusPendingAnalysis:
		return actor.ID == a.AnalysisResponsible
	case models.StatusPendingVerification:
		return actor.ID == a.VerificationResponsible
	case models.StatusPendingClosure:
		return actor.ID == a.ClosureResponsible
	}
	return false
}
