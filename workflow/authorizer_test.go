package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BetJor/plantilla-sub000/models"
)

func TestRoleAuthorizer(t *testing.T) {
	a := models.Action{
		CreatedBy:               "creator",
		AssignedTo:              "assignee",
		AnalysisResponsible:     "analyst",
		VerificationResponsible: "verifier",
		ClosureResponsible:      "closer",
		Status:                  models.StatusPendingAnalysis,
	}
	auth := RoleAuthorizer{}

	assert.True(t, auth.CanEdit(a, models.Actor{ID: "anyone", Role: "admin"}))
	assert.True(t, auth.CanEdit(a, models.Actor{ID: "anyone", Role: "quality"}))
	assert.True(t, auth.CanEdit(a, models.Actor{ID: "creator", Role: "user"}))
	assert.True(t, auth.CanEdit(a, models.Actor{ID: "assignee", Role: "user"}))
	assert.True(t, auth.CanEdit(a, models.Actor{ID: "analyst", Role: "user"}))

	// The analysis responsible has no say outside their stage.
	assert.False(t, auth.CanEdit(a, models.Actor{ID: "verifier", Role: "user"}))
	assert.False(t, auth.CanEdit(a, models.Actor{ID: "stranger", Role: "user"}))
	assert.False(t, auth.CanEdit(a, models.Actor{}))
}

func TestRoleAuthorizerStageResponsibles(t *testing.T) {
	auth := RoleAuthorizer{}
	base := models.Action{
		CreatedBy:               "creator",
		VerificationResponsible: "verifier",
		ClosureResponsible:      "closer",
	}

	verification := base
	verification.Status = models.StatusPendingVerification
	assert.True(t, auth.CanEdit(verification, models.Actor{ID: "verifier", Role: "user"}))
	assert.False(t, auth.CanEdit(verification, models.Actor{ID: "closer", Role: "user"}))

	closure := base
	closure.Status = models.StatusPendingClosure
	assert.True(t, auth.CanEdit(closure, models.Actor{ID: "closer", Role: "user"}))
	assert.False(t, auth.CanEdit(closure, models.Actor{ID: "verifier", Role: "user"}))
}
