// models/action.go
package models

import "time"

type Action struct {
	ID          string       `json:"id" bson:"id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Type        string       `json:"type" bson:"type"`
	Category    string       `json:"category,omitempty" bson:"category,omitempty"`
	SubCategory string       `json:"subCategory,omitempty" bson:"subCategory,omitempty"`
	Status      ActionStatus `json:"status" bson:"status"`
	Priority    string       `json:"priority,omitempty" bson:"priority,omitempty"` // high, medium, low

	Centre          string   `json:"centre,omitempty" bson:"centre,omitempty"`
	Department      string   `json:"department,omitempty" bson:"department,omitempty"`
	FunctionalAreas []string `json:"functionalAreas,omitempty" bson:"functionalAreas,omitempty"`

	CreatedBy   string `json:"createdBy" bson:"createdBy"`
	CreatorName string `json:"creatorName,omitempty" bson:"creatorName,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`

	// Per-stage responsible parties; recipient resolution for status-change
	// notifications follows these.
	AnalysisResponsible     string `json:"analysisResponsible,omitempty" bson:"analysisResponsible,omitempty"`
	VerificationResponsible string `json:"verificationResponsible,omitempty" bson:"verificationResponsible,omitempty"`
	ClosureResponsible      string `json:"closureResponsible,omitempty" bson:"closureResponsible,omitempty"`

	DueDate          *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	AnalysisDeadline *time.Time `json:"analysisDeadline,omitempty" bson:"analysisDeadline,omitempty"`

	// BIS lineage. A BIS action always points to a non-BIS original.
	IsBis            bool   `json:"isBis" bson:"isBis"`
	OriginalActionID string `json:"originalActionId,omitempty" bson:"originalActionId,omitempty"`

	// Set once a similarity check has completed for this action instance.
	// Gates leaving pending_analysis for non-BIS actions.
	HasCheckedSimilarity bool `json:"hasCheckedSimilarity" bson:"hasCheckedSimilarity"`

	AnalysisData     *AnalysisData     `json:"analysisData,omitempty" bson:"analysisData,omitempty"`
	VerificationData *VerificationData `json:"verificationData,omitempty" bson:"verificationData,omitempty"`
	ClosureData      *ClosureData      `json:"closureData,omitempty" bson:"closureData,omitempty"`
	ClosureKind      ClosureKind       `json:"closureKind,omitempty" bson:"closureKind,omitempty"`

	StatusHistory []StatusHistoryEntry `json:"statusHistory" bson:"statusHistory"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StatusHistoryEntry records one transition, including the creation entry.
type StatusHistoryEntry struct {
	Status    ActionStatus `json:"status" bson:"status"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
	UserID    string       `json:"userId" bson:"userId"`
	UserName  string       `json:"userName,omitempty" bson:"userName,omitempty"`
}

type AnalysisData struct {
	RootCauses      string               `json:"rootCauses,omitempty" bson:"rootCauses,omitempty"`
	ProposedActions []ProposedActionItem `json:"proposedActions,omitempty" bson:"proposedActions,omitempty"`
	SignedBy        string               `json:"signedBy,omitempty" bson:"signedBy,omitempty"`
	SignedByName    string               `json:"signedByName,omitempty" bson:"signedByName,omitempty"`
	SignedAt        *time.Time           `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
}

type VerificationData struct {
	Notes        string     `json:"notes,omitempty" bson:"notes,omitempty"`
	SignedBy     string     `json:"signedBy,omitempty" bson:"signedBy,omitempty"`
	SignedByName string     `json:"signedByName,omitempty" bson:"signedByName,omitempty"`
	SignedAt     *time.Time `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
}

type ClosureData struct {
	Notes                   string     `json:"notes,omitempty" bson:"notes,omitempty"`
	EffectivenessEvaluation string     `json:"effectivenessEvaluation,omitempty" bson:"effectivenessEvaluation,omitempty"`
	SignedBy                string     `json:"signedBy,omitempty" bson:"signedBy,omitempty"`
	SignedByName            string     `json:"signedByName,omitempty" bson:"signedByName,omitempty"`
	SignedAt                *time.Time `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
}

// ImplementationStatus is the lifecycle of a proposed action item.
type ImplementationStatus string

const (
	ImplementationPending    ImplementationStatus = "pending"
	ImplementationInProgress ImplementationStatus = "in_progress"
	ImplementationCompleted  ImplementationStatus = "completed"
	ImplementationCancelled  ImplementationStatus = "cancelled"
)

// VerificationStatus is the per-item verification outcome. An action cannot
// leave pending_verification while any item is still not_verified.
type VerificationStatus string

const (
	VerificationNotVerified          VerificationStatus = "not_verified"
	VerificationImplemented          VerificationStatus = "implemented"
	VerificationPartiallyImplemented VerificationStatus = "partially_implemented"
	VerificationNotImplemented       VerificationStatus = "not_implemented"
)

type ProposedActionItem struct {
	ID                   string               `json:"id" bson:"id"`
	Description          string               `json:"description" bson:"description"`
	AssignedTo           string               `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	DueDate              *time.Time           `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	ImplementationStatus ImplementationStatus `json:"implementationStatus" bson:"implementationStatus"`
	VerificationStatus   VerificationStatus   `json:"verificationStatus" bson:"verificationStatus"`
	VerificationComments string               `json:"verificationComments,omitempty" bson:"verificationComments,omitempty"`
	VerifiedBy           string               `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt           *time.Time           `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
}

// CurrentStatus returns the status recorded by the last history entry, or
// the action's status field when the history is empty.
func (a *Action) CurrentStatus() ActionStatus {
	if len(a.StatusHistory) == 0 {
		return a.Status
	}
	return a.StatusHistory[len(a.StatusHistory)-1].Status
}
