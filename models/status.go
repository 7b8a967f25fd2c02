// models/status.go
package models

// ActionStatus is the closed set of workflow states. Forward order is
// draft -> pending_analysis -> pending_verification -> pending_closure ->
// closed, with annulled reachable from any non-terminal state.
type ActionStatus string

const (
	StatusDraft               ActionStatus = "draft"
	StatusPendingAnalysis     ActionStatus = "pending_analysis"
	StatusPendingVerification ActionStatus = "pending_verification"
	StatusPendingClosure      ActionStatus = "pending_closure"
	StatusClosed              ActionStatus = "closed"
	StatusAnnulled            ActionStatus = "annulled"
)

// forwardTransitions is the single adjacency table for the state machine.
// Terminal states have no entry.
var forwardTransitions = map[ActionStatus]ActionStatus{
	StatusDraft:               StatusPendingAnalysis,
	StatusPendingAnalysis:     StatusPendingVerification,
	StatusPendingVerification: StatusPendingClosure,
	StatusPendingClosure:      StatusClosed,
}

// NextStatus returns the forward successor of s, or false when s is
// terminal or unknown.
func NextStatus(s ActionStatus) (ActionStatus, bool) {
	next, ok := forwardTransitions[s]
	return next, ok
}

// IsTerminal reports whether no transition leaves s.
func (s ActionStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusAnnulled
}

// Valid reports whether s is one of the known statuses.
func (s ActionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingAnalysis, StatusPendingVerification,
		StatusPendingClosure, StatusClosed, StatusAnnulled:
		return true
	}
	return false
}

// ClosureKind is the closure outcome. Set only at closure time; a
// non-conforming closure triggers BIS generation.
type ClosureKind string

const (
	ClosureConforming    ClosureKind = "conforming"
	ClosureNonConforming ClosureKind = "non_conforming"
)
