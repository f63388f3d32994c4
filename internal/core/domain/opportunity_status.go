package domain

// OpportunityStatus represents the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	StatusNew         OpportunityStatus = "new"
	StatusNegotiating OpportunityStatus = "negotiating"
	StatusWon         OpportunityStatus = "won"
	StatusLost        OpportunityStatus = "lost"
	StatusArchived    OpportunityStatus = "archived"
)

// validTransitions defines the allowed state machine transitions.
// Won, Lost and Archived are terminal.
var validTransitions = map[OpportunityStatus][]OpportunityStatus{
	StatusNew:         {StatusNegotiating, StatusLost},
	StatusNegotiating: {StatusWon, StatusLost, StatusArchived},
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []OpportunityStatus {
	return []OpportunityStatus{StatusNew, StatusNegotiating, StatusWon, StatusLost, StatusArchived}
}

// IsValid reports whether s is a known status.
func (s OpportunityStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusNegotiating, StatusWon, StatusLost, StatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OpportunityStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ParseOpportunityStatus converts a raw string to an OpportunityStatus.
func ParseOpportunityStatus(raw string) (OpportunityStatus, error) {
	s := OpportunityStatus(raw)
	if !s.IsValid() {
		return "", &ValidationError{Code: CodeUnknownStatus, Field: "status", Detail: raw}
	}
	return s, nil
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OpportunityStatus) CanTransitionTo(next OpportunityStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo guards a status change. Self-transitions are illegal.
func (s OpportunityStatus) TransitionTo(next OpportunityStatus) error {
	if !s.CanTransitionTo(next) {
		return &IllegalTransitionError{From: s, To: next}
	}
	return nil
}
