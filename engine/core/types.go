package core

import "fmt"

// -----------------------------------------------------------------------------
// Process Type
// -----------------------------------------------------------------------------

// ProcessType identifies the HR process a checklist belongs to.
type ProcessType string

const (
	ProcessOnboarding  ProcessType = "onboarding"
	ProcessMover       ProcessType = "mover"
	ProcessOffboarding ProcessType = "offboarding"
	// ProcessAll matches every process type when used in a rule scope.
	ProcessAll ProcessType = "all"
)

func ProcessTypes() []ProcessType {
	return []ProcessType{ProcessOnboarding, ProcessMover, ProcessOffboarding, ProcessAll}
}

func ParseProcessType(s string) (ProcessType, error) {
	switch pt := ProcessType(s); pt {
	case ProcessOnboarding, ProcessMover, ProcessOffboarding, ProcessAll:
		return pt, nil
	default:
		return "", fmt.Errorf("unknown process type: %q", s)
	}
}

func (p ProcessType) String() string {
	return string(p)
}

// Matches reports whether a scope entry covers the given process type.
func (p ProcessType) Matches(other ProcessType) bool {
	return p == ProcessAll || other == ProcessAll || p == other
}

// -----------------------------------------------------------------------------
// Priority
// -----------------------------------------------------------------------------

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority: %q", s)
	}
}

func (p Priority) String() string {
	return string(p)
}

// -----------------------------------------------------------------------------
// Person Reference
// -----------------------------------------------------------------------------

// PersonRef is the identity triple carried on assignments and approvals.
type PersonRef struct {
	ID    string `json:"id"              yaml:"id"`
	Name  string `json:"name"            yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

func (p PersonRef) IsZero() bool {
	return p == PersonRef{}
}
