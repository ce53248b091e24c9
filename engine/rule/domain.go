package rule

import (
	"fmt"
	"time"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
)

// -----------------------------------------------------------------------------
// Assignment
// -----------------------------------------------------------------------------

// AssigneeType discriminates the assignment variant. Only the fields belonging
// to the active variant are populated; Validate enforces this.
type AssigneeType string

const (
	AssignRole     AssigneeType = "role"
	AssignSpecific AssigneeType = "specific"
	AssignManager  AssigneeType = "manager"
	AssignEmployee AssigneeType = "employee"
)

type Assignment struct {
	Type   AssigneeType   `json:"type"             yaml:"type"`
	Role   string         `json:"role,omitempty"   yaml:"role,omitempty"`
	Person core.PersonRef `json:"person,omitempty" yaml:"person,omitempty"`
}

func (a *Assignment) Validate() error {
	switch a.Type {
	case AssignRole:
		if a.Role == "" {
			return fmt.Errorf("assignment: role name required for type %q", a.Type)
		}
	case AssignSpecific:
		if a.Person.ID == "" {
			return fmt.Errorf("assignment: person id required for type %q", a.Type)
		}
	case AssignManager, AssignEmployee:
		if a.Role != "" || !a.Person.IsZero() {
			return fmt.Errorf("assignment: type %q carries no identity fields", a.Type)
		}
	default:
		return fmt.Errorf("assignment: unknown assignee type %q", a.Type)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Approval
// -----------------------------------------------------------------------------

type ApproverType string

const (
	ApproveRole     ApproverType = "role"
	ApproveSpecific ApproverType = "specific"
	ApproveManager  ApproverType = "manager"
	// ApproveSkipLevel is accepted as policy data but the engine never computes
	// the skip-level identity; downstream consumers resolve it.
	ApproveSkipLevel ApproverType = "skip_level"
)

// Escalation is carried through to the downstream workflow engine unchanged.
// No timers run inside this engine.
type Escalation struct {
	Enabled   bool           `json:"enabled"             yaml:"enabled"`
	AfterDays int            `json:"after_days"          yaml:"after_days"`
	ToType    ApproverType   `json:"to_type,omitempty"   yaml:"to_type,omitempty"`
	ToRole    string         `json:"to_role,omitempty"   yaml:"to_role,omitempty"`
	ToPerson  core.PersonRef `json:"to_person,omitempty" yaml:"to_person,omitempty"`
}

// AutoApprove declares a threshold evaluated by the caller, never inside this
// engine.
type AutoApprove struct {
	Enabled bool    `json:"enabled"  yaml:"enabled"`
	MaxCost float64 `json:"max_cost" yaml:"max_cost"`
	MaxDays int     `json:"max_days" yaml:"max_days"`
}

type Approval struct {
	Required    bool           `json:"required"               yaml:"required"`
	Type        ApproverType   `json:"type,omitempty"         yaml:"type,omitempty"`
	Role        string         `json:"role,omitempty"         yaml:"role,omitempty"`
	Person      core.PersonRef `json:"person,omitempty"       yaml:"person,omitempty"`
	Escalation  *Escalation    `json:"escalation,omitempty"   yaml:"escalation,omitempty"`
	AutoApprove *AutoApprove   `json:"auto_approve,omitempty" yaml:"auto_approve,omitempty"`
}

func (a *Approval) Validate() error {
	if !a.Required {
		return nil
	}
	switch a.Type {
	case ApproveRole:
		if a.Role == "" {
			return fmt.Errorf("approval: role name required for type %q", a.Type)
		}
	case ApproveSpecific:
		if a.Person.ID == "" {
			return fmt.Errorf("approval: person id required for type %q", a.Type)
		}
	case ApproveManager, ApproveSkipLevel:
		// identity resolved outside the rule
	default:
		return fmt.Errorf("approval: unknown approver type %q", a.Type)
	}
	if a.Escalation != nil && a.Escalation.Enabled && a.Escalation.AfterDays < 0 {
		return fmt.Errorf("approval: escalation after_days must be non-negative")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Timing
// -----------------------------------------------------------------------------

// OffsetType carries the sign of the due-date offset; DaysOffset is always a
// non-negative magnitude. The split mirrors how rules are stored and must be
// preserved for round-trip correctness.
type OffsetType string

const (
	BeforeStart OffsetType = "before_start"
	OnStart     OffsetType = "on_start"
	AfterStart  OffsetType = "after_start"
)

type Timing struct {
	OffsetType OffsetType    `json:"offset_type" yaml:"offset_type"`
	DaysOffset int           `json:"days_offset" yaml:"days_offset"`
	Priority   core.Priority `json:"priority"    yaml:"priority"`
}

func (t *Timing) Validate() error {
	switch t.OffsetType {
	case BeforeStart, OnStart, AfterStart:
	default:
		return fmt.Errorf("timing: unknown offset type %q", t.OffsetType)
	}
	if t.DaysOffset < 0 {
		return fmt.Errorf("timing: days_offset must be non-negative, got %d", t.DaysOffset)
	}
	return nil
}

// DueDate computes the task due date relative to the anchor.
func (t *Timing) DueDate(anchor time.Time) time.Time {
	switch t.OffsetType {
	case BeforeStart:
		return anchor.AddDate(0, 0, -t.DaysOffset)
	case AfterStart:
		return anchor.AddDate(0, 0, t.DaysOffset)
	default:
		return anchor
	}
}

// -----------------------------------------------------------------------------
// SLA & Notifications
// -----------------------------------------------------------------------------

type SLA struct {
	Enabled     bool `json:"enabled"      yaml:"enabled"`
	TargetDays  int  `json:"target_days"  yaml:"target_days"`
	WarningDays int  `json:"warning_days" yaml:"warning_days"`
}

type Notifications struct {
	Email               bool `json:"email"                 yaml:"email"`
	Chat                bool `json:"chat"                  yaml:"chat"`
	OnAssignment        bool `json:"on_assignment"         yaml:"on_assignment"`
	OnCompletion        bool `json:"on_completion"         yaml:"on_completion"`
	ManagerOnCompletion bool `json:"manager_on_completion" yaml:"manager_on_completion"`
}

// -----------------------------------------------------------------------------
// Scope
// -----------------------------------------------------------------------------

// Scope narrows where a rule applies. Empty lists match everything.
type Scope struct {
	ProcessTypes []core.ProcessType `json:"process_types,omitempty" yaml:"process_types,omitempty"`
	Departments  []string           `json:"departments,omitempty"   yaml:"departments,omitempty"`
}

func (s *Scope) MatchesProcess(pt core.ProcessType) bool {
	if len(s.ProcessTypes) == 0 || pt == "" {
		return true
	}
	for _, scoped := range s.ProcessTypes {
		if scoped.Matches(pt) {
			return true
		}
	}
	return false
}

func (s *Scope) MatchesDepartment(dept string) bool {
	if len(s.Departments) == 0 || dept == "" {
		return true
	}
	for _, d := range s.Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Rule
// -----------------------------------------------------------------------------

// Rule is a scoped routing policy for one classification. Classification is
// immutable after creation; rules are deactivated rather than deleted in
// normal use.
type Rule struct {
	ID             core.ID                       `json:"id"                      yaml:"id"`
	Classification classification.Classification `json:"classification"          yaml:"classification"`
	Scope          Scope                         `json:"scope"                   yaml:"scope"`
	Assignment     Assignment                    `json:"assignment"              yaml:"assignment"`
	Approval       Approval                      `json:"approval"                yaml:"approval"`
	Timing         Timing                        `json:"timing"                  yaml:"timing"`
	SLA            *SLA                          `json:"sla,omitempty"           yaml:"sla,omitempty"`
	Notifications  Notifications                 `json:"notifications"           yaml:"notifications"`
	IsActive       bool                          `json:"is_active"               yaml:"is_active"`
	SortOrder      int                           `json:"sort_order"              yaml:"sort_order"`
	Description    string                        `json:"description,omitempty"   yaml:"description,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"              yaml:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"              yaml:"updated_at"`
}

// Specificity scores how narrowly the rule is scoped: a department scope
// outweighs a process-type scope, and both outweigh an unscoped rule.
func (r *Rule) Specificity() int {
	score := 0
	if len(r.Scope.Departments) > 0 {
		score += 2
	}
	if len(r.Scope.ProcessTypes) > 0 {
		score++
	}
	return score
}

func (r *Rule) Validate() error {
	if !r.Classification.IsValid() {
		return fmt.Errorf("rule: %w: %q", classification.ErrUnknown, r.Classification)
	}
	if err := r.Assignment.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if err := r.Approval.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if err := r.Timing.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return nil
}
