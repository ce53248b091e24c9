package routing

import (
	"fmt"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

// DefaultPolicy is the routing used for a classification when no rule
// matches. Every taxonomy value must have an entry; ValidateDefaults is run
// at startup and a missing entry fails the process, it is never handled at
// resolution time.
type DefaultPolicy struct {
	Assignment    rule.Assignment
	Approval      rule.Approval
	Timing        rule.Timing
	Notifications rule.Notifications
}

var defaultNotifications = rule.Notifications{
	Email:        true,
	OnAssignment: true,
	OnCompletion: true,
}

var defaultPolicies = map[classification.Classification]DefaultPolicy{
	classification.Documentation: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "HR Operations"},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 5, Priority: core.PriorityHigh},
		Notifications: defaultNotifications,
	},
	classification.SystemAccess: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "IT Support"},
		Approval:      rule.Approval{Required: true, Type: rule.ApproveManager},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 2, Priority: core.PriorityHigh},
		Notifications: defaultNotifications,
	},
	classification.Hardware: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "IT Support"},
		Approval:      rule.Approval{Required: true, Type: rule.ApproveManager},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 7, Priority: core.PriorityMedium},
		Notifications: defaultNotifications,
	},
	classification.Training: {
		Assignment:    rule.Assignment{Type: rule.AssignManager},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.AfterStart, DaysOffset: 14, Priority: core.PriorityMedium},
		Notifications: defaultNotifications,
	},
	classification.Orientation: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "HR Operations"},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.OnStart, DaysOffset: 0, Priority: core.PriorityHigh},
		Notifications: defaultNotifications,
	},
	classification.Compliance: {
		Assignment:    rule.Assignment{Type: rule.AssignEmployee},
		Approval:      rule.Approval{Required: true, Type: rule.ApproveRole, Role: "Compliance Officer"},
		Timing:        rule.Timing{OffsetType: rule.AfterStart, DaysOffset: 30, Priority: core.PriorityCritical},
		Notifications: defaultNotifications,
	},
	classification.Facilities: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "Facilities"},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 3, Priority: core.PriorityMedium},
		Notifications: defaultNotifications,
	},
	classification.Security: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "Security"},
		Approval:      rule.Approval{Required: true, Type: rule.ApproveRole, Role: "Security Lead"},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 1, Priority: core.PriorityCritical},
		Notifications: defaultNotifications,
	},
	classification.Finance: {
		Assignment:    rule.Assignment{Type: rule.AssignRole, Role: "Payroll"},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 5, Priority: core.PriorityHigh},
		Notifications: defaultNotifications,
	},
	classification.Communication: {
		Assignment:    rule.Assignment{Type: rule.AssignManager},
		Approval:      rule.Approval{Required: false},
		Timing:        rule.Timing{OffsetType: rule.OnStart, DaysOffset: 0, Priority: core.PriorityLow},
		Notifications: defaultNotifications,
	},
}

// Default returns the fallback policy for a classification. The boolean is
// false only for values outside the taxonomy; ValidateDefaults guarantees
// coverage for every valid classification.
func Default(c classification.Classification) (DefaultPolicy, bool) {
	p, ok := defaultPolicies[c]
	return p, ok
}

// ValidateDefaults checks the policy table covers the whole taxonomy and that
// every entry is internally consistent. Call it at startup; a failure is a
// configuration bug.
func ValidateDefaults() error {
	for _, c := range classification.All() {
		p, ok := defaultPolicies[c]
		if !ok {
			return fmt.Errorf("default policy missing for classification %q", c)
		}
		if err := p.Assignment.Validate(); err != nil {
			return fmt.Errorf("default policy for %q: %w", c, err)
		}
		if err := p.Approval.Validate(); err != nil {
			return fmt.Errorf("default policy for %q: %w", c, err)
		}
		if err := p.Timing.Validate(); err != nil {
			return fmt.Errorf("default policy for %q: %w", c, err)
		}
	}
	return nil
}
