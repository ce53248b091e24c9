// Package routing turns a task classification into a concrete routing
// decision: who does the work, who approves it, when it is due and which
// notifications fire. Selection consults the prioritized rule set and falls
// back to a static per-classification default policy, so resolution always
// produces a routing.
package routing

import (
	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

// Context carries the optional scoping and identity inputs for a resolution.
type Context struct {
	ProcessType core.ProcessType
	Department  string
	// Manager substitutes for manager-typed assignees and approvers. When nil,
	// manager-typed assignments stay unassigned pending lookup.
	Manager *core.PersonRef
}

// ResolvedRouting is the engine's output for one classification in one
// context. RuleID is nil when the default policy produced the routing.
type ResolvedRouting struct {
	Classification classification.Classification `json:"classification"`
	RuleID         *core.ID                      `json:"rule_id,omitempty"`

	AssigneeType rule.AssigneeType `json:"assignee_type"`
	AssigneeRole string            `json:"assignee_role,omitempty"`
	Assignee     core.PersonRef    `json:"assignee,omitempty"`

	RequiresApproval bool              `json:"requires_approval"`
	ApproverType     rule.ApproverType `json:"approver_type,omitempty"`
	ApproverRole     string            `json:"approver_role,omitempty"`
	Approver         core.PersonRef    `json:"approver,omitempty"`
	Escalation       *rule.Escalation  `json:"escalation,omitempty"`
	AutoApprove      *rule.AutoApprove `json:"auto_approve,omitempty"`

	Timing        rule.Timing        `json:"timing"`
	SLA           *rule.SLA          `json:"sla,omitempty"`
	Notifications rule.Notifications `json:"notifications"`
}

// FromRule reports whether a classification rule, rather than the default
// policy, produced this routing. The merger uses it to mark tasks as
// deliberately routed.
func (r *ResolvedRouting) FromRule() bool {
	return r.RuleID != nil
}

// Unassigned reports whether assignee identity is still pending, which is a
// valid state for manager-typed routing without a manager in context and for
// employee-typed routing generally.
func (r *ResolvedRouting) Unassigned() bool {
	return r.AssigneeRole == "" && r.Assignee.IsZero()
}
