package routing

import (
	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

// Materialize expands a selected rule into a complete ResolvedRouting. It is
// deterministic, performs no I/O and never partially fails.
func Materialize(r *rule.Rule, manager *core.PersonRef) *ResolvedRouting {
	ruleID := r.ID
	out := &ResolvedRouting{
		Classification: r.Classification,
		RuleID:         &ruleID,
		Timing:         r.Timing,
		SLA:            r.SLA,
		Notifications:  r.Notifications,
	}
	applyAssignment(out, r.Assignment, manager)
	applyApproval(out, r.Approval, manager)
	return out
}

// MaterializeDefault expands a default-policy entry; RuleID stays nil to
// record default-policy provenance.
func MaterializeDefault(c classification.Classification, p DefaultPolicy, manager *core.PersonRef) *ResolvedRouting {
	out := &ResolvedRouting{
		Classification: c,
		Timing:         p.Timing,
		Notifications:  p.Notifications,
	}
	applyAssignment(out, p.Assignment, manager)
	applyApproval(out, p.Approval, manager)
	return out
}

func applyAssignment(out *ResolvedRouting, a rule.Assignment, manager *core.PersonRef) {
	out.AssigneeType = a.Type
	switch a.Type {
	case rule.AssignRole:
		out.AssigneeRole = a.Role
	case rule.AssignSpecific:
		out.Assignee = a.Person
	case rule.AssignManager:
		// Without a manager in context the task stays unassigned pending
		// lookup, which is a valid state rather than an error.
		if manager != nil {
			out.Assignee = *manager
		}
	case rule.AssignEmployee:
		// Resolution is deferred to the task's eventual owner context.
	}
}

func applyApproval(out *ResolvedRouting, a rule.Approval, manager *core.PersonRef) {
	out.RequiresApproval = a.Required
	if !a.Required {
		return
	}
	out.ApproverType = a.Type
	out.Escalation = a.Escalation
	out.AutoApprove = a.AutoApprove
	switch a.Type {
	case rule.ApproveRole:
		out.ApproverRole = a.Role
	case rule.ApproveSpecific:
		out.Approver = a.Person
	case rule.ApproveManager:
		if manager != nil {
			out.Approver = *manager
		}
	case rule.ApproveSkipLevel:
		// Passed through unresolved; the org-hierarchy lookup lives downstream.
	}
}
