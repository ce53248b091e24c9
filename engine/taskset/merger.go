package taskset

import (
	"fmt"
	"time"

	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/engine/template"
)

// Merge combines a task template with a resolved routing and a due-date
// anchor into a ConfigurableTask.
//
// Routing precedence: user override (prior, when re-merging an edited task)
// > classification rule / default policy > template default. A template's
// own routing defaults are only a pre-rule baseline: they apply when the
// routing came from the default policy and never displace an active rule.
func Merge(
	tpl *template.Template,
	routed *routing.ResolvedRouting,
	anchor time.Time,
	prior *ConfigurableTask,
) (*ConfigurableTask, error) {
	if tpl == nil {
		return nil, fmt.Errorf("merge: template is required")
	}
	if routed == nil {
		return nil, fmt.Errorf("merge: resolved routing is required")
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("merge: anchor date is required")
	}
	task := &ConfigurableTask{
		ID:                 core.MustNewID(),
		TaskCode:           tpl.TaskCode,
		Title:              tpl.Title,
		Category:           tpl.Classification,
		Source:             SourceRef{Kind: SourceCustom, ID: tpl.TaskCode},
		Instructions:       tpl.Instructions,
		EstimatedHours:     tpl.EstimatedHours,
		IsMandatory:        tpl.IsMandatory,
		DependsOnTaskCodes: append([]string(nil), tpl.DependsOnTaskCodes...),
		IsSelected:         true,
	}
	applyRouting(task, routed)
	if !routed.FromRule() {
		applyTemplateDefaults(task, tpl)
	}
	task.DueDate = dueDate(task, anchor)
	task.IsConfigured = routed.FromRule()
	if prior != nil {
		applyPrior(task, prior)
	}
	return task, nil
}

func applyRouting(task *ConfigurableTask, routed *routing.ResolvedRouting) {
	task.RuleID = routed.RuleID
	task.AssigneeType = routed.AssigneeType
	task.AssigneeRole = routed.AssigneeRole
	task.Assignee = routed.Assignee
	task.RequiresApproval = routed.RequiresApproval
	task.ApproverType = routed.ApproverType
	task.ApproverRole = routed.ApproverRole
	task.Approver = routed.Approver
	task.Escalation = routed.Escalation
	task.AutoApprove = routed.AutoApprove
	task.OffsetType = routed.Timing.OffsetType
	task.DaysOffset = routed.Timing.DaysOffset
	task.Priority = routed.Timing.Priority
	task.SLA = routed.SLA
	task.Notifications = routed.Notifications
}

// applyTemplateDefaults overlays the template's own routing baseline; only
// reached when no rule matched, so defaults displace the default policy, not
// a rule.
func applyTemplateDefaults(task *ConfigurableTask, tpl *template.Template) {
	if a := tpl.Defaults.Assignment; a != nil {
		task.AssigneeType = a.Type
		task.AssigneeRole = ""
		task.Assignee = core.PersonRef{}
		switch a.Type {
		case rule.AssignRole:
			task.AssigneeRole = a.Role
		case rule.AssignSpecific:
			task.Assignee = a.Person
		}
	}
	if tm := tpl.Defaults.Timing; tm != nil {
		task.OffsetType = tm.OffsetType
		task.DaysOffset = tm.DaysOffset
		if tm.Priority != "" {
			task.Priority = tm.Priority
		}
	}
	if n := tpl.Defaults.Notifications; n != nil {
		task.Notifications = *n
	}
}

func dueDate(task *ConfigurableTask, anchor time.Time) time.Time {
	timing := rule.Timing{OffsetType: task.OffsetType, DaysOffset: task.DaysOffset}
	return timing.DueDate(anchor)
}

// applyPrior replays the edits recorded on the prior task over the fresh
// merge. Only fields a human explicitly set carry over; the prior task's
// computed due date and old routing do not, so a changed rule shows through
// everything the human never touched. Clearing edits replay too, since the
// record keeps set-to-zero distinct from unset.
func applyPrior(task *ConfigurableTask, prior *ConfigurableTask) {
	edits := prior.edits
	edits.ApplyTo(task)
}
