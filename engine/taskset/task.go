// Package taskset materializes task templates into concrete, editable tasks
// and holds them while a human reviews and adjusts the checklist before
// confirmation.
package taskset

import (
	"time"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

// SourceKind identifies what a task was generated from.
type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceSystem   SourceKind = "system"
	SourceAsset    SourceKind = "asset"
	SourceTraining SourceKind = "training"
	SourceCustom   SourceKind = "custom"
)

// SourceRef points back at the selected item a task was generated from.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// ConfigurableTask is the materialized, editable unit produced by the merger
// and mutated through the working set until the checklist is confirmed.
type ConfigurableTask struct {
	ID       core.ID                       `json:"id"`
	TaskCode string                        `json:"task_code,omitempty"`
	Title    string                        `json:"title"`
	Category classification.Classification `json:"category"`
	Source   SourceRef                     `json:"source"`

	// Provenance: set when a classification rule, not the default policy,
	// produced the routing.
	RuleID *core.ID `json:"rule_id,omitempty"`

	AssigneeType rule.AssigneeType `json:"assignee_type"`
	AssigneeRole string            `json:"assignee_role,omitempty"`
	Assignee     core.PersonRef    `json:"assignee,omitempty"`

	RequiresApproval bool              `json:"requires_approval"`
	ApproverType     rule.ApproverType `json:"approver_type,omitempty"`
	ApproverRole     string            `json:"approver_role,omitempty"`
	Approver         core.PersonRef    `json:"approver,omitempty"`
	Escalation       *rule.Escalation  `json:"escalation,omitempty"`
	AutoApprove      *rule.AutoApprove `json:"auto_approve,omitempty"`

	OffsetType rule.OffsetType `json:"offset_type"`
	DaysOffset int             `json:"days_offset"`
	DueDate    time.Time       `json:"due_date"`
	Priority   core.Priority   `json:"priority"`

	SLA           *rule.SLA          `json:"sla,omitempty"`
	Notifications rule.Notifications `json:"notifications"`

	Instructions   string  `json:"instructions,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
	IsMandatory    bool    `json:"is_mandatory"`

	DependsOnTaskCodes []string  `json:"depends_on_task_codes,omitempty"`
	DependsOnTaskIDs   []core.ID `json:"depends_on_task_ids,omitempty"`

	IsSelected bool `json:"is_selected"`
	// IsConfigured distinguishes "deliberately routed or edited" from
	// "running on defaults" for downstream review surfaces.
	IsConfigured bool `json:"is_configured"`

	// edits accumulates the patches applied by the working set. A re-merge
	// replays them over the fresh task so a human edit outranks a changed
	// rule, including edits that clear a value.
	edits Patch
}

// Patch is the explicit delta applied by single and bulk edits. Unset fields
// leave the task unchanged; a set field overwrites, including set-to-zero for
// clearing values such as an assignee.
type Patch struct {
	Title            core.Patch[string]
	AssigneeType     core.Patch[rule.AssigneeType]
	AssigneeRole     core.Patch[string]
	Assignee         core.Patch[core.PersonRef]
	RequiresApproval core.Patch[bool]
	ApproverRole     core.Patch[string]
	Approver         core.Patch[core.PersonRef]
	DueDate          core.Patch[time.Time]
	Priority         core.Patch[core.Priority]
	Notifications    core.Patch[rule.Notifications]
	Instructions     core.Patch[string]
	IsSelected       core.Patch[bool]
}

// IsZero reports whether the patch changes nothing.
func (p *Patch) IsZero() bool {
	return !p.Title.IsSet() &&
		!p.AssigneeType.IsSet() &&
		!p.AssigneeRole.IsSet() &&
		!p.Assignee.IsSet() &&
		!p.RequiresApproval.IsSet() &&
		!p.ApproverRole.IsSet() &&
		!p.Approver.IsSet() &&
		!p.DueDate.IsSet() &&
		!p.Priority.IsSet() &&
		!p.Notifications.IsSet() &&
		!p.Instructions.IsSet() &&
		!p.IsSelected.IsSet()
}

// ApplyTo writes the set fields onto the task, records them in the task's
// edit history and marks it configured.
func (p *Patch) ApplyTo(t *ConfigurableTask) {
	if p.IsZero() {
		return
	}
	p.Title.Apply(&t.Title)
	p.AssigneeType.Apply(&t.AssigneeType)
	p.AssigneeRole.Apply(&t.AssigneeRole)
	p.Assignee.Apply(&t.Assignee)
	p.RequiresApproval.Apply(&t.RequiresApproval)
	p.ApproverRole.Apply(&t.ApproverRole)
	p.Approver.Apply(&t.Approver)
	p.DueDate.Apply(&t.DueDate)
	p.Priority.Apply(&t.Priority)
	p.Notifications.Apply(&t.Notifications)
	p.Instructions.Apply(&t.Instructions)
	p.IsSelected.Apply(&t.IsSelected)
	t.edits = t.edits.fold(p)
	t.IsConfigured = true
}

// fold returns p with q's set fields folded over it.
func (p Patch) fold(q *Patch) Patch {
	p.Title = p.Title.Overlay(q.Title)
	p.AssigneeType = p.AssigneeType.Overlay(q.AssigneeType)
	p.AssigneeRole = p.AssigneeRole.Overlay(q.AssigneeRole)
	p.Assignee = p.Assignee.Overlay(q.Assignee)
	p.RequiresApproval = p.RequiresApproval.Overlay(q.RequiresApproval)
	p.ApproverRole = p.ApproverRole.Overlay(q.ApproverRole)
	p.Approver = p.Approver.Overlay(q.Approver)
	p.DueDate = p.DueDate.Overlay(q.DueDate)
	p.Priority = p.Priority.Overlay(q.Priority)
	p.Notifications = p.Notifications.Overlay(q.Notifications)
	p.Instructions = p.Instructions.Overlay(q.Instructions)
	p.IsSelected = p.IsSelected.Overlay(q.IsSelected)
	return p
}
