// Package template models the task library: classification-tagged task
// blueprints that the merger combines with a resolved routing to produce
// editable tasks.
package template

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

var ErrNotFound = errors.New("template not found")

// Defaults are a template's own routing baseline. Nil fields mean the
// template is silent and the rule or default-policy resolution applies
// untouched. A template default never overrides an active classification
// rule; it is only the pre-rule baseline.
type Defaults struct {
	Assignment    *rule.Assignment    `json:"assignment,omitempty"    yaml:"assignment,omitempty"`
	Timing        *rule.Timing        `json:"timing,omitempty"        yaml:"timing,omitempty"`
	Notifications *rule.Notifications `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

// Template is a reusable task blueprint independent of any specific person's
// process instance.
type Template struct {
	ID                 core.ID                       `json:"id"                             yaml:"id"`
	TaskCode           string                        `json:"task_code,omitempty"            yaml:"task_code,omitempty"`
	Classification     classification.Classification `json:"classification"                 yaml:"classification"`
	Title              string                        `json:"title"                          yaml:"title"`
	Description        string                        `json:"description,omitempty"          yaml:"description,omitempty"`
	Instructions       string                        `json:"instructions,omitempty"         yaml:"instructions,omitempty"`
	ProcessTypes       []core.ProcessType            `json:"process_types,omitempty"        yaml:"process_types,omitempty"`
	Departments        []string                      `json:"departments,omitempty"          yaml:"departments,omitempty"`
	JobTitles          []string                      `json:"job_titles,omitempty"           yaml:"job_titles,omitempty"`
	Defaults           Defaults                      `json:"defaults,omitempty"             yaml:"defaults,omitempty"`
	IsMandatory        bool                          `json:"is_mandatory"                   yaml:"is_mandatory"`
	DependsOnTaskCodes []string                      `json:"depends_on_task_codes,omitempty" yaml:"depends_on_task_codes,omitempty"`
	EstimatedHours     float64                       `json:"estimated_hours,omitempty"      yaml:"estimated_hours,omitempty"`
	IsActive           bool                          `json:"is_active"                      yaml:"is_active"`
	CreatedAt          time.Time                     `json:"created_at"                     yaml:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"                     yaml:"updated_at"`
}

// AppliesTo is the only filter deciding whether a template appears in a
// process's checklist at all; mandatory templates are never dropped by any
// later stage.
func (t *Template) AppliesTo(pt core.ProcessType) bool {
	if len(t.ProcessTypes) == 0 {
		return true
	}
	for _, scoped := range t.ProcessTypes {
		if scoped.Matches(pt) {
			return true
		}
	}
	return false
}

func (t *Template) Validate() error {
	if !t.Classification.IsValid() {
		return fmt.Errorf("template: %w: %q", classification.ErrUnknown, t.Classification)
	}
	if t.Title == "" {
		return fmt.Errorf("template %s: title is required", t.ID)
	}
	if t.Defaults.Assignment != nil {
		if err := t.Defaults.Assignment.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
	}
	if t.Defaults.Timing != nil {
		if err := t.Defaults.Timing.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
	}
	return nil
}

// Filter narrows a template List call.
type Filter struct {
	ProcessType *core.ProcessType
	IsActive    *bool
}

func (f *Filter) Matches(t *Template) bool {
	if f == nil {
		return true
	}
	if f.ProcessType != nil && !t.AppliesTo(*f.ProcessType) {
		return false
	}
	if f.IsActive != nil && t.IsActive != *f.IsActive {
		return false
	}
	return true
}

// Repository is the task library read/write contract.
type Repository interface {
	List(ctx context.Context, filter *Filter) ([]*Template, error)
	Get(ctx context.Context, id core.ID) (*Template, error)
	Create(ctx context.Context, t *Template) error
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id core.ID) error
}
