package taskset

import (
	"context"
	"fmt"
	"time"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/template"
	"github.com/stafflow/stafflow/pkg/logger"
)

// Builder turns the applicable task templates for a process into a working
// set of fully routed tasks. Template fetch and rule fetch each happen once
// per build.
type Builder struct {
	templates template.Repository
	resolver  *routing.Resolver
}

func NewBuilder(templates template.Repository, resolver *routing.Resolver) *Builder {
	return &Builder{templates: templates, resolver: resolver}
}

// BuildRequest describes one checklist build.
type BuildRequest struct {
	Context routing.Context
	// Anchor is the date due dates are computed from: start date, effective
	// date or last day depending on the process.
	Anchor time.Time
}

// Build fetches the applicable templates, resolves one routing per distinct
// classification and merges each template into a configurable task. Template
// applicability is the only appearance filter; mandatory templates always
// survive to the working set.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*WorkingSet, error) {
	if req.Anchor.IsZero() {
		return nil, fmt.Errorf("build: anchor date is required")
	}
	active := true
	filter := &template.Filter{IsActive: &active}
	if req.Context.ProcessType != "" {
		pt := req.Context.ProcessType
		filter.ProcessType = &pt
	}
	templates, err := b.templates.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("build: listing templates: %w", err)
	}
	classifications := distinctClassifications(templates)
	resolved, err := b.resolver.ResolveBatch(ctx, classifications, req.Context)
	if err != nil {
		return nil, fmt.Errorf("build: resolving routings: %w", err)
	}
	ws := NewWorkingSet()
	for _, tpl := range templates {
		task, err := Merge(tpl, resolved[tpl.Classification], req.Anchor, nil)
		if err != nil {
			return nil, fmt.Errorf("build: merging template %s: %w", tpl.ID, err)
		}
		ws.Add(task)
	}
	logger.FromContext(ctx).Debug("checklist built",
		"templates", len(templates), "classifications", len(classifications))
	return ws, nil
}

func distinctClassifications(templates []*template.Template) []classification.Classification {
	seen := make(map[classification.Classification]struct{}, len(templates))
	var out []classification.Classification
	for _, tpl := range templates {
		if _, ok := seen[tpl.Classification]; !ok {
			seen[tpl.Classification] = struct{}{}
			out = append(out, tpl.Classification)
		}
	}
	return out
}
