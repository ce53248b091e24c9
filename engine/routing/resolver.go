package routing

import (
	"context"
	"fmt"
	"sort"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/pkg/logger"
)

// Resolver selects the effective rule for a classification and materializes
// routings. It is stateless and safe to construct once per session.
type Resolver struct {
	rules rule.Repository
}

func NewResolver(rules rule.Repository) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns the single best-matching active rule for the
// classification, or nil when no rule matches. Repository failures degrade to
// nil (fail-open): the caller falls back to the default policy rather than
// blocking the checklist.
func (r *Resolver) Resolve(
	ctx context.Context,
	c classification.Classification,
	rctx Context,
) (*rule.Rule, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %q", classification.ErrUnknown, c)
	}
	active := true
	filter := &rule.Filter{Classification: &c, IsActive: &active}
	if rctx.ProcessType != "" {
		pt := rctx.ProcessType
		filter.ProcessType = &pt
	}
	if rctx.Department != "" {
		dept := rctx.Department
		filter.Department = &dept
	}
	rules, err := r.rules.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Warn("rule fetch failed, falling back to default policy",
			"classification", c, "error", err)
		return nil, nil
	}
	if len(rules) == 0 {
		return nil, nil
	}
	sortBySpecificity(rules)
	return rules[0], nil
}

// ResolveRouting resolves and materializes in one step, falling back to the
// default policy when no rule matches.
func (r *Resolver) ResolveRouting(
	ctx context.Context,
	c classification.Classification,
	rctx Context,
) (*ResolvedRouting, error) {
	matched, err := r.Resolve(ctx, c, rctx)
	if err != nil {
		return nil, err
	}
	if matched != nil {
		return Materialize(matched, rctx.Manager), nil
	}
	policy, ok := Default(c)
	if !ok {
		// Unreachable once ValidateDefaults has run at startup.
		return nil, fmt.Errorf("default policy missing for classification %q", c)
	}
	return MaterializeDefault(c, policy, rctx.Manager), nil
}

// ResolveBatch resolves routings for a set of classifications with exactly
// one repository round trip regardless of input size. Each classification's
// result is independent of the others in the call and agrees with the
// single-classification path.
func (r *Resolver) ResolveBatch(
	ctx context.Context,
	classifications []classification.Classification,
	rctx Context,
) (map[classification.Classification]*ResolvedRouting, error) {
	for _, c := range classifications {
		if !c.IsValid() {
			return nil, fmt.Errorf("%w: %q", classification.ErrUnknown, c)
		}
	}
	best := r.bestRulesByClassification(ctx, rctx)
	out := make(map[classification.Classification]*ResolvedRouting, len(classifications))
	for _, c := range classifications {
		if matched, ok := best[c]; ok {
			out[c] = Materialize(matched, rctx.Manager)
			continue
		}
		policy, ok := Default(c)
		if !ok {
			return nil, fmt.Errorf("default policy missing for classification %q", c)
		}
		out[c] = MaterializeDefault(c, policy, rctx.Manager)
	}
	return out, nil
}

func (r *Resolver) bestRulesByClassification(
	ctx context.Context,
	rctx Context,
) map[classification.Classification]*rule.Rule {
	active := true
	filter := &rule.Filter{IsActive: &active}
	if rctx.ProcessType != "" {
		pt := rctx.ProcessType
		filter.ProcessType = &pt
	}
	if rctx.Department != "" {
		dept := rctx.Department
		filter.Department = &dept
	}
	rules, err := r.rules.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Warn("rule fetch failed, falling back to default policy",
			"error", err)
		return nil
	}
	// After the deterministic sort, first-wins per classification is
	// equivalent to the strictly-greater replacement rule and matches what
	// Resolve returns for each classification on its own.
	sortBySpecificity(rules)
	best := make(map[classification.Classification]*rule.Rule)
	for _, candidate := range rules {
		if _, ok := best[candidate.Classification]; !ok {
			best[candidate.Classification] = candidate
		}
	}
	return best
}

// sortBySpecificity orders rules by specificity descending with a
// deterministic tie-break on sort order then id, so equally specific rules
// never resolve on incidental list order.
func sortBySpecificity(rules []*rule.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		si, sj := rules[i].Specificity(), rules[j].Specificity()
		if si != sj {
			return si > sj
		}
		if rules[i].SortOrder != rules[j].SortOrder {
			return rules[i].SortOrder < rules[j].SortOrder
		}
		return rules[i].ID < rules[j].ID
	})
}
