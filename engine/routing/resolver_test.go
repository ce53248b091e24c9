package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo serves rules from memory with Filter semantics and counts List
// calls so tests can assert the single-round-trip invariant.
type fakeRepo struct {
	rules     []*rule.Rule
	listCalls int
	listErr   error
}

func (f *fakeRepo) List(_ context.Context, filter *rule.Filter) ([]*rule.Rule, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*rule.Rule
	for _, r := range f.rules {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id core.ID) (*rule.Rule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, rule.ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, r *rule.Rule) error {
	f.rules = append(f.rules, r)
	return nil
}

func (f *fakeRepo) Update(context.Context, *rule.Rule) error { return nil }
func (f *fakeRepo) Deactivate(context.Context, core.ID) error { return nil }
func (f *fakeRepo) Delete(context.Context, core.ID) error { return nil }

func newRule(
	id string,
	c classification.Classification,
	scope rule.Scope,
	sortOrder int,
) *rule.Rule {
	return &rule.Rule{
		ID:             core.ID(id),
		Classification: c,
		Scope:          scope,
		Assignment:     rule.Assignment{Type: rule.AssignRole, Role: "Rule " + id},
		Approval:       rule.Approval{Required: false},
		Timing:         rule.Timing{OffsetType: rule.OnStart, Priority: core.PriorityMedium},
		IsActive:       true,
		SortOrder:      sortOrder,
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return nil when no rules match", func(t *testing.T) {
		r := routing.NewResolver(&fakeRepo{})
		matched, err := r.Resolve(ctx, classification.Hardware, routing.Context{})
		require.NoError(t, err)
		assert.Nil(t, matched)
	})
	t.Run("Should reject an unknown classification", func(t *testing.T) {
		r := routing.NewResolver(&fakeRepo{})
		_, err := r.Resolve(ctx, classification.Classification("catering"), routing.Context{})
		assert.ErrorIs(t, err, classification.ErrUnknown)
	})
	t.Run("Should prefer department scope over process-type scope over unscoped", func(t *testing.T) {
		unscoped := newRule("a", classification.SystemAccess, rule.Scope{}, 0)
		byProcess := newRule("b", classification.SystemAccess,
			rule.Scope{ProcessTypes: []core.ProcessType{core.ProcessOnboarding}}, 0)
		byDept := newRule("c", classification.SystemAccess,
			rule.Scope{Departments: []string{"Engineering"}}, 0)
		for _, order := range [][]*rule.Rule{
			{unscoped, byProcess, byDept},
			{byDept, unscoped, byProcess},
			{byProcess, byDept, unscoped},
		} {
			repo := &fakeRepo{rules: order}
			r := routing.NewResolver(repo)
			matched, err := r.Resolve(ctx, classification.SystemAccess, routing.Context{
				ProcessType: core.ProcessOnboarding,
				Department:  "Engineering",
			})
			require.NoError(t, err)
			require.NotNil(t, matched)
			assert.Equal(t, byDept.ID, matched.ID, "input order must not affect selection")
		}
	})
	t.Run("Should break specificity ties on sort order then id", func(t *testing.T) {
		first := newRule("x", classification.Training, rule.Scope{}, 2)
		second := newRule("y", classification.Training, rule.Scope{}, 1)
		third := newRule("w", classification.Training, rule.Scope{}, 1)
		repo := &fakeRepo{rules: []*rule.Rule{first, second, third}}
		r := routing.NewResolver(repo)
		matched, err := r.Resolve(ctx, classification.Training, routing.Context{})
		require.NoError(t, err)
		assert.Equal(t, core.ID("w"), matched.ID)
	})
	t.Run("Should exclude rules scoped to another department", func(t *testing.T) {
		sales := newRule("a", classification.Finance, rule.Scope{Departments: []string{"Sales"}}, 0)
		repo := &fakeRepo{rules: []*rule.Rule{sales}}
		r := routing.NewResolver(repo)
		matched, err := r.Resolve(ctx, classification.Finance, routing.Context{Department: "Engineering"})
		require.NoError(t, err)
		assert.Nil(t, matched)
	})
	t.Run("Should absorb repository failure into a nil match", func(t *testing.T) {
		repo := &fakeRepo{listErr: errors.New("store offline")}
		r := routing.NewResolver(repo)
		matched, err := r.Resolve(ctx, classification.Security, routing.Context{})
		require.NoError(t, err)
		assert.Nil(t, matched)
	})
	t.Run("Should be deterministic for a fixed rule set", func(t *testing.T) {
		repo := &fakeRepo{rules: []*rule.Rule{
			newRule("a", classification.Documentation, rule.Scope{}, 0),
			newRule("b", classification.Documentation,
				rule.Scope{ProcessTypes: []core.ProcessType{core.ProcessAll}}, 0),
		}}
		r := routing.NewResolver(repo)
		firstRun, err := r.Resolve(ctx, classification.Documentation, routing.Context{ProcessType: core.ProcessMover})
		require.NoError(t, err)
		for range 10 {
			again, err := r.Resolve(ctx, classification.Documentation, routing.Context{ProcessType: core.ProcessMover})
			require.NoError(t, err)
			assert.Equal(t, firstRun, again)
		}
	})
}

func TestResolver_ResolveRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("Should fall back to the default policy when no rule matches", func(t *testing.T) {
		r := routing.NewResolver(&fakeRepo{})
		for _, c := range classification.All() {
			routed, err := r.ResolveRouting(ctx, c, routing.Context{})
			require.NoError(t, err, "classification %s", c)
			require.NotNil(t, routed)
			assert.Nil(t, routed.RuleID, "default policy provenance for %s", c)
			assert.False(t, routed.FromRule())
		}
	})
	t.Run("Should record rule provenance when a rule matches", func(t *testing.T) {
		matched := newRule("a", classification.Hardware, rule.Scope{}, 0)
		r := routing.NewResolver(&fakeRepo{rules: []*rule.Rule{matched}})
		routed, err := r.ResolveRouting(ctx, classification.Hardware, routing.Context{})
		require.NoError(t, err)
		require.NotNil(t, routed.RuleID)
		assert.Equal(t, matched.ID, *routed.RuleID)
		assert.True(t, routed.FromRule())
	})
	t.Run("Should route through the default policy when the repository fails", func(t *testing.T) {
		r := routing.NewResolver(&fakeRepo{listErr: errors.New("store offline")})
		routed, err := r.ResolveRouting(ctx, classification.SystemAccess, routing.Context{})
		require.NoError(t, err)
		assert.False(t, routed.FromRule())
		assert.Equal(t, "IT Support", routed.AssigneeRole)
	})
}

func TestResolver_ResolveBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Should fetch rules exactly once regardless of input size", func(t *testing.T) {
		repo := &fakeRepo{rules: []*rule.Rule{
			newRule("a", classification.Documentation, rule.Scope{}, 0),
			newRule("b", classification.SystemAccess, rule.Scope{}, 0),
		}}
		r := routing.NewResolver(repo)
		_, err := r.ResolveBatch(ctx, classification.All(), routing.Context{})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.listCalls)
	})
	t.Run("Should agree with single-classification resolution", func(t *testing.T) {
		repo := &fakeRepo{rules: []*rule.Rule{
			newRule("a", classification.Documentation, rule.Scope{}, 0),
			newRule("b", classification.Documentation,
				rule.Scope{Departments: []string{"Engineering"}}, 0),
			newRule("c", classification.SystemAccess,
				rule.Scope{ProcessTypes: []core.ProcessType{core.ProcessOnboarding}}, 0),
		}}
		r := routing.NewResolver(repo)
		rctx := routing.Context{ProcessType: core.ProcessOnboarding, Department: "Engineering"}
		batch, err := r.ResolveBatch(ctx, classification.All(), rctx)
		require.NoError(t, err)
		for _, c := range classification.All() {
			single, err := r.ResolveRouting(ctx, c, rctx)
			require.NoError(t, err)
			assert.Equal(t, single, batch[c], "batch and single must agree for %s", c)
		}
	})
	t.Run("Should resolve each classification independently of the rest", func(t *testing.T) {
		repo := &fakeRepo{rules: []*rule.Rule{
			newRule("a", classification.Documentation, rule.Scope{}, 0),
			newRule("b", classification.SystemAccess, rule.Scope{}, 0),
		}}
		r := routing.NewResolver(repo)
		together, err := r.ResolveBatch(ctx,
			[]classification.Classification{classification.Documentation, classification.SystemAccess},
			routing.Context{})
		require.NoError(t, err)
		alone, err := r.ResolveBatch(ctx,
			[]classification.Classification{classification.Documentation},
			routing.Context{})
		require.NoError(t, err)
		assert.Equal(t, alone[classification.Documentation], together[classification.Documentation])
	})
	t.Run("Should reject any unknown classification before fetching", func(t *testing.T) {
		repo := &fakeRepo{}
		r := routing.NewResolver(repo)
		_, err := r.ResolveBatch(ctx,
			[]classification.Classification{classification.Documentation, "catering"},
			routing.Context{})
		require.ErrorIs(t, err, classification.ErrUnknown)
		assert.Zero(t, repo.listCalls)
	})
	t.Run("Should cover the whole taxonomy from defaults when the store is down", func(t *testing.T) {
		r := routing.NewResolver(&fakeRepo{listErr: errors.New("store offline")})
		batch, err := r.ResolveBatch(ctx, classification.All(), routing.Context{})
		require.NoError(t, err)
		require.Len(t, batch, len(classification.All()))
		for c, routed := range batch {
			assert.False(t, routed.FromRule(), "classification %s", c)
		}
	})
}
