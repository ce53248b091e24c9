package rule

import (
	"context"
	"errors"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
)

// ErrNotFound is returned by Get/Update/Delete when no rule has the given id.
var ErrNotFound = errors.New("rule not found")

// Filter narrows a List call. Nil fields are ignored. Scope matching treats a
// rule's empty scope list as match-all.
type Filter struct {
	Classification   *classification.Classification
	ProcessType      *core.ProcessType
	Department       *string
	IsActive         *bool
	RequiresApproval *bool
}

// Matches applies the filter in-memory; repository implementations may push
// parts of it into queries but must preserve these semantics.
func (f *Filter) Matches(r *Rule) bool {
	if f == nil {
		return true
	}
	if f.Classification != nil && r.Classification != *f.Classification {
		return false
	}
	if f.ProcessType != nil && !r.Scope.MatchesProcess(*f.ProcessType) {
		return false
	}
	if f.Department != nil && !r.Scope.MatchesDepartment(*f.Department) {
		return false
	}
	if f.IsActive != nil && r.IsActive != *f.IsActive {
		return false
	}
	if f.RequiresApproval != nil && r.Approval.Required != *f.RequiresApproval {
		return false
	}
	return true
}

// Repository is the rule store contract consumed by the resolver. Fetch
// failures are absorbed by the resolver into default-policy outcomes, so
// implementations should return honest errors rather than empty results.
type Repository interface {
	List(ctx context.Context, filter *Filter) ([]*Rule, error)
	Get(ctx context.Context, id core.ID) (*Rule, error)
	Create(ctx context.Context, r *Rule) error
	Update(ctx context.Context, r *Rule) error
	// Deactivate retires a rule while preserving history.
	Deactivate(ctx context.Context, id core.ID) error
	// Delete removes a rule permanently; Deactivate is preferred.
	Delete(ctx context.Context, id core.ID) error
}
