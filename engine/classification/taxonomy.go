// Package classification defines the closed taxonomy of task categories that
// drives routing policy. The set is fixed: an unrecognized value indicates a
// taxonomy mismatch between caller and engine and is rejected, never defaulted.
package classification

import (
	"errors"
	"fmt"
)

type Classification string

const (
	Documentation Classification = "documentation"
	SystemAccess  Classification = "system_access"
	Hardware      Classification = "hardware"
	Training      Classification = "training"
	Orientation   Classification = "orientation"
	Compliance    Classification = "compliance"
	Facilities    Classification = "facilities"
	Security      Classification = "security"
	Finance       Classification = "finance"
	Communication Classification = "communication"
)

var ErrUnknown = errors.New("unknown classification")

type info struct {
	label       string
	description string
}

var taxonomy = map[Classification]info{
	Documentation: {"Documentation", "Contracts, policies and paperwork to collect or sign"},
	SystemAccess:  {"System Access", "Accounts, licenses and permissions to provision or revoke"},
	Hardware:      {"Hardware", "Equipment to order, hand over or reclaim"},
	Training:      {"Training", "Courses and certifications to schedule or complete"},
	Orientation:   {"Orientation", "Introductions, tours and first-day sessions"},
	Compliance:    {"Compliance", "Regulatory and policy acknowledgements"},
	Facilities:    {"Facilities", "Desks, badges and building access"},
	Security:      {"Security", "Security clearances, reviews and revocations"},
	Finance:       {"Finance", "Payroll, expenses and banking setup"},
	Communication: {"Communication", "Announcements and distribution list changes"},
}

// ordered mirrors the declaration order; map iteration is not stable.
var ordered = []Classification{
	Documentation,
	SystemAccess,
	Hardware,
	Training,
	Orientation,
	Compliance,
	Facilities,
	Security,
	Finance,
	Communication,
}

// All returns every classification in declaration order.
func All() []Classification {
	out := make([]Classification, len(ordered))
	copy(out, ordered)
	return out
}

// Parse validates a raw string against the taxonomy.
func Parse(s string) (Classification, error) {
	c := Classification(s)
	if _, ok := taxonomy[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return c, nil
}

func (c Classification) IsValid() bool {
	_, ok := taxonomy[c]
	return ok
}

func (c Classification) String() string {
	return string(c)
}

func (c Classification) Label() string {
	return taxonomy[c].label
}

func (c Classification) Description() string {
	return taxonomy[c].description
}
