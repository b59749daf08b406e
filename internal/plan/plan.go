package plan

import (
	"fmt"
	"slices"

	"github.com/gosuda/taskhub/internal/domain"
)

//nolint:gochecknoglobals // sentinel error
var ErrUnknownPlan = fmt.Errorf("plan: unknown subscription plan: %w", domain.ErrValidation)

// Plan names.
const (
	Free       = "free"
	Pro        = "pro"
	Enterprise = "enterprise"
)

// Plan is a subscription tier and the quotas it grants.
type Plan struct {
	Name        string
	MaxUsers    int
	MaxProjects int
	Features    []string
}

// HasFeature checks if a specific feature is enabled.
func (p Plan) HasFeature(feature string) bool {
	return slices.Contains(p.Features, feature)
}

//nolint:gochecknoglobals // immutable plan table
var catalog = map[string]Plan{
	Free:       {Name: Free, MaxUsers: 5, MaxProjects: 3},
	Pro:        {Name: Pro, MaxUsers: 25, MaxProjects: 15, Features: []string{"audit-log"}},
	Enterprise: {Name: Enterprise, MaxUsers: 100, MaxProjects: 50, Features: []string{"audit-log", "priority-support"}},
}

// Default is the plan every newly registered tenant starts on.
func Default() Plan {
	return catalog[Free]
}

// Lookup returns the named plan.
func Lookup(name string) (Plan, error) {
	p, ok := catalog[name]
	if !ok {
		return Plan{}, fmt.Errorf("plan.Lookup %q: %w", name, ErrUnknownPlan)
	}
	return p, nil
}

// Apply switches t to plan p, resetting its quotas to the plan's allowance.
func Apply(t *domain.Tenant, p Plan) {
	t.SubscriptionPlan = p.Name
	t.MaxUsers = p.MaxUsers
	t.MaxProjects = p.MaxProjects
}

// ValidateLimits rejects quotas a tenant could never operate under.
func ValidateLimits(maxUsers, maxProjects int) error {
	if maxUsers < 1 {
		return domain.Invalid("maxUsers must be >= 1, got %d", maxUsers)
	}
	if maxProjects < 0 {
		return domain.Invalid("maxProjects must be >= 0, got %d", maxProjects)
	}
	return nil
}
