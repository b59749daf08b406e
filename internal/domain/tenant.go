package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

func (s TenantStatus) Valid() bool {
	return s == TenantStatusActive || s == TenantStatusSuspended
}

type Tenant struct {
	ID               uuid.UUID    `json:"id"`
	Name             string       `json:"name"`
	Subdomain        string       `json:"subdomain"`
	Status           TenantStatus `json:"status"`
	SubscriptionPlan string       `json:"subscriptionPlan"`
	MaxUsers         int          `json:"maxUsers"`
	MaxProjects      int          `json:"maxProjects"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ResourceKind names a quota-bound resource.
type ResourceKind string

const (
	ResourceUsers    ResourceKind = "users"
	ResourceProjects ResourceKind = "projects"
)

// Singular returns the capitalised singular form used in user-facing messages.
func (k ResourceKind) Singular() string {
	switch k {
	case ResourceUsers:
		return "User"
	case ResourceProjects:
		return "Project"
	default:
		return string(k)
	}
}

// Limit returns the plan allowance for kind, or -1 for kinds without a quota.
func (t *Tenant) Limit(kind ResourceKind) int {
	switch kind {
	case ResourceUsers:
		return t.MaxUsers
	case ResourceProjects:
		return t.MaxProjects
	default:
		return -1
	}
}

// Active reports whether the tenant may be used.
func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	// GetForUpdate reads the tenant row and holds an exclusive lock on it
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context, page Page) ([]*Tenant, error)
}
