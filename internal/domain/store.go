package domain

import "context"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Page bounds a listing. Zero values select the defaults.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page into the supported range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Repositories groups the tenant-data repositories. Inside Store.InTx the
// returned repositories are bound to the transaction.
type Repositories interface {
	Tenants() TenantRepository
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
}

// Store is the transactional store handle injected into every component.
type Store interface {
	Repositories
	Audit() AuditRepository
	// InTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise; the error from fn is returned unchanged.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
}
