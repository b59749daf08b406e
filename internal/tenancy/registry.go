// Package tenancy registers tenants and administers tenant records.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/plan"
)

const MinPasswordLength = 8

const (
	minSubdomainLength = 3
	maxSubdomainLength = 63
)

// subdomainPattern is lowercase alphanumeric labels joined by single hyphens.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type Registry struct {
	store domain.Store
	creds *credential.Store
	audit audit.Recorder
}

func NewRegistry(store domain.Store, creds *credential.Store, rec audit.Recorder) *Registry {
	return &Registry{store: store, creds: creds, audit: rec}
}

type Registration struct {
	TenantName    string
	Subdomain     string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

type Registered struct {
	Tenant *domain.Tenant
	Admin  *domain.User
}

// NormalizeEmail lower-cases and trims an address so (tenant, email)
// uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes email and rejects malformed addresses.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("invalid email address %q", email)
	}
	return email, nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func (in *Registration) normalize() error {
	in.TenantName = strings.TrimSpace(in.TenantName)
	if in.TenantName == "" {
		return domain.Invalid("tenantName is required")
	}
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	if n := len(in.Subdomain); n < minSubdomainLength || n > maxSubdomainLength || !subdomainPattern.MatchString(in.Subdomain) {
		return domain.Invalid("subdomain must be 3-63 lowercase letters or digits, joined by single hyphens")
	}
	email, err := ValidateEmail(in.AdminEmail)
	if err != nil {
		return err
	}
	in.AdminEmail = email
	if err := ValidatePassword(in.AdminPassword); err != nil {
		return err
	}
	in.AdminFullName = strings.TrimSpace(in.AdminFullName)
	if in.AdminFullName == "" {
		return domain.Invalid("adminFullName is required")
	}
	return nil
}

// Register creates a tenant on the default plan together with its first
// tenant_admin in one transaction. Either both rows exist afterwards or
// neither does.
func (r *Registry) Register(ctx context.Context, in Registration) (*Registered, error) {
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("tenancy.Register: %w", err)
	}

	// Hash outside the transaction so the slow KDF does not hold locks.
	hash, err := r.creds.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Register: %w", err)
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:        uuid.New(),
		Name:      in.TenantName,
		Subdomain: in.Subdomain,
		Status:    domain.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	plan.Apply(tenant, plan.Default())

	admin := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        in.AdminEmail,
		PasswordHash: hash,
		FullName:     in.AdminFullName,
		Role:         domain.RoleTenantAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		_, err := tx.Tenants().GetBySubdomain(ctx, in.Subdomain)
		switch {
		case err == nil:
			return domain.ErrDuplicateSubdomain
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}
		return tx.Users().Create(ctx, admin)
	})
	if err != nil {
		return nil, fmt.Errorf("tenancy.Register: %w", err)
	}

	log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("subdomain", tenant.Subdomain).
		Msg("tenant registered")

	r.audit.Record(ctx, domain.AuditEntry{
		TenantID:   &tenant.ID,
		UserID:     &admin.ID,
		Action:     domain.ActionRegisterTenant,
		EntityType: "tenant",
		EntityID:   tenant.ID.String(),
	})

	return &Registered{Tenant: tenant, Admin: admin}, nil
}

// FindBySubdomain resolves a tenant by its subdomain.
func (r *Registry) FindBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return nil, fmt.Errorf("tenancy.FindBySubdomain: %w", domain.ErrNotFound)
	}
	t, err := r.store.Tenants().GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("tenancy.FindBySubdomain: %w", err)
	}
	return t, nil
}

// AuthorizeStatus fails with ErrTenantSuspended unless t is active.
func AuthorizeStatus(t *domain.Tenant) error {
	if !t.Active() {
		return domain.ErrTenantSuspended
	}
	return nil
}

// Get returns a tenant the caller may see: its own, or any for a super admin.
func (r *Registry) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*domain.Tenant, error) {
	if err := access.CanRead(caller, id); err != nil {
		return nil, fmt.Errorf("tenancy.Get: %w", err)
	}
	if err := access.Allow(caller, access.ActionReadTenant); err != nil {
		return nil, fmt.Errorf("tenancy.Get: %w", err)
	}
	t, err := r.store.Tenants().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Get: %w", err)
	}
	return t, nil
}

// List returns every tenant. Platform callers only.
func (r *Registry) List(ctx context.Context, caller access.Caller, page domain.Page) ([]*domain.Tenant, error) {
	if err := access.Allow(caller, access.ActionListTenants); err != nil {
		return nil, fmt.Errorf("tenancy.List: %w", err)
	}
	tenants, err := r.store.Tenants().List(ctx, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("tenancy.List: %w", err)
	}
	return tenants, nil
}

// Update is a partial update; nil fields keep their value.
type Update struct {
	Name             *string
	Status           *domain.TenantStatus
	SubscriptionPlan *string
	MaxUsers         *int
	MaxProjects      *int
}

func (u Update) administrative() bool {
	return u.Status != nil || u.SubscriptionPlan != nil || u.MaxUsers != nil || u.MaxProjects != nil
}

// Update changes a tenant record. Tenant admins may rename their own tenant;
// status, plan and limits are platform administration. Switching plans resets
// the limits to the plan's allowance unless explicit limits are given too.
func (r *Registry) Update(ctx context.Context, caller access.Caller, id uuid.UUID, upd Update) (*domain.Tenant, error) {
	if err := access.CanRead(caller, id); err != nil {
		return nil, fmt.Errorf("tenancy.Update: %w", err)
	}
	if err := access.Allow(caller, access.ActionUpdateTenant); err != nil {
		return nil, fmt.Errorf("tenancy.Update: %w", err)
	}
	if upd.administrative() {
		if err := access.Allow(caller, access.ActionAdminTenant); err != nil {
			return nil, fmt.Errorf("tenancy.Update: %w", err)
		}
	}

	var updated *domain.Tenant
	err := r.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		t, err := tx.Tenants().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return domain.Invalid("name cannot be empty")
			}
			t.Name = name
		}
		if upd.Status != nil {
			if !upd.Status.Valid() {
				return domain.Invalid("invalid tenant status %q", *upd.Status)
			}
			t.Status = *upd.Status
		}
		if upd.SubscriptionPlan != nil {
			p, err := plan.Lookup(*upd.SubscriptionPlan)
			if err != nil {
				return err
			}
			plan.Apply(t, p)
		}
		if upd.MaxUsers != nil {
			t.MaxUsers = *upd.MaxUsers
		}
		if upd.MaxProjects != nil {
			t.MaxProjects = *upd.MaxProjects
		}
		if err := plan.ValidateLimits(t.MaxUsers, t.MaxProjects); err != nil {
			return err
		}

		if err := tx.Tenants().Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tenancy.Update: %w", err)
	}

	entry := domain.AuditEntry{
		TenantID:   &updated.ID,
		Action:     domain.ActionUpdateTenant,
		EntityType: "tenant",
		EntityID:   updated.ID.String(),
	}
	if caller.UserID != uuid.Nil {
		entry.UserID = &caller.UserID
	}
	r.audit.Record(ctx, entry)

	return updated, nil
}
