package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/quota"
	"github.com/gosuda/taskhub/internal/tenancy"
)

type Users struct {
	store domain.Store
	quota *quota.Guard
	creds *credential.Store
	audit audit.Recorder
}

func NewUsers(store domain.Store, q *quota.Guard, creds *credential.Store, rec audit.Recorder) *Users {
	return &Users{store: store, quota: q, creds: creds, audit: rec}
}

// memberRole parses a role a tenant admin may grant. super_admin is never
// assignable through the tenant surface.
func memberRole(r domain.Role) (domain.Role, error) {
	if r == "" {
		return domain.RoleUser, nil
	}
	if r != domain.RoleTenantAdmin && r != domain.RoleUser {
		return "", domain.Invalid("role must be %q or %q", domain.RoleTenantAdmin, domain.RoleUser)
	}
	return r, nil
}

type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// Create adds a user to the caller's tenant after reserving a slot in the plan.
func (s *Users) Create(ctx context.Context, c access.Caller, in CreateUserInput) (*domain.User, error) {
	if err := access.Allow(c, access.ActionCreateUser); err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	email, err := tenancy.ValidateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	if err := tenancy.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("users.Create: %w", domain.Invalid("fullName is required"))
	}
	role, err := memberRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.quota.Within(ctx, s.store, tenantID, domain.ResourceUsers, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Users().Create(ctx, u)
	})
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionCreateUser, "user", u.ID)
	return u, nil
}

// Get returns one user of the caller's tenant.
func (s *Users) Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.User, error) {
	if err := access.Allow(c, access.ActionReadUser); err != nil {
		return nil, fmt.Errorf("users.Get: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("users.Get: %w", err)
	}
	u, err := s.store.Users().GetByID(ctx, scope, id)
	if err != nil {
		return nil, fmt.Errorf("users.Get: %w", err)
	}
	return u, nil
}

// List returns the users of the caller's tenant, newest first.
func (s *Users) List(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, error) {
	if err := access.Allow(c, access.ActionReadUser); err != nil {
		return nil, fmt.Errorf("users.List: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("users.List: %w", err)
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("users.List: %w", domain.Invalid("invalid role %q", filter.Role))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()

	users, err := s.store.Users().List(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("users.List: %w", err)
	}
	return users, nil
}

// UserPatch is a partial update; nil fields keep their value.
type UserPatch struct {
	FullName *string
	Role     *domain.Role
	IsActive *bool
	Password *string
}

func (p UserPatch) administrative() bool {
	return p.Role != nil || p.IsActive != nil
}

// Update changes a user. Anyone may change their own name and password;
// tenant admins may also change other users' role and activity, but never
// their own.
func (s *Users) Update(ctx context.Context, c access.Caller, id uuid.UUID, patch UserPatch) (*domain.User, error) {
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("users.Update: %w", err)
	}

	var hash string
	if patch.Password != nil {
		if err := tenancy.ValidatePassword(*patch.Password); err != nil {
			return nil, fmt.Errorf("users.Update: %w", err)
		}
		if hash, err = s.creds.HashPassword(*patch.Password); err != nil {
			return nil, fmt.Errorf("users.Update: %w", err)
		}
	}

	var updated *domain.User
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		u, err := tx.Users().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}

		self := c.UserID == id
		if !self {
			if err := access.Allow(c, access.ActionUpdateUser); err != nil {
				return err
			}
		}
		if self && patch.administrative() {
			return fmt.Errorf("cannot change own role or activity: %w", domain.ErrForbidden)
		}

		if patch.FullName != nil {
			name := strings.TrimSpace(*patch.FullName)
			if name == "" {
				return domain.Invalid("fullName cannot be empty")
			}
			u.FullName = name
		}
		if patch.Role != nil {
			role, err := memberRole(*patch.Role)
			if err != nil {
				return err
			}
			u.Role = role
		}
		if patch.IsActive != nil {
			u.IsActive = *patch.IsActive
		}
		if hash != "" {
			u.PasswordHash = hash
		}

		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("users.Update: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionUpdateUser, "user", id)
	return updated, nil
}

// Delete removes a user and unassigns their tasks in one transaction. Tenant
// admins only; deleting oneself is always forbidden.
func (s *Users) Delete(ctx context.Context, c access.Caller, id uuid.UUID) error {
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return fmt.Errorf("users.Delete: %w", err)
	}

	var unassigned int
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Users().GetByID(ctx, tenantID, id); err != nil {
			return err
		}
		if err := access.Allow(c, access.ActionDeleteUser); err != nil {
			return err
		}
		if c.UserID == id {
			return fmt.Errorf("cannot delete yourself: %w", domain.ErrForbidden)
		}
		unassigned, err = tx.Tasks().Unassign(ctx, tenantID, id)
		if err != nil {
			return err
		}
		return tx.Users().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return fmt.Errorf("users.Delete: %w", err)
	}

	log.Debug().
		Str("tenant_id", tenantID.String()).
		Str("user_id", id.String()).
		Int("tasks_unassigned", unassigned).
		Msg("user deleted")

	record(ctx, s.audit, c, domain.ActionDeleteUser, "user", id)
	return nil
}
