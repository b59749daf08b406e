// Package seed loads the platform administrator and a demo tenant.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/plan"
)

const (
	SuperAdminEmail    = "superadmin@system.com"
	SuperAdminPassword = "Admin@123"

	DemoSubdomain     = "demo"
	DemoAdminEmail    = "admin@demo.com"
	DemoAdminPassword = "Demo@123"
	DemoUserPassword  = "User@123"
	DemoProjectName   = "Project Alpha"
	DemoTaskTitle     = "Seed Task 1"
)

var demoUsers = []struct{ email, name string }{
	{"user1@demo.com", "Demo User One"},
	{"user2@demo.com", "Demo User Two"},
}

// Result reports what the seed created; existing rows are left alone.
type Result struct {
	SuperAdmin *domain.User
	Tenant     *domain.Tenant
	Admin      *domain.User
	Created    bool
}

// Run seeds the store in one transaction. It is a no-op for a store that
// already holds the demo tenant.
func Run(ctx context.Context, store domain.Store, creds *credential.Store) (*Result, error) {
	hashes := map[string]string{}
	for _, pw := range []string{SuperAdminPassword, DemoAdminPassword, DemoUserPassword} {
		h, err := creds.HashPassword(pw)
		if err != nil {
			return nil, fmt.Errorf("seed.Run: %w", err)
		}
		hashes[pw] = h
	}

	res := &Result{}
	err := store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		now := time.Now().UTC()

		super, err := tx.Users().GetByEmail(ctx, uuid.Nil, SuperAdminEmail)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			super = &domain.User{
				ID: uuid.New(), Email: SuperAdminEmail, PasswordHash: hashes[SuperAdminPassword],
				FullName: "Super Admin", Role: domain.RoleSuperAdmin, IsActive: true,
				CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.Users().Create(ctx, super); err != nil {
				return err
			}
			res.Created = true
		case err != nil:
			return err
		}
		res.SuperAdmin = super

		tenant, err := tx.Tenants().GetBySubdomain(ctx, DemoSubdomain)
		if err == nil {
			res.Tenant = tenant
			res.Admin, err = tx.Users().GetByEmail(ctx, tenant.ID, DemoAdminEmail)
			return err
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		tenant = &domain.Tenant{
			ID: uuid.New(), Name: "Demo Company", Subdomain: DemoSubdomain,
			Status: domain.TenantStatusActive, CreatedAt: now, UpdatedAt: now,
		}
		plan.Apply(tenant, plan.Default())
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}

		admin := &domain.User{
			ID: uuid.New(), TenantID: tenant.ID, Email: DemoAdminEmail, PasswordHash: hashes[DemoAdminPassword],
			FullName: "Demo Admin", Role: domain.RoleTenantAdmin, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Users().Create(ctx, admin); err != nil {
			return err
		}

		var firstUser *domain.User
		for _, du := range demoUsers {
			u := &domain.User{
				ID: uuid.New(), TenantID: tenant.ID, Email: du.email, PasswordHash: hashes[DemoUserPassword],
				FullName: du.name, Role: domain.RoleUser, IsActive: true,
				CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
			if firstUser == nil {
				firstUser = u
			}
		}

		project, err := domain.NewProject(tenant.ID, admin.ID, DemoProjectName, "Demo project", domain.ProjectStatusActive)
		if err != nil {
			return err
		}
		if err := tx.Projects().Create(ctx, project); err != nil {
			return err
		}

		due := now.AddDate(0, 0, 7)
		task, err := domain.NewTask(project, admin.ID, DemoTaskTitle, "Initial seeded task", domain.TaskPriorityHigh, &firstUser.ID, &due)
		if err != nil {
			return err
		}
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}

		res.Tenant, res.Admin, res.Created = tenant, admin, true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed.Run: %w", err)
	}

	log.Info().
		Bool("created", res.Created).
		Str("tenant_id", res.Tenant.ID.String()).
		Msg("seed complete")

	return res, nil
}
