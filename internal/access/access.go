// Package access decides whether a caller may perform an operation on a
// tenant-owned resource.
package access

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// Caller is the verified identity behind a request.
type Caller struct {
	UserID   uuid.UUID
	TenantID uuid.UUID // uuid.Nil for super_admin
	Role     domain.Role
}

// IsPlatform reports whether the caller is a platform-level super admin.
func (c Caller) IsPlatform() bool {
	return c.Role == domain.RoleSuperAdmin
}

// Action names an operation guarded by the permission table.
type Action string

const (
	ActionReadTenant    Action = "tenant:read"
	ActionUpdateTenant  Action = "tenant:update"
	ActionAdminTenant   Action = "tenant:admin" // status, plan, limits
	ActionListTenants   Action = "tenant:list"
	ActionReadAudit     Action = "audit:read"
	ActionCreateUser    Action = "user:create"
	ActionReadUser      Action = "user:read"
	ActionUpdateUser    Action = "user:update" // other users; self-updates are always allowed
	ActionDeleteUser    Action = "user:delete"
	ActionCreateProject Action = "project:create"
	ActionReadProject   Action = "project:read"
	ActionWriteProject  Action = "project:write" // update/delete, subject to ownership
	ActionCreateTask    Action = "task:create"
	ActionReadTask      Action = "task:read"
	ActionWriteTask     Action = "task:write" // update/delete/status, subject to ownership
)

// permissions is the flat role → action table. super_admin is read-only for
// tenant-owned data and administers tenant records.
var permissions = map[domain.Role][]Action{
	domain.RoleSuperAdmin: {
		ActionReadTenant, ActionUpdateTenant, ActionAdminTenant, ActionListTenants,
		ActionReadAudit, ActionReadUser, ActionReadProject, ActionReadTask,
	},
	domain.RoleTenantAdmin: {
		ActionReadTenant, ActionUpdateTenant, ActionReadAudit,
		ActionCreateUser, ActionReadUser, ActionUpdateUser, ActionDeleteUser,
		ActionCreateProject, ActionReadProject, ActionWriteProject,
		ActionCreateTask, ActionReadTask, ActionWriteTask,
	},
	domain.RoleUser: {
		ActionReadTenant, ActionReadUser,
		ActionCreateProject, ActionReadProject, ActionWriteProject,
		ActionCreateTask, ActionReadTask, ActionWriteTask,
	},
}

// Allow checks the permission table.
func Allow(c Caller, action Action) error {
	if slices.Contains(permissions[c.Role], action) {
		return nil
	}
	return fmt.Errorf("%s may not %s: %w", c.Role, action, domain.ErrForbidden)
}

// RequireRole fails with ErrForbidden unless the caller holds one of roles.
func RequireRole(c Caller, roles ...domain.Role) error {
	if slices.Contains(roles, c.Role) {
		return nil
	}
	return fmt.Errorf("role %s not permitted: %w", c.Role, domain.ErrForbidden)
}

// RequireTenantMatch fails with ErrNotFound when the resource belongs to a
// different tenant, so existence in other tenants is never revealed.
func RequireTenantMatch(c Caller, resourceTenant uuid.UUID) error {
	if c.TenantID != uuid.Nil && c.TenantID == resourceTenant {
		return nil
	}
	return fmt.Errorf("resource outside caller tenant: %w", domain.ErrNotFound)
}

// CanRead is RequireTenantMatch that also lets super admins through.
func CanRead(c Caller, resourceTenant uuid.UUID) error {
	if c.IsPlatform() {
		return nil
	}
	return RequireTenantMatch(c, resourceTenant)
}

// RequireOwnerOrAdmin allows the creator of a resource or a tenant admin.
func RequireOwnerOrAdmin(c Caller, createdBy uuid.UUID) error {
	if c.Role == domain.RoleTenantAdmin {
		return nil
	}
	if c.Role == domain.RoleUser && c.UserID == createdBy {
		return nil
	}
	return fmt.Errorf("only the creator or a tenant admin may modify this resource: %w", domain.ErrForbidden)
}

// ReadScope resolves the tenant a read is evaluated against. Tenant members
// always read their own tenant; a super admin must name one.
func ReadScope(c Caller, requested uuid.UUID) (uuid.UUID, error) {
	if !c.IsPlatform() {
		return c.TenantID, nil
	}
	if requested == uuid.Nil {
		return uuid.Nil, domain.Invalid("tenantId is required for platform reads")
	}
	return requested, nil
}

// WriteScope returns the caller's own tenant. Platform callers have no write scope.
func WriteScope(c Caller) (uuid.UUID, error) {
	if c.TenantID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("platform callers cannot modify tenant data: %w", domain.ErrForbidden)
	}
	return c.TenantID, nil
}
