package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// AuthService abstracts login and profile lookup for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, subdomain, email, password string) (*auth.Session, error)
	Me(ctx context.Context, caller access.Caller) (*auth.Profile, error)
}

// TenantService abstracts tenant registration and administration.
// *tenancy.Registry satisfies this interface.
type TenantService interface {
	Register(ctx context.Context, in tenancy.Registration) (*tenancy.Registered, error)
	Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context, caller access.Caller, page domain.Page) ([]*domain.Tenant, error)
	Update(ctx context.Context, caller access.Caller, id uuid.UUID, upd tenancy.Update) (*domain.Tenant, error)
}

// ProjectService is satisfied by *service.Projects.
type ProjectService interface {
	Create(ctx context.Context, c access.Caller, in service.CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error)
	Update(ctx context.Context, c access.Caller, id uuid.UUID, patch service.ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, c access.Caller, id uuid.UUID) error
}

// TaskService is satisfied by *service.Tasks.
type TaskService interface {
	Create(ctx context.Context, c access.Caller, projectID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, c access.Caller, tenantID, projectID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, c access.Caller, id uuid.UUID, patch service.TaskPatch) (*domain.Task, error)
	UpdateStatus(ctx context.Context, c access.Caller, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	Delete(ctx context.Context, c access.Caller, id uuid.UUID) error
}

// UserService is satisfied by *service.Users.
type UserService interface {
	Create(ctx context.Context, c access.Caller, in service.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, error)
	Update(ctx context.Context, c access.Caller, id uuid.UUID, patch service.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, c access.Caller, id uuid.UUID) error
}

// AuditLogService is satisfied by *service.AuditLog.
type AuditLogService interface {
	List(ctx context.Context, c access.Caller, tenantID uuid.UUID, page domain.Page) ([]*domain.AuditEntry, error)
}

var (
	_ AuthService     = (*auth.Service)(nil)
	_ TenantService   = (*tenancy.Registry)(nil)
	_ ProjectService  = (*service.Projects)(nil)
	_ TaskService     = (*service.Tasks)(nil)
	_ UserService     = (*service.Users)(nil)
	_ AuditLogService = (*service.AuditLog)(nil)
)
