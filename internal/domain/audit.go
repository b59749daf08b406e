package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the core.
const (
	ActionRegisterTenant = "REGISTER_TENANT"
	ActionLogin          = "LOGIN"
	ActionUpdateTenant   = "UPDATE_TENANT"
	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
	ActionCreateProject  = "CREATE_PROJECT"
	ActionUpdateProject  = "UPDATE_PROJECT"
	ActionDeleteProject  = "DELETE_PROJECT"
	ActionCreateTask     = "CREATE_TASK"
	ActionUpdateTask     = "UPDATE_TASK"
	ActionUpdateStatus   = "UPDATE_TASK_STATUS"
	ActionDeleteTask     = "DELETE_TASK"
)

type AuditEntry struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   *uuid.UUID `json:"tenantId"`
	UserID     *uuid.UUID `json:"userId"`
	Action     string     `json:"action"`
	EntityType string     `json:"entityType"` // "tenant", "user", "project", "task", "session"
	EntityID   string     `json:"entityId"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page Page) ([]*AuditEntry, error)
}
