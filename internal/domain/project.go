package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenantId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedBy   uuid.UUID     `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Populated by listings only.
	CreatorName string `json:"creatorName,omitempty"`
	TaskCount   int    `json:"taskCount"`
}

// NewProject creates a Project with validated required fields and defaults.
func NewProject(tenantID, createdBy uuid.UUID, name, description string, status ProjectStatus) (*Project, error) {
	if tenantID == uuid.Nil {
		return nil, Invalid("project: tenant ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("project: name is required")
	}
	if status == "" {
		status = ProjectStatusActive
	}
	if !status.Valid() {
		return nil, Invalid("project: invalid status %q", status)
	}
	now := time.Now().UTC()
	return &Project{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ProjectFilter narrows a tenant's project listing.
type ProjectFilter struct {
	Status ProjectStatus
	Search string // case-insensitive substring of the name
	Page
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter ProjectFilter) ([]*Project, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}
