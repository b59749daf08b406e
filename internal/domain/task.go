package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities for listing: high=1, medium=2, low=3, unknown=0.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 3
	default:
		return 0
	}
}

type Task struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"projectId"`
	TenantID    uuid.UUID    `json:"tenantId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  *uuid.UUID   `json:"assignedTo"`
	DueDate     *time.Time   `json:"dueDate"`
	CreatedBy   uuid.UUID    `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// Populated by listings only.
	AssigneeName string `json:"assigneeName,omitempty"`
}

// NewTask creates a Task inside project p. Status always starts at todo.
func NewTask(p *Project, createdBy uuid.UUID, title, description string, priority TaskPriority, assignedTo *uuid.UUID, dueDate *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Invalid("task: title is required")
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, Invalid("task: invalid priority %q", priority)
	}
	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New(),
		ProjectID:   p.ID,
		TenantID:    p.TenantID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      TaskStatusTodo,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TaskFilter narrows a project's task listing.
type TaskFilter struct {
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo *uuid.UUID
	Search     string // case-insensitive substring of the title
	Page
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status TaskStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// DeleteByProject removes every task of a project and returns how many were removed.
	DeleteByProject(ctx context.Context, tenantID, projectID uuid.UUID) (int, error)
	// Unassign clears assigned_to on every task of the tenant pointing at userID.
	Unassign(ctx context.Context, tenantID, userID uuid.UUID) (int, error)
	ListByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter TaskFilter) ([]*Task, error)
}
