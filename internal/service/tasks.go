package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/domain"
)

type Tasks struct {
	store domain.Store
	audit audit.Recorder
}

func NewTasks(store domain.Store, rec audit.Recorder) *Tasks {
	return &Tasks{store: store, audit: rec}
}

// checkAssignee fails with ErrInvalidReference unless userID is a member of tenantID.
func checkAssignee(ctx context.Context, tx domain.Repositories, tenantID uuid.UUID, userID *uuid.UUID) error {
	if userID == nil {
		return nil
	}
	if _, err := tx.Users().GetByID(ctx, tenantID, *userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("assignee %s: %w", userID, domain.ErrInvalidReference)
		}
		return err
	}
	return nil
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	AssignedTo  *uuid.UUID
	DueDate     *time.Time
}

// Create adds a task to a project of the caller's tenant. Tasks have no quota.
func (s *Tasks) Create(ctx context.Context, c access.Caller, projectID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	if err := access.Allow(c, access.ActionCreateTask); err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}

	var task *domain.Task
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		p, err := tx.Projects().GetByID(ctx, tenantID, projectID)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, tx, tenantID, in.AssignedTo); err != nil {
			return err
		}
		task, err = domain.NewTask(p, c.UserID, in.Title, in.Description, in.Priority, in.AssignedTo, in.DueDate)
		if err != nil {
			return err
		}
		return tx.Tasks().Create(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionCreateTask, "task", task.ID)
	return task, nil
}

// Get returns one task. tenantID selects the tenant for platform callers.
func (s *Tasks) Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Task, error) {
	if err := access.Allow(c, access.ActionReadTask); err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}
	t, err := s.store.Tasks().GetByID(ctx, scope, id)
	if err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}
	return t, nil
}

// List returns a project's tasks ordered by priority, then due date.
func (s *Tasks) List(ctx context.Context, c access.Caller, tenantID, projectID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	if err := access.Allow(c, access.ActionReadTask); err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("tasks.List: %w", domain.Invalid("invalid status %q", filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, fmt.Errorf("tasks.List: %w", domain.Invalid("invalid priority %q", filter.Priority))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()

	if _, err := s.store.Projects().GetByID(ctx, scope, projectID); err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}

	tasks, err := s.store.Tasks().ListByProject(ctx, scope, projectID, filter)
	if err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}
	return tasks, nil
}

// TaskPatch is a partial update; nil fields keep their value. A non-nil
// AssignedTo holding uuid.Nil unassigns the task, and a non-nil zero DueDate
// clears it.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	Status      *domain.TaskStatus
	AssignedTo  *uuid.UUID
	DueDate     *time.Time
}

// Update applies patch. Only the creator or a tenant admin may update.
func (s *Tasks) Update(ctx context.Context, c access.Caller, id uuid.UUID, patch TaskPatch) (*domain.Task, error) {
	if err := access.Allow(c, access.ActionWriteTask); err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}

	var updated *domain.Task
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		t, err := tx.Tasks().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := access.RequireOwnerOrAdmin(c, t.CreatedBy); err != nil {
			return err
		}

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return domain.Invalid("title cannot be empty")
			}
			t.Title = title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Priority != nil {
			if !patch.Priority.Valid() {
				return domain.Invalid("invalid priority %q", *patch.Priority)
			}
			t.Priority = *patch.Priority
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return domain.Invalid("invalid status %q", *patch.Status)
			}
			t.Status = *patch.Status
		}
		if patch.AssignedTo != nil {
			if *patch.AssignedTo == uuid.Nil {
				t.AssignedTo = nil
			} else {
				assignee := *patch.AssignedTo
				if err := checkAssignee(ctx, tx, tenantID, &assignee); err != nil {
					return err
				}
				t.AssignedTo = &assignee
			}
			t.AssigneeName = ""
		}
		if patch.DueDate != nil {
			if patch.DueDate.IsZero() {
				t.DueDate = nil
			} else {
				due := *patch.DueDate
				t.DueDate = &due
			}
		}

		if err := tx.Tasks().Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionUpdateTask, "task", id)
	return updated, nil
}

// UpdateStatus moves a task to status. Any status may follow any other.
func (s *Tasks) UpdateStatus(ctx context.Context, c access.Caller, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if err := access.Allow(c, access.ActionWriteTask); err != nil {
		return nil, fmt.Errorf("tasks.UpdateStatus: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("tasks.UpdateStatus: %w", err)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("tasks.UpdateStatus: %w", domain.Invalid("invalid status %q", status))
	}

	var updated *domain.Task
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		t, err := tx.Tasks().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := access.RequireOwnerOrAdmin(c, t.CreatedBy); err != nil {
			return err
		}
		if err := tx.Tasks().UpdateStatus(ctx, tenantID, id, status); err != nil {
			return err
		}
		t.Status = status
		t.UpdatedAt = time.Now().UTC()
		updated = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.UpdateStatus: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionUpdateStatus, "task", id)
	return updated, nil
}

// Delete removes a task. Only the creator or a tenant admin may delete.
func (s *Tasks) Delete(ctx context.Context, c access.Caller, id uuid.UUID) error {
	if err := access.Allow(c, access.ActionWriteTask); err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		t, err := tx.Tasks().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := access.RequireOwnerOrAdmin(c, t.CreatedBy); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionDeleteTask, "task", id)
	return nil
}
