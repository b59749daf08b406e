package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type taskRepo struct{ a access }

func checkTaskRefs(d *dataset, t *domain.Task) error {
	p, ok := d.projects[t.ProjectID]
	if !ok || p.TenantID != t.TenantID {
		return fmt.Errorf("project: %w", domain.ErrInvalidReference)
	}
	if t.AssignedTo != nil {
		u, ok := d.users[*t.AssignedTo]
		if !ok || u.TenantID != t.TenantID {
			return fmt.Errorf("assignee: %w", domain.ErrInvalidReference)
		}
	}
	return nil
}

func (r *taskRepo) Create(_ context.Context, t *domain.Task) error {
	return r.a.with(func(d *dataset) error {
		if err := checkTaskRefs(d, t); err != nil {
			return fmt.Errorf("taskRepo.Create: %w", err)
		}
		stored := copyTask(*t)
		stored.AssigneeName = ""
		d.tasks[t.ID] = stored
		return nil
	})
}

func (r *taskRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	var out domain.Task
	err := r.a.with(func(d *dataset) error {
		t, ok := d.tasks[id]
		if !ok || t.TenantID != tenantID {
			return fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = decorateTask(d, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *taskRepo) Update(_ context.Context, t *domain.Task) error {
	return r.a.with(func(d *dataset) error {
		existing, ok := d.tasks[t.ID]
		if !ok || existing.TenantID != t.TenantID {
			return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
		}
		// Project, tenant and creator never change.
		t.ProjectID = existing.ProjectID
		t.CreatedBy = existing.CreatedBy
		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		if err := checkTaskRefs(d, t); err != nil {
			return fmt.Errorf("taskRepo.Update: %w", err)
		}
		stored := copyTask(*t)
		stored.AssigneeName = ""
		d.tasks[t.ID] = stored
		return nil
	})
}

func (r *taskRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status domain.TaskStatus) error {
	return r.a.with(func(d *dataset) error {
		t, ok := d.tasks[id]
		if !ok || t.TenantID != tenantID {
			return fmt.Errorf("taskRepo.UpdateStatus: %w", domain.ErrNotFound)
		}
		t.Status = status
		t.UpdatedAt = time.Now().UTC()
		d.tasks[id] = t
		return nil
	})
}

func (r *taskRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.a.with(func(d *dataset) error {
		t, ok := d.tasks[id]
		if !ok || t.TenantID != tenantID {
			return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(d.tasks, id)
		return nil
	})
}

func (r *taskRepo) DeleteByProject(_ context.Context, tenantID, projectID uuid.UUID) (int, error) {
	var n int
	err := r.a.with(func(d *dataset) error {
		for id, t := range d.tasks {
			if t.TenantID == tenantID && t.ProjectID == projectID {
				delete(d.tasks, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *taskRepo) Unassign(_ context.Context, tenantID, userID uuid.UUID) (int, error) {
	var n int
	err := r.a.with(func(d *dataset) error {
		for id, t := range d.tasks {
			if t.TenantID == tenantID && t.AssignedTo != nil && *t.AssignedTo == userID {
				t.AssignedTo = nil
				t.UpdatedAt = time.Now().UTC()
				d.tasks[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *taskRepo) ListByProject(_ context.Context, tenantID, projectID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	err := r.a.with(func(d *dataset) error {
		matched := make([]*domain.Task, 0)
		for _, t := range d.tasks {
			if t.TenantID != tenantID || t.ProjectID != projectID {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.Priority != "" && t.Priority != filter.Priority {
				continue
			}
			if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
				continue
			}
			if filter.Search != "" && !containsFold(t.Title, filter.Search) {
				continue
			}
			decorated := decorateTask(d, t)
			matched = append(matched, &decorated)
		}
		slices.SortFunc(matched, compareTasks)
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, err
}

// compareTasks orders by priority rank, then due date with undated tasks
// last, then newest first.
func compareTasks(a, b *domain.Task) int {
	if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
		return c
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}
	return newestFirst(a.CreatedAt, b.CreatedAt)
}

func decorateTask(d *dataset, t domain.Task) domain.Task {
	t = copyTask(t)
	if t.AssignedTo != nil {
		if u, ok := d.users[*t.AssignedTo]; ok {
			t.AssigneeName = u.FullName
		}
	}
	return t
}
