package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

type TaskRepo struct {
	q querier
}

// priorityRank mirrors domain.TaskPriority.Rank.
const priorityRank = `CASE t.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END`

func taskSelect() sq.SelectBuilder {
	return psql.Select(
		"t.id", "t.project_id", "t.tenant_id", "t.title", "t.description", "t.priority", "t.status",
		"t.assigned_to", "t.due_date", "t.created_by", "t.created_at", "t.updated_at",
		"COALESCE(u.full_name, '')",
	).
		From("tasks t").
		LeftJoin("users u ON u.id = t.assigned_to")
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t         domain.Task
		createdBy *uuid.UUID
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.AssignedTo, &t.DueDate, &createdBy, &t.CreatedAt, &t.UpdatedAt, &t.AssigneeName)
	if err != nil {
		return nil, err
	}
	t.CreatedBy = idOrNil(createdBy)
	return &t, nil
}

// assigneeInTenant guards the assigned_to foreign key, which alone cannot
// pin the assignee to the task's tenant.
const assigneeInTenant = `($6::uuid IS NULL OR EXISTS (SELECT 1 FROM users WHERE id = $6 AND tenant_id = $2))`

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	tag, err := r.q.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, project_id, title, description, assigned_to, priority, status, due_date, created_by, created_at, updated_at)
		 SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::uuid, $7::text, $8::text,
		        $9::timestamptz, $10::uuid, $11::timestamptz, $12::timestamptz
		 WHERE `+assigneeInTenant,
		t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, t.AssignedTo,
		t.Priority, t.Status, t.DueDate, nullableID(t.CreatedBy), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return translate("taskRepo.Create", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Create: assignee: %w", domain.ErrInvalidReference)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	query, args, err := taskSelect().Where(sq.Eq{"t.id": id, "t.tenant_id": tenantID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: build: %w", err)
	}
	t, err := scanTask(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate("taskRepo.GetByID", err)
	}
	return t, nil
}

// Update rewrites the editable columns. Project, tenant and creator are fixed.
func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	var (
		createdBy *uuid.UUID
		found     bool
	)
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND tenant_id = $2)`, t.ID, t.TenantID,
	).Scan(&found)
	if err != nil {
		return translate("taskRepo.Update", err)
	}
	if !found {
		return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}

	err = r.q.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $3, description = $4, priority = $5, assigned_to = $6, status = $7, due_date = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND `+assigneeInTenant+`
		 RETURNING project_id, created_by, created_at, updated_at`,
		t.ID, t.TenantID, t.Title, t.Description, t.Priority, t.AssignedTo, t.Status, t.DueDate,
	).Scan(&t.ProjectID, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("taskRepo.Update: assignee: %w", domain.ErrInvalidReference)
		}
		return translate("taskRepo.Update", err)
	}
	t.CreatedBy = idOrNil(createdBy)
	return nil
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.TaskStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE tasks SET status = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, status,
	)
	if err != nil {
		return translate("taskRepo.UpdateStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return translate("taskRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TaskRepo) DeleteByProject(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE tenant_id = $1 AND project_id = $2`, tenantID, projectID)
	if err != nil {
		return 0, translate("taskRepo.DeleteByProject", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *TaskRepo) Unassign(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE tasks SET assigned_to = NULL, updated_at = now() WHERE tenant_id = $1 AND assigned_to = $2`,
		tenantID, userID,
	)
	if err != nil {
		return 0, translate("taskRepo.Unassign", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *TaskRepo) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	query, args, err := paged(taskListQuery(tenantID, projectID, filter), filter.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByProject: build: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("taskRepo.ListByProject", err)
	}
	defer rows.Close()

	out := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("taskRepo.ListByProject: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskRepo.ListByProject: rows: %w", err)
	}
	return out, nil
}

func taskListQuery(tenantID, projectID uuid.UUID, filter domain.TaskFilter) sq.SelectBuilder {
	b := taskSelect().
		Where(sq.Eq{"t.tenant_id": tenantID, "t.project_id": projectID}).
		OrderBy(priorityRank, "t.due_date ASC NULLS LAST", "t.created_at DESC")
	if filter.Status != "" {
		b = b.Where(sq.Eq{"t.status": filter.Status})
	}
	if filter.Priority != "" {
		b = b.Where(sq.Eq{"t.priority": filter.Priority})
	}
	if filter.AssignedTo != nil {
		b = b.Where(sq.Eq{"t.assigned_to": *filter.AssignedTo})
	}
	if filter.Search != "" {
		b = b.Where(sq.ILike{"t.title": contains(filter.Search)})
	}
	return b
}
