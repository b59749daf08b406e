package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

type ProjectRepo struct {
	q querier
}

// projectSelect joins in the creator name and the task count.
func projectSelect() sq.SelectBuilder {
	return psql.Select(
		"p.id", "p.tenant_id", "p.name", "p.description", "p.status", "p.created_by",
		"p.created_at", "p.updated_at",
		"COALESCE(u.full_name, '')",
		"(SELECT count(*) FROM tasks t WHERE t.project_id = p.id)",
	).
		From("projects p").
		LeftJoin("users u ON u.id = p.created_by")
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p         domain.Project
		createdBy *uuid.UUID
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &createdBy,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatorName, &p.TaskCount)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = idOrNil(createdBy)
	return &p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO projects (id, tenant_id, name, description, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, nullableID(p.CreatedBy), p.CreatedAt, p.UpdatedAt,
	)
	return translate("projectRepo.Create", err)
}

func (r *ProjectRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Project, error) {
	query, args, err := projectSelect().Where(sq.Eq{"p.id": id, "p.tenant_id": tenantID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("projectRepo.GetByID: build: %w", err)
	}
	p, err := scanProject(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate("projectRepo.GetByID", err)
	}
	return p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	var createdBy *uuid.UUID
	err := r.q.QueryRow(ctx,
		`UPDATE projects SET name = $3, description = $4, status = $5, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING created_by, created_at, updated_at`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status,
	).Scan(&createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translate("projectRepo.Update", err)
	}
	p.CreatedBy = idOrNil(createdBy)
	return nil
}

// Delete fails with ErrConflict while tasks still reference the project.
func (r *ProjectRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("projectRepo.Delete: project still has tasks: %w", domain.ErrConflict)
		}
		return translate("projectRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProjectRepo) List(ctx context.Context, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error) {
	query, args, err := paged(projectListQuery(tenantID, filter), filter.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("projectRepo.List: build: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("projectRepo.List", err)
	}
	defer rows.Close()

	out := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("projectRepo.List: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projectRepo.List: rows: %w", err)
	}
	return out, nil
}

func projectListQuery(tenantID uuid.UUID, filter domain.ProjectFilter) sq.SelectBuilder {
	b := projectSelect().
		Where(sq.Eq{"p.tenant_id": tenantID}).
		OrderBy("p.created_at DESC")
	if filter.Status != "" {
		b = b.Where(sq.Eq{"p.status": filter.Status})
	}
	if filter.Search != "" {
		b = b.Where(sq.ILike{"p.name": contains(filter.Search)})
	}
	return b
}

func (r *ProjectRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM projects WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, translate("projectRepo.CountByTenant", err)
	}
	return n, nil
}
