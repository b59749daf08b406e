package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

type TenantRepo struct {
	q querier
}

const tenantColumns = `id, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan,
		&t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO tenants (`+tenantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Subdomain, t.Status, t.SubscriptionPlan,
		t.MaxUsers, t.MaxProjects, t.CreatedAt, t.UpdatedAt,
	)
	return translate("tenantRepo.Create", err)
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, translate("tenantRepo.GetByID", err)
	}
	return t, nil
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = lower($1)`, subdomain))
	if err != nil {
		return nil, translate("tenantRepo.GetBySubdomain", err)
	}
	return t, nil
}

func (r *TenantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate("tenantRepo.GetForUpdate", err)
	}
	return t, nil
}

// Update rewrites the mutable columns. Subdomain and created_at are fixed at
// registration.
func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	err := r.q.QueryRow(ctx,
		`UPDATE tenants
		 SET name = $2, status = $3, subscription_plan = $4, max_users = $5, max_projects = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING subdomain, created_at, updated_at`,
		t.ID, t.Name, t.Status, t.SubscriptionPlan, t.MaxUsers, t.MaxProjects,
	).Scan(&t.Subdomain, &t.CreatedAt, &t.UpdatedAt)
	return translate("tenantRepo.Update", err)
}

func (r *TenantRepo) List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error) {
	query, args, err := paged(
		psql.Select(tenantColumns).From("tenants").OrderBy("created_at DESC"),
		page,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: build: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("tenantRepo.List", err)
	}
	defer rows.Close()

	out := make([]*domain.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("tenantRepo.List: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}
	return out, nil
}
