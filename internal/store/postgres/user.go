package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

type UserRepo struct {
	q querier
}

const userColumns = `id, tenant_id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		tenantID *uuid.UUID
	)
	err := row.Scan(&u.ID, &tenantID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.TenantID = idOrNil(tenantID)
	return &u, nil
}

// tenantScope matches platform users when tenantID is uuid.Nil.
func tenantScope(column string, tenantID uuid.UUID) sq.Sqlizer {
	if tenantID == uuid.Nil {
		return sq.Eq{column: nil}
	}
	return sq.Eq{column: tenantID}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, nullableID(u.TenantID), u.Email, u.PasswordHash, u.FullName,
		u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	return translate("userRepo.Create", err)
}

func (r *UserRepo) getOne(ctx context.Context, op string, where sq.Sqlizer) (*domain.User, error) {
	query, args, err := psql.Select(userColumns).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(op, err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "userRepo.GetByID", sq.And{sq.Eq{"id": id}, tenantScope("tenant_id", tenantID)})
}

func (r *UserRepo) Lookup(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "userRepo.Lookup", sq.Eq{"id": id})
}

func (r *UserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	return r.getOne(ctx, "userRepo.GetByEmail", sq.And{
		tenantScope("tenant_id", tenantID),
		sq.Expr("lower(email) = lower(?)", email),
	})
}

// Update rewrites the mutable columns of a user within its tenant.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query, args, err := psql.Update("users").
		Set("email", u.Email).
		Set("password_hash", u.PasswordHash).
		Set("full_name", u.FullName).
		Set("role", u.Role).
		Set("is_active", u.IsActive).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": u.ID}).
		Where(tenantScope("tenant_id", u.TenantID)).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("userRepo.Update: build: %w", err)
	}
	return translate("userRepo.Update", r.q.QueryRow(ctx, query, args...).Scan(&u.CreatedAt, &u.UpdatedAt))
}

// Delete removes the user; created_by references fall back to NULL.
func (r *UserRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query, args, err := psql.Delete("users").
		Where(sq.Eq{"id": id}).
		Where(tenantScope("tenant_id", tenantID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("userRepo.Delete: build: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return translate("userRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, error) {
	b := psql.Select(userColumns).From("users").
		Where(tenantScope("tenant_id", tenantID)).
		OrderBy("created_at DESC")
	if filter.Role != "" {
		b = b.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Search != "" {
		pattern := contains(filter.Search)
		b = b.Where(sq.Or{sq.ILike{"full_name": pattern}, sq.ILike{"email": pattern}})
	}

	query, args, err := paged(b, filter.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("userRepo.List: build: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("userRepo.List", err)
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("userRepo.List: scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRepo.List: rows: %w", err)
	}
	return out, nil
}

func (r *UserRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, translate("userRepo.CountByTenant", err)
	}
	return n, nil
}
