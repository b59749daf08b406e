package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// AuditRepo is append-only. It always writes through the pool so audit rows
// survive a rolled-back business transaction.
type AuditRepo struct {
	q querier
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TenantID, entry.UserID, entry.Action,
		entry.EntityType, entry.EntityID, entry.IPAddress, entry.CreatedAt,
	)
	return translate("auditRepo.Record", err)
}

func (r *AuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, page domain.Page) ([]*domain.AuditEntry, error) {
	query, args, err := paged(
		psql.Select("id", "tenant_id", "user_id", "action", "entity_type", "entity_id", "ip_address", "created_at").
			From("audit_logs").
			Where(sq.Eq{"tenant_id": tenantID}).
			OrderBy("created_at DESC"),
		page,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTenant: build: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("auditRepo.ListByTenant", err)
	}
	defer rows.Close()

	out := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action,
			&e.EntityType, &e.EntityID, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("auditRepo.ListByTenant: scan: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTenant: rows: %w", err)
	}
	return out, nil
}
