package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type auditRepo struct{ s *Store }

// Record appends outside any transaction; audit entries are never rolled back.
func (r *auditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *auditRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page domain.Page) ([]*domain.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]*domain.AuditEntry, 0)
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if e.TenantID != nil && *e.TenantID == tenantID {
			matched = append(matched, &e)
		}
	}
	slices.SortStableFunc(matched, func(a, b *domain.AuditEntry) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
	return paginate(matched, page), nil
}
