package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/plan"
)

// AuditLog reads back recorded audit entries.
type AuditLog struct {
	store domain.Store
}

func NewAuditLog(store domain.Store) *AuditLog {
	return &AuditLog{store: store}
}

// FeatureAuditLog gates tenant access to the audit history.
const FeatureAuditLog = "audit-log"

// List returns a tenant's audit entries, newest first. Tenant admins need a
// plan that includes the audit log; platform callers may read any tenant.
func (s *AuditLog) List(ctx context.Context, c access.Caller, tenantID uuid.UUID, page domain.Page) ([]*domain.AuditEntry, error) {
	if err := access.Allow(c, access.ActionReadAudit); err != nil {
		return nil, fmt.Errorf("auditLog.List: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("auditLog.List: %w", err)
	}

	tenant, err := s.store.Tenants().GetByID(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("auditLog.List: %w", err)
	}
	if !c.IsPlatform() {
		p, err := plan.Lookup(tenant.SubscriptionPlan)
		if err != nil || !p.HasFeature(FeatureAuditLog) {
			return nil, fmt.Errorf("auditLog.List: plan %q has no audit log: %w", tenant.SubscriptionPlan, domain.ErrForbidden)
		}
	}

	entries, err := s.store.Audit().ListByTenant(ctx, scope, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("auditLog.List: %w", err)
	}
	return entries, nil
}
