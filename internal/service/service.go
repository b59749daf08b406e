// Package service implements the tenant-scoped project, task and user
// operations. Every method takes the verified caller and derives the tenant
// from it; client-supplied tenant ids are only honoured for platform reads.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/domain"
)

// record queues an audit entry attributed to c.
func record(ctx context.Context, rec audit.Recorder, c access.Caller, action, entityType string, entityID uuid.UUID) {
	entry := domain.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID.String(),
	}
	if c.TenantID != uuid.Nil {
		tenantID := c.TenantID
		entry.TenantID = &tenantID
	}
	if c.UserID != uuid.Nil {
		userID := c.UserID
		entry.UserID = &userID
	}
	rec.Record(ctx, entry)
}
