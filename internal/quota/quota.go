// Package quota enforces per-tenant plan limits on resource creation.
package quota

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
)

// Guard checks resource counts against tenant limits. Reserve must run
// inside the transaction that performs the insert.
type Guard struct {
	metrics *metrics.Metrics
}

func NewGuard(m *metrics.Metrics) *Guard {
	return &Guard{metrics: m}
}

// Reserve locks the tenant row, counts existing resources of kind and fails
// with *domain.LimitError when one more would exceed the plan. The lock is
// held until tx ends, so concurrent reservations for the same tenant
// serialize on it.
func (g *Guard) Reserve(ctx context.Context, tx domain.Repositories, tenantID uuid.UUID, kind domain.ResourceKind) error {
	tenant, err := tx.Tenants().GetForUpdate(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("quota.Reserve: %w", err)
	}

	limit := tenant.Limit(kind)
	if limit < 0 {
		return fmt.Errorf("quota.Reserve: unknown resource kind %q", kind)
	}

	var count int
	switch kind {
	case domain.ResourceUsers:
		count, err = tx.Users().CountByTenant(ctx, tenantID)
	case domain.ResourceProjects:
		count, err = tx.Projects().CountByTenant(ctx, tenantID)
	}
	if err != nil {
		return fmt.Errorf("quota.Reserve: count %s: %w", kind, err)
	}

	if count >= limit {
		g.metrics.QuotaRejected(string(kind))
		log.Debug().
			Str("tenant_id", tenantID.String()).
			Str("resource", string(kind)).
			Int("count", count).
			Int("max", limit).
			Msg("quota: limit reached")
		return &domain.LimitError{Kind: kind, Max: limit}
	}

	return nil
}

// Within runs fn in a new transaction after a successful Reserve. The
// reservation and whatever fn inserts commit or roll back together.
func (g *Guard) Within(ctx context.Context, store domain.Store, tenantID uuid.UUID, kind domain.ResourceKind, fn func(ctx context.Context, tx domain.Repositories) error) error {
	return store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := g.Reserve(ctx, tx, tenantID, kind); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}
