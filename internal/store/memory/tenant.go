package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type tenantRepo struct{ a access }

func (r *tenantRepo) Create(_ context.Context, t *domain.Tenant) error {
	return r.a.with(func(d *dataset) error {
		for _, existing := range d.tenants {
			if strings.EqualFold(existing.Subdomain, t.Subdomain) {
				return fmt.Errorf("tenantRepo.Create: %w", domain.ErrDuplicateSubdomain)
			}
		}
		if _, ok := d.tenants[t.ID]; ok {
			return fmt.Errorf("tenantRepo.Create: duplicate id: %w", domain.ErrConflict)
		}
		d.tenants[t.ID] = *t
		return nil
	})
}

func (r *tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var out domain.Tenant
	err := r.a.with(func(d *dataset) error {
		t, ok := d.tenants[id]
		if !ok {
			return fmt.Errorf("tenantRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is GetByID: transactions already hold the store-wide lock.
func (r *tenantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.GetByID(ctx, id)
}

func (r *tenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.a.with(func(d *dataset) error {
		for _, t := range d.tenants {
			if strings.EqualFold(t.Subdomain, subdomain) {
				out = &t
				return nil
			}
		}
		return fmt.Errorf("tenantRepo.GetBySubdomain: %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *tenantRepo) Update(_ context.Context, t *domain.Tenant) error {
	return r.a.with(func(d *dataset) error {
		existing, ok := d.tenants[t.ID]
		if !ok {
			return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
		}
		// Subdomain is immutable.
		t.Subdomain = existing.Subdomain
		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		d.tenants[t.ID] = *t
		return nil
	})
}

func (r *tenantRepo) List(_ context.Context, page domain.Page) ([]*domain.Tenant, error) {
	var out []*domain.Tenant
	err := r.a.with(func(d *dataset) error {
		all := make([]*domain.Tenant, 0, len(d.tenants))
		for _, t := range d.tenants {
			all = append(all, &t)
		}
		slices.SortFunc(all, func(a, b *domain.Tenant) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
		out = paginate(all, page)
		return nil
	})
	return out, err
}
