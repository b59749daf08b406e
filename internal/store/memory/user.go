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

type userRepo struct{ a access }

func emailTaken(d *dataset, tenantID uuid.UUID, email string, except uuid.UUID) bool {
	for _, u := range d.users {
		if u.ID != except && u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	return r.a.with(func(d *dataset) error {
		if u.TenantID != uuid.Nil {
			if _, ok := d.tenants[u.TenantID]; !ok {
				return fmt.Errorf("userRepo.Create: tenant: %w", domain.ErrInvalidReference)
			}
		}
		if emailTaken(d, u.TenantID, u.Email, uuid.Nil) {
			return fmt.Errorf("userRepo.Create: %w", domain.ErrDuplicateEmail)
		}
		d.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	var out domain.User
	err := r.a.with(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok || u.TenantID != tenantID {
			return fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) Lookup(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out domain.User
	err := r.a.with(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return fmt.Errorf("userRepo.Lookup: %w", domain.ErrNotFound)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	var out *domain.User
	err := r.a.with(func(d *dataset) error {
		for _, u := range d.users {
			if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	return r.a.with(func(d *dataset) error {
		existing, ok := d.users[u.ID]
		if !ok || existing.TenantID != u.TenantID {
			return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
		}
		if emailTaken(d, u.TenantID, u.Email, u.ID) {
			return fmt.Errorf("userRepo.Update: %w", domain.ErrDuplicateEmail)
		}
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = time.Now().UTC()
		d.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.a.with(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok || u.TenantID != tenantID {
			return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(d.users, id)
		// Mirrors ON DELETE SET NULL on created_by.
		for pid, p := range d.projects {
			if p.CreatedBy == id {
				p.CreatedBy = uuid.Nil
				d.projects[pid] = p
			}
		}
		for tid, t := range d.tasks {
			if t.CreatedBy == id {
				t.CreatedBy = uuid.Nil
				d.tasks[tid] = t
			}
		}
		return nil
	})
}

func (r *userRepo) List(_ context.Context, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, error) {
	var out []*domain.User
	err := r.a.with(func(d *dataset) error {
		matched := make([]*domain.User, 0)
		for _, u := range d.users {
			if u.TenantID != tenantID {
				continue
			}
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if filter.Search != "" && !containsFold(u.FullName, filter.Search) && !containsFold(u.Email, filter.Search) {
				continue
			}
			matched = append(matched, &u)
		}
		slices.SortFunc(matched, func(a, b *domain.User) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, err
}

func (r *userRepo) CountByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.a.with(func(d *dataset) error {
		for _, u := range d.users {
			if u.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}
