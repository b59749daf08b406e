package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type projectRepo struct{ a access }

func (r *projectRepo) Create(_ context.Context, p *domain.Project) error {
	return r.a.with(func(d *dataset) error {
		if _, ok := d.tenants[p.TenantID]; !ok {
			return fmt.Errorf("projectRepo.Create: tenant: %w", domain.ErrInvalidReference)
		}
		d.projects[p.ID] = *p
		return nil
	})
}

func (r *projectRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Project, error) {
	var out domain.Project
	err := r.a.with(func(d *dataset) error {
		p, ok := d.projects[id]
		if !ok || p.TenantID != tenantID {
			return fmt.Errorf("projectRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = decorateProject(d, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *projectRepo) Update(_ context.Context, p *domain.Project) error {
	return r.a.with(func(d *dataset) error {
		existing, ok := d.projects[p.ID]
		if !ok || existing.TenantID != p.TenantID {
			return fmt.Errorf("projectRepo.Update: %w", domain.ErrNotFound)
		}
		p.CreatedBy = existing.CreatedBy
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		stored := *p
		stored.CreatorName, stored.TaskCount = "", 0
		d.projects[p.ID] = stored
		return nil
	})
}

func (r *projectRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.a.with(func(d *dataset) error {
		p, ok := d.projects[id]
		if !ok || p.TenantID != tenantID {
			return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
		}
		for _, t := range d.tasks {
			if t.ProjectID == id {
				return fmt.Errorf("projectRepo.Delete: project still has tasks: %w", domain.ErrConflict)
			}
		}
		delete(d.projects, id)
		return nil
	})
}

func (r *projectRepo) List(_ context.Context, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error) {
	var out []*domain.Project
	err := r.a.with(func(d *dataset) error {
		matched := make([]*domain.Project, 0)
		for _, p := range d.projects {
			if p.TenantID != tenantID {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.Search != "" && !containsFold(p.Name, filter.Search) {
				continue
			}
			decorated := decorateProject(d, p)
			matched = append(matched, &decorated)
		}
		slices.SortFunc(matched, func(a, b *domain.Project) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, err
}

func (r *projectRepo) CountByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.a.with(func(d *dataset) error {
		for _, p := range d.projects {
			if p.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// decorateProject fills the listing-only fields the SQL store joins in.
func decorateProject(d *dataset, p domain.Project) domain.Project {
	if u, ok := d.users[p.CreatedBy]; ok {
		p.CreatorName = u.FullName
	}
	for _, t := range d.tasks {
		if t.ProjectID == p.ID {
			p.TaskCount++
		}
	}
	return p
}
