package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/quota"
)

type Projects struct {
	store domain.Store
	quota *quota.Guard
	audit audit.Recorder
}

func NewProjects(store domain.Store, q *quota.Guard, rec audit.Recorder) *Projects {
	return &Projects{store: store, quota: q, audit: rec}
}

type CreateProjectInput struct {
	Name        string
	Description string
	Status      domain.ProjectStatus
}

// Create inserts a project after reserving a slot in the tenant's plan.
func (s *Projects) Create(ctx context.Context, c access.Caller, in CreateProjectInput) (*domain.Project, error) {
	if err := access.Allow(c, access.ActionCreateProject); err != nil {
		return nil, fmt.Errorf("projects.Create: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("projects.Create: %w", err)
	}

	p, err := domain.NewProject(tenantID, c.UserID, in.Name, in.Description, in.Status)
	if err != nil {
		return nil, fmt.Errorf("projects.Create: %w", err)
	}

	err = s.quota.Within(ctx, s.store, tenantID, domain.ResourceProjects, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Projects().Create(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("projects.Create: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionCreateProject, "project", p.ID)
	return p, nil
}

// Get returns one project. tenantID selects the tenant for platform callers
// and is ignored otherwise.
func (s *Projects) Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Project, error) {
	if err := access.Allow(c, access.ActionReadProject); err != nil {
		return nil, fmt.Errorf("projects.Get: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("projects.Get: %w", err)
	}
	p, err := s.store.Projects().GetByID(ctx, scope, id)
	if err != nil {
		return nil, fmt.Errorf("projects.Get: %w", err)
	}
	return p, nil
}

// List returns the projects of the caller's tenant, newest first.
func (s *Projects) List(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error) {
	if err := access.Allow(c, access.ActionReadProject); err != nil {
		return nil, fmt.Errorf("projects.List: %w", err)
	}
	scope, err := access.ReadScope(c, tenantID)
	if err != nil {
		return nil, fmt.Errorf("projects.List: %w", err)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("projects.List: %w", domain.Invalid("invalid status %q", filter.Status))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()

	projects, err := s.store.Projects().List(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("projects.List: %w", err)
	}
	return projects, nil
}

// ProjectPatch is a partial update; nil fields keep their value.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *domain.ProjectStatus
}

// Update applies patch. Only the creator or a tenant admin may update.
func (s *Projects) Update(ctx context.Context, c access.Caller, id uuid.UUID, patch ProjectPatch) (*domain.Project, error) {
	if err := access.Allow(c, access.ActionWriteProject); err != nil {
		return nil, fmt.Errorf("projects.Update: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return nil, fmt.Errorf("projects.Update: %w", err)
	}

	var updated *domain.Project
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		p, err := tx.Projects().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := access.RequireOwnerOrAdmin(c, p.CreatedBy); err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return domain.Invalid("name cannot be empty")
			}
			p.Name = name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return domain.Invalid("invalid status %q", *patch.Status)
			}
			p.Status = *patch.Status
		}

		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("projects.Update: %w", err)
	}

	record(ctx, s.audit, c, domain.ActionUpdateProject, "project", id)
	return updated, nil
}

// Delete removes a project and all of its tasks in one transaction.
func (s *Projects) Delete(ctx context.Context, c access.Caller, id uuid.UUID) error {
	if err := access.Allow(c, access.ActionWriteProject); err != nil {
		return fmt.Errorf("projects.Delete: %w", err)
	}
	tenantID, err := access.WriteScope(c)
	if err != nil {
		return fmt.Errorf("projects.Delete: %w", err)
	}

	var removed int
	err = s.store.InTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		p, err := tx.Projects().GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := access.RequireOwnerOrAdmin(c, p.CreatedBy); err != nil {
			return err
		}
		removed, err = tx.Tasks().DeleteByProject(ctx, tenantID, id)
		if err != nil {
			return err
		}
		return tx.Projects().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return fmt.Errorf("projects.Delete: %w", err)
	}

	log.Debug().
		Str("tenant_id", tenantID.String()).
		Str("project_id", id.String()).
		Int("tasks_removed", removed).
		Msg("project deleted")

	record(ctx, s.audit, c, domain.ActionDeleteProject, "project", id)
	return nil
}
