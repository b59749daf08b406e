package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

const projectNotFound = "project not found"

type CreateProjectInput struct {
	Body struct {
		Name        string               `json:"name" maxLength:"255" doc:"Project name"`
		Description string               `json:"description,omitempty" doc:"Project description"`
		Status      domain.ProjectStatus `json:"status,omitempty" enum:"active,archived,completed" doc:"Defaults to active"`
	}
}

type ListProjectsInput struct {
	TenantID string               `query:"tenantId" doc:"Tenant to list; platform administrators only"`
	Search   string               `query:"search" doc:"Case-insensitive name filter"`
	Status   domain.ProjectStatus `query:"status" enum:"active,archived,completed" doc:"Status filter"`
	PageParams
}

type GetProjectInput struct {
	ID       uuid.UUID `path:"id" doc:"Project ID"`
	TenantID string    `query:"tenantId" doc:"Tenant of the project; platform administrators only"`
}

type UpdateProjectInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		Name        *string               `json:"name,omitempty" maxLength:"255" doc:"Project name"`
		Description *string               `json:"description,omitempty" doc:"Project description"`
		Status      *domain.ProjectStatus `json:"status,omitempty" enum:"active,archived,completed" doc:"Project status"`
	}
}

type DeleteProjectInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

func RegisterProjectRoutes(api huma.API, projects ProjectService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create a new project",
		Tags:          []string{"Projects"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateProjectInput) (*Response[*domain.Project], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		p, err := projects.Create(ctx, caller, service.CreateProjectInput{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Status:      input.Body.Status,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return ok(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects in the current tenant",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListProjectsInput) (*Response[List[*domain.Project]], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		list, err := projects.List(ctx, caller, tenantID, domain.ProjectFilter{
			Status: input.Status,
			Search: input.Search,
			Page:   input.page(),
		})
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return listOf(list, input.page()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project by ID",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *GetProjectInput) (*Response[*domain.Project], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		p, err := projects.Get(ctx, caller, tenantID, input.ID)
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return ok(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{id}",
		Summary:     "Update a project",
		Description: "Only the creator or a tenant admin may update a project.",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *UpdateProjectInput) (*Response[*domain.Project], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		p, err := projects.Update(ctx, caller, input.ID, service.ProjectPatch{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Status:      input.Body.Status,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return ok(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{id}",
		Summary:     "Delete a project and its tasks",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *DeleteProjectInput) (*MessageOutput, error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := projects.Delete(ctx, caller, input.ID); err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return done("Project deleted successfully"), nil
	})
}
