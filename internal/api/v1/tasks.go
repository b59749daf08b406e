package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

const taskNotFound = "task not found"

type CreateTaskInput struct {
	ProjectID uuid.UUID `path:"projectId" doc:"Project ID"`
	Body      struct {
		Title       string              `json:"title" maxLength:"255" doc:"Task title"`
		Description string              `json:"description,omitempty" doc:"Task description"`
		Priority    domain.TaskPriority `json:"priority,omitempty" enum:"low,medium,high" doc:"Defaults to medium"`
		AssignedTo  *uuid.UUID          `json:"assignedTo,omitempty" doc:"User in the same tenant"`
		DueDate     *time.Time          `json:"dueDate,omitempty" doc:"RFC 3339 due date"`
	}
}

type ListTasksInput struct {
	ProjectID  uuid.UUID           `path:"projectId" doc:"Project ID"`
	TenantID   string              `query:"tenantId" doc:"Tenant of the project; platform administrators only"`
	Status     domain.TaskStatus   `query:"status" enum:"todo,in_progress,completed" doc:"Status filter"`
	Priority   domain.TaskPriority `query:"priority" enum:"low,medium,high" doc:"Priority filter"`
	AssignedTo string              `query:"assignedTo" doc:"Assignee filter"`
	Search     string              `query:"search" doc:"Case-insensitive title filter"`
	PageParams
}

type GetTaskInput struct {
	TaskID   uuid.UUID `path:"taskId" doc:"Task ID"`
	TenantID string    `query:"tenantId" doc:"Tenant of the task; platform administrators only"`
}

type UpdateTaskInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
	Body   struct {
		Title       *string              `json:"title,omitempty" maxLength:"255" doc:"Task title"`
		Description *string              `json:"description,omitempty" doc:"Task description"`
		Priority    *domain.TaskPriority `json:"priority,omitempty" enum:"low,medium,high" doc:"Task priority"`
		Status      *domain.TaskStatus   `json:"status,omitempty" enum:"todo,in_progress,completed" doc:"Task status"`
		AssignedTo  *string              `json:"assignedTo,omitempty" doc:"Assignee ID; empty string unassigns"`
		DueDate     *string              `json:"dueDate,omitempty" doc:"RFC 3339 due date; empty string clears"`
	}
}

type UpdateTaskStatusInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
	Body   struct {
		Status domain.TaskStatus `json:"status" enum:"todo,in_progress,completed" doc:"New status"`
	}
}

type DeleteTaskInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
}

// toTaskPatch converts the wire form, where empty strings clear the assignee
// and due date, into a service patch.
func toTaskPatch(in *UpdateTaskInput) (service.TaskPatch, error) {
	patch := service.TaskPatch{
		Title:       in.Body.Title,
		Description: in.Body.Description,
		Priority:    in.Body.Priority,
		Status:      in.Body.Status,
	}
	if in.Body.AssignedTo != nil {
		id, err := optionalID("assignedTo", *in.Body.AssignedTo)
		if err != nil {
			return service.TaskPatch{}, err
		}
		patch.AssignedTo = &id
	}
	if in.Body.DueDate != nil {
		var due time.Time
		if *in.Body.DueDate != "" {
			parsed, err := time.Parse(time.RFC3339, *in.Body.DueDate)
			if err != nil {
				return service.TaskPatch{}, huma.Error400BadRequest("dueDate must be an RFC 3339 timestamp")
			}
			due = parsed
		}
		patch.DueDate = &due
	}
	return patch, nil
}

func RegisterTaskRoutes(api huma.API, tasks TaskService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{projectId}/tasks",
		Summary:       "Create a task in a project",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*Response[*domain.Task], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tasks.Create(ctx, caller, input.ProjectID, service.CreateTaskInput{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Priority:    input.Body.Priority,
			AssignedTo:  input.Body.AssignedTo,
			DueDate:     input.Body.DueDate,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}/tasks",
		Summary:     "List the tasks of a project",
		Description: "Tasks are ordered by priority (high first), then by due date.",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*Response[List[*domain.Task]], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}
		filter := domain.TaskFilter{
			Status:   input.Status,
			Priority: input.Priority,
			Search:   input.Search,
			Page:     input.page(),
		}
		if input.AssignedTo != "" {
			assignee, err := optionalID("assignedTo", input.AssignedTo)
			if err != nil {
				return nil, err
			}
			filter.AssignedTo = &assignee
		}

		list, err := tasks.List(ctx, caller, tenantID, input.ProjectID, filter)
		if err != nil {
			return nil, toAPIError(ctx, err, projectNotFound)
		}
		return listOf(list, input.page()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskId}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*Response[*domain.Task], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		t, err := tasks.Get(ctx, caller, tenantID, input.TaskID)
		if err != nil {
			return nil, toAPIError(ctx, err, taskNotFound)
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{taskId}",
		Summary:     "Update a task",
		Description: "Only the creator or a tenant admin may update a task.",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*Response[*domain.Task], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		patch, err := toTaskPatch(input)
		if err != nil {
			return nil, err
		}

		t, err := tasks.Update(ctx, caller, input.TaskID, patch)
		if err != nil {
			return nil, toAPIError(ctx, err, taskNotFound)
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{taskId}/status",
		Summary:     "Change the status of a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskStatusInput) (*Response[*domain.Task], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tasks.UpdateStatus(ctx, caller, input.TaskID, input.Body.Status)
		if err != nil {
			return nil, toAPIError(ctx, err, taskNotFound)
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{taskId}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*MessageOutput, error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := tasks.Delete(ctx, caller, input.TaskID); err != nil {
			return nil, toAPIError(ctx, err, taskNotFound)
		}
		return done("Task deleted successfully"), nil
	})
}
