package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

const userNotFound = "user not found"

type CreateUserInput struct {
	Body struct {
		Email    string      `json:"email" maxLength:"255" doc:"Login email, unique within the tenant"`
		Password string      `json:"password" maxLength:"128" doc:"Initial password"` //nolint:gosec // G117: user creation DTO
		FullName string      `json:"fullName" maxLength:"255" doc:"Full name"`
		Role     domain.Role `json:"role,omitempty" enum:"tenant_admin,user" doc:"Defaults to user"`
	}
}

type ListUsersInput struct {
	TenantID string      `query:"tenantId" doc:"Tenant to list; platform administrators only"`
	Role     domain.Role `query:"role" enum:"tenant_admin,user" doc:"Role filter"`
	Search   string      `query:"search" doc:"Case-insensitive name or email filter"`
	PageParams
}

type GetUserInput struct {
	UserID   uuid.UUID `path:"userId" doc:"User ID"`
	TenantID string    `query:"tenantId" doc:"Tenant of the user; platform administrators only"`
}

type UpdateUserInput struct {
	UserID uuid.UUID `path:"userId" doc:"User ID"`
	Body   struct {
		FullName *string      `json:"fullName,omitempty" maxLength:"255" doc:"Full name"`
		Role     *domain.Role `json:"role,omitempty" enum:"tenant_admin,user" doc:"Tenant admins only"`
		IsActive *bool        `json:"isActive,omitempty" doc:"Tenant admins only"`
		Password *string      `json:"password,omitempty" maxLength:"128" doc:"New password"` //nolint:gosec // G117: user update DTO
	}
}

type DeleteUserInput struct {
	UserID uuid.UUID `path:"userId" doc:"User ID"`
}

func RegisterUserRoutes(api huma.API, users UserService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Add a user to the current tenant",
		Description:   "Tenant admins only. Counts against the plan's user limit.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*Response[*domain.User], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		u, err := users.Create(ctx, caller, service.CreateUserInput{
			Email:    input.Body.Email,
			Password: input.Body.Password,
			FullName: input.Body.FullName,
			Role:     input.Body.Role,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, userNotFound)
		}
		return ok(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users in the current tenant",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *ListUsersInput) (*Response[List[*domain.User]], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		list, err := users.List(ctx, caller, tenantID, domain.UserFilter{
			Role:   input.Role,
			Search: input.Search,
			Page:   input.page(),
		})
		if err != nil {
			return nil, toAPIError(ctx, err, userNotFound)
		}
		return listOf(list, input.page()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{userId}",
		Summary:     "Get a user by ID",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*Response[*domain.User], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		u, err := users.Get(ctx, caller, tenantID, input.UserID)
		if err != nil {
			return nil, toAPIError(ctx, err, userNotFound)
		}
		return ok(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/users/{userId}",
		Summary:     "Update a user",
		Description: "Users may change their own name and password. Tenant admins may also change the role and activity of other users.",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserInput) (*Response[*domain.User], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		u, err := users.Update(ctx, caller, input.UserID, service.UserPatch{
			FullName: input.Body.FullName,
			Role:     input.Body.Role,
			IsActive: input.Body.IsActive,
			Password: input.Body.Password,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, userNotFound)
		}
		return ok(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{userId}",
		Summary:     "Delete a user",
		Description: "Tenant admins only. The user's tasks are left unassigned.",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *DeleteUserInput) (*MessageOutput, error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := users.Delete(ctx, caller, input.UserID); err != nil {
			return nil, toAPIError(ctx, err, userNotFound)
		}
		return done("User deleted successfully"), nil
	})
}
