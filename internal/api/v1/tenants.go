package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/tenancy"
)

type ListTenantsInput struct {
	PageParams
}

type GetTenantInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
}

type UpdateTenantInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
	Body     struct {
		Name             *string              `json:"name,omitempty" maxLength:"255" doc:"Tenant name"`
		Status           *domain.TenantStatus `json:"status,omitempty" enum:"active,suspended" doc:"Platform administrators only"`
		SubscriptionPlan *string              `json:"subscriptionPlan,omitempty" doc:"Plan name; resets limits unless they are given too"`
		MaxUsers         *int                 `json:"maxUsers,omitempty" doc:"Platform administrators only"`
		MaxProjects      *int                 `json:"maxProjects,omitempty" doc:"Platform administrators only"`
	}
}

func RegisterTenantRoutes(api huma.API, tenants TenantService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List all tenants",
		Description: "Platform administrators only.",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*Response[List[*domain.Tenant]], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := tenants.List(ctx, caller, input.page())
		if err != nil {
			return nil, toAPIError(ctx, err, "tenant not found")
		}
		return listOf(list, input.page()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantId}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*Response[*domain.Tenant], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tenants.Get(ctx, caller, input.TenantID)
		if err != nil {
			return nil, toAPIError(ctx, err, "tenant not found")
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPut,
		Path:        "/tenants/{tenantId}",
		Summary:     "Update a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*Response[*domain.Tenant], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tenants.Update(ctx, caller, input.TenantID, tenancy.Update{
			Name:             input.Body.Name,
			Status:           input.Body.Status,
			SubscriptionPlan: input.Body.SubscriptionPlan,
			MaxUsers:         input.Body.MaxUsers,
			MaxProjects:      input.Body.MaxProjects,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, "tenant not found")
		}
		return ok(t), nil
	})
}
