package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskhub/internal/domain"
)

type ListAuditLogsInput struct {
	TenantID string `query:"tenantId" doc:"Tenant to list; platform administrators only"`
	PageParams
}

func RegisterAuditLogRoutes(api huma.API, logs AuditLogService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit-logs",
		Summary:     "List the audit trail of the current tenant",
		Description: "Tenant admins on a plan with the audit-log feature, newest entries first.",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditLogsInput) (*Response[List[*domain.AuditEntry]], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		tenantID, err := optionalID("tenantId", input.TenantID)
		if err != nil {
			return nil, err
		}

		list, err := logs.List(ctx, caller, tenantID, input.page())
		if err != nil {
			return nil, toAPIError(ctx, err, "audit log not found")
		}
		return listOf(list, input.page()), nil
	})
}
