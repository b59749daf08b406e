package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
)

func registerPublicRoutes(api huma.API, svc Services) {
	v1.RegisterAuthRoutes(api, svc.Tenants, svc.Auth)
}

func registerAPIRoutes(api huma.API, svc Services) {
	v1.RegisterSessionRoutes(api, svc.Auth)
	v1.RegisterTenantRoutes(api, svc.Tenants)
	v1.RegisterUserRoutes(api, svc.Users)
	v1.RegisterProjectRoutes(api, svc.Projects)
	v1.RegisterTaskRoutes(api, svc.Tasks)
	v1.RegisterAuditLogRoutes(api, svc.AuditLog)
}
