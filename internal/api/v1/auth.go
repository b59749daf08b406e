package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/tenancy"
)

type RegisterTenantInput struct {
	Body struct {
		TenantName    string `json:"tenantName" maxLength:"255" doc:"Display name of the new tenant"`
		Subdomain     string `json:"subdomain" maxLength:"63" doc:"Unique tenant subdomain"`
		AdminEmail    string `json:"adminEmail" maxLength:"255" doc:"Email of the first tenant admin"`
		AdminPassword string `json:"adminPassword" maxLength:"128" doc:"Password of the first tenant admin"` //nolint:gosec // G117: registration DTO
		AdminFullName string `json:"adminFullName" maxLength:"255" doc:"Full name of the first tenant admin"`
	}
}

type RegisteredTenant struct {
	TenantID  uuid.UUID    `json:"tenantId"`
	Subdomain string       `json:"subdomain"`
	AdminUser *domain.User `json:"adminUser"`
}

type LoginInput struct {
	Body struct {
		Email           string `json:"email" maxLength:"255" doc:"User email"`
		Password        string `json:"password" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
		TenantSubdomain string `json:"tenantSubdomain,omitempty" maxLength:"63" doc:"Tenant subdomain; empty for platform users"`
	}
}

type LoginData struct {
	Token     string         `json:"token"` //nolint:gosec // G117: auth response DTO
	ExpiresIn int            `json:"expiresIn" doc:"Token lifetime in seconds"`
	User      *domain.User   `json:"user"`
	Tenant    *domain.Tenant `json:"tenant,omitempty"`
}

type MeData struct {
	ID       uuid.UUID      `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     domain.Role    `json:"role"`
	Tenant   *domain.Tenant `json:"tenant"`
}

// RegisterAuthRoutes registers the public registration and login operations.
func RegisterAuthRoutes(api huma.API, tenants TenantService, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-tenant",
		Method:        http.MethodPost,
		Path:          "/auth/register-tenant",
		Summary:       "Register a tenant and its first admin",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterTenantInput) (*Response[RegisteredTenant], error) {
		reg, err := tenants.Register(ctx, tenancy.Registration{
			TenantName:    input.Body.TenantName,
			Subdomain:     input.Body.Subdomain,
			AdminEmail:    input.Body.AdminEmail,
			AdminPassword: input.Body.AdminPassword,
			AdminFullName: input.Body.AdminFullName,
		})
		if err != nil {
			return nil, toAPIError(ctx, err, "tenant not found")
		}

		out := ok(RegisteredTenant{TenantID: reg.Tenant.ID, Subdomain: reg.Tenant.Subdomain, AdminUser: reg.Admin})
		out.Body.Message = "Tenant registered successfully"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*Response[LoginData], error) {
		sess, err := authSvc.Login(ctx, input.Body.TenantSubdomain, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, toAPIError(ctx, err, "tenant not found")
		}

		return ok(LoginData{
			Token:     sess.Token,
			ExpiresIn: sess.ExpiresIn,
			User:      sess.User,
			Tenant:    sess.Tenant,
		}), nil
	})
}

// RegisterSessionRoutes registers operations about the authenticated caller.
func RegisterSessionRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*Response[MeData], error) {
		caller, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		p, err := authSvc.Me(ctx, caller)
		if err != nil {
			return nil, toAPIError(ctx, err, "user not found")
		}

		return ok(MeData{
			ID:       p.User.ID,
			Email:    p.User.Email,
			FullName: p.User.FullName,
			Role:     p.User.Role,
			Tenant:   p.Tenant,
		}), nil
	})
}
