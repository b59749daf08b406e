// Package auth turns email/password logins into session credentials and
// session credentials back into callers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = fmt.Errorf("auth: invalid email or password: %w", domain.ErrUnauthenticated)
	ErrUserGone           = fmt.Errorf("auth: user no longer exists or is inactive: %w", domain.ErrUnauthenticated)
)

// Service provides login and credential resolution.
type Service struct {
	store   domain.Store
	tenants *tenancy.Registry
	creds   *credential.Store
	audit   audit.Recorder
	metrics *metrics.Metrics

	// dummyHash is verified against when the email is unknown so both
	// failure paths cost one KDF run.
	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth service.
func NewService(store domain.Store, tenants *tenancy.Registry, creds *credential.Store, rec audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		tenants: tenants,
		creds:   creds,
		audit:   rec,
		metrics: m,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresIn int // seconds
	User      *domain.User
	Tenant    *domain.Tenant // nil for platform users
}

// Login authenticates email/password within the tenant named by subdomain.
// An empty subdomain authenticates a platform user.
//
// Failure order: unknown tenant (NotFound), suspended tenant (Forbidden),
// unknown email or wrong password (Unauthenticated), inactive user (Forbidden).
func (s *Service) Login(ctx context.Context, subdomain, email, password string) (*Session, error) {
	tenantID := uuid.Nil
	var tenant *domain.Tenant

	if subdomain != "" {
		t, err := s.tenants.FindBySubdomain(ctx, subdomain)
		if err != nil {
			s.metrics.Login("tenant_not_found")
			return nil, fmt.Errorf("auth.Login: %w", err)
		}
		if err := tenancy.AuthorizeStatus(t); err != nil {
			s.metrics.Login("tenant_suspended")
			return nil, fmt.Errorf("auth.Login: %w", err)
		}
		tenant, tenantID = t, t.ID
	}

	user, err := s.store.Users().GetByEmail(ctx, tenantID, tenancy.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.Login: %w", err)
		}
		s.creds.VerifyPassword(password, s.dummy())
		s.metrics.Login("invalid_credentials")
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		s.metrics.Login("invalid_credentials")
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !user.IsActive {
		s.metrics.Login("user_inactive")
		return nil, fmt.Errorf("auth.Login: %w", domain.ErrUserInactive)
	}

	token, err := s.creds.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	s.metrics.Login("success")
	log.Debug().
		Str("user_id", user.ID.String()).
		Str("tenant_id", tenantID.String()).
		Msg("login succeeded")

	entry := domain.AuditEntry{
		UserID:     &user.ID,
		Action:     domain.ActionLogin,
		EntityType: "session",
		EntityID:   user.ID.String(),
	}
	if tenant != nil {
		entry.TenantID = &tenant.ID
	}
	s.audit.Record(ctx, entry)

	return &Session{
		Token:     token,
		ExpiresIn: int(s.creds.TTL().Seconds()),
		User:      user,
		Tenant:    tenant,
	}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.creds.HashPassword(uuid.NewString())
		if err != nil {
			log.Warn().Err(err).Msg("auth: could not prepare dummy hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Identify verifies a session credential and resolves it against the live
// user row. The returned caller carries the user's current role, so
// demotions and deactivations take effect before the credential expires.
func (s *Service) Identify(ctx context.Context, token string) (access.Caller, error) {
	id, err := s.creds.Verify(token)
	if err != nil {
		return access.Caller{}, fmt.Errorf("auth.Identify: %w", err)
	}

	user, err := s.store.Users().Lookup(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return access.Caller{}, fmt.Errorf("auth.Identify: %w", ErrUserGone)
		}
		return access.Caller{}, fmt.Errorf("auth.Identify: %w", err)
	}
	if !user.IsActive || user.TenantID != id.TenantID {
		return access.Caller{}, fmt.Errorf("auth.Identify: %w", ErrUserGone)
	}

	if user.TenantID != uuid.Nil {
		tenant, err := s.store.Tenants().GetByID(ctx, user.TenantID)
		if err != nil {
			return access.Caller{}, fmt.Errorf("auth.Identify: %w", err)
		}
		if err := tenancy.AuthorizeStatus(tenant); err != nil {
			return access.Caller{}, fmt.Errorf("auth.Identify: %w", err)
		}
	}

	return access.Caller{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}, nil
}

// Profile is the caller's own user record and tenant.
type Profile struct {
	User   *domain.User
	Tenant *domain.Tenant // nil for platform users
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, caller access.Caller) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.Me: %w", ErrUserGone)
		}
		return nil, fmt.Errorf("auth.Me: %w", err)
	}

	p := &Profile{User: user}
	if caller.TenantID != uuid.Nil {
		p.Tenant, err = s.store.Tenants().GetByID(ctx, caller.TenantID)
		if err != nil {
			return nil, fmt.Errorf("auth.Me: %w", err)
		}
	}
	return p, nil
}
