package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/seed"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/tenancy"
)

const testSecret = "test-secret-key-very-long-and-secure-0123"

type recorder struct {
	entries []domain.AuditEntry
}

func (r *recorder) Record(_ context.Context, e domain.AuditEntry) { r.entries = append(r.entries, e) }

type fixture struct {
	store *memory.Store
	creds *credential.Store
	svc   *auth.Service
	rec   *recorder
	seed  *seed.Result
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	creds := credential.New(credential.Argon2id{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, testSecret, 0)
	res, err := seed.Run(context.Background(), store, creds)
	require.NoError(t, err)

	rec := &recorder{}
	reg := tenancy.NewRegistry(store, creds, audit.Discard)
	return &fixture{
		store: store,
		creds: creds,
		svc:   auth.NewService(store, reg, creds, rec, nil),
		rec:   rec,
		seed:  res,
	}
}

func TestLogin_DemoScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	t.Run("valid credentials", func(t *testing.T) {
		s, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, seed.DemoAdminPassword)
		require.NoError(t, err)
		assert.Equal(t, 86400, s.ExpiresIn)
		assert.Equal(t, f.seed.Tenant.ID, s.Tenant.ID)

		id, err := f.creds.Verify(s.Token)
		require.NoError(t, err)
		assert.Equal(t, f.seed.Tenant.ID, id.TenantID)
		assert.Equal(t, domain.RoleTenantAdmin, id.Role)

		require.NotEmpty(t, f.rec.entries)
		last := f.rec.entries[len(f.rec.entries)-1]
		assert.Equal(t, domain.ActionLogin, last.Action)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "DEMO", "Admin@Demo.com", seed.DemoAdminPassword)
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, "Demo@124")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "demo", "nobody@demo.com", seed.DemoAdminPassword)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "ghost", seed.DemoAdminEmail, seed.DemoAdminPassword)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("tenant admin cannot log in as platform", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "", seed.DemoAdminEmail, seed.DemoAdminPassword)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("platform login", func(t *testing.T) {
		s, err := f.svc.Login(ctx, "", seed.SuperAdminEmail, seed.SuperAdminPassword)
		require.NoError(t, err)
		assert.Nil(t, s.Tenant)
		assert.Equal(t, domain.RoleSuperAdmin, s.User.Role)
	})
}

func TestLogin_SuspendedTenant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	tenant := *f.seed.Tenant
	tenant.Status = domain.TenantStatusSuspended
	require.NoError(t, f.store.Tenants().Update(ctx, &tenant))

	_, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, seed.DemoAdminPassword)
	require.ErrorIs(t, err, domain.ErrTenantSuspended)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_InactiveUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	admin := *f.seed.Admin
	admin.IsActive = false
	require.NoError(t, f.store.Users().Update(ctx, &admin))

	_, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, seed.DemoAdminPassword)
	require.ErrorIs(t, err, domain.ErrUserInactive)

	_, err = f.svc.Login(ctx, "demo", seed.DemoAdminEmail, "wrong-password")
	require.ErrorIs(t, err, domain.ErrUnauthenticated, "password is checked before activity")
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	s, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, seed.DemoAdminPassword)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		c, err := f.svc.Identify(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, f.seed.Admin.ID, c.UserID)
		assert.Equal(t, f.seed.Tenant.ID, c.TenantID)
		assert.Equal(t, domain.RoleTenantAdmin, c.Role)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.Identify(ctx, "garbage")
		require.ErrorIs(t, err, credential.ErrInvalidCredential)
	})

	t.Run("live role wins over token", func(t *testing.T) {
		u, err := f.store.Users().GetByEmail(ctx, f.seed.Tenant.ID, "user2@demo.com")
		require.NoError(t, err)
		ss, err := f.svc.Login(ctx, "demo", "user2@demo.com", seed.DemoUserPassword)
		require.NoError(t, err)

		u.Role = domain.RoleTenantAdmin
		require.NoError(t, f.store.Users().Update(ctx, u))

		c, err := f.svc.Identify(ctx, ss.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleTenantAdmin, c.Role)
	})

	t.Run("deleted user", func(t *testing.T) {
		u, err := f.store.Users().GetByEmail(ctx, f.seed.Tenant.ID, "user1@demo.com")
		require.NoError(t, err)
		ss, err := f.svc.Login(ctx, "demo", "user1@demo.com", seed.DemoUserPassword)
		require.NoError(t, err)

		require.NoError(t, f.store.Users().Delete(ctx, f.seed.Tenant.ID, u.ID))

		_, err = f.svc.Identify(ctx, ss.Token)
		require.ErrorIs(t, err, auth.ErrUserGone)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("token for a user that never existed", func(t *testing.T) {
		token, err := f.creds.Issue(&domain.User{ID: uuid.New(), TenantID: f.seed.Tenant.ID, Role: domain.RoleUser})
		require.NoError(t, err)

		_, err = f.svc.Identify(ctx, token)
		require.ErrorIs(t, err, auth.ErrUserGone)
	})

	t.Run("suspended tenant", func(t *testing.T) {
		tenant := *f.seed.Tenant
		tenant.Status = domain.TenantStatusSuspended
		require.NoError(t, f.store.Tenants().Update(ctx, &tenant))
		defer func() {
			tenant.Status = domain.TenantStatusActive
			require.NoError(t, f.store.Tenants().Update(ctx, &tenant))
		}()

		_, err := f.svc.Identify(ctx, s.Token)
		require.ErrorIs(t, err, domain.ErrTenantSuspended)
	})
}

func TestMe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	s, err := f.svc.Login(ctx, "demo", seed.DemoAdminEmail, seed.DemoAdminPassword)
	require.NoError(t, err)
	c, err := f.svc.Identify(ctx, s.Token)
	require.NoError(t, err)

	p, err := f.svc.Me(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, seed.DemoAdminEmail, p.User.Email)
	require.NotNil(t, p.Tenant)
	assert.Equal(t, "demo", p.Tenant.Subdomain)

	ps, err := f.svc.Login(ctx, "", seed.SuperAdminEmail, seed.SuperAdminPassword)
	require.NoError(t, err)
	pc, err := f.svc.Identify(ctx, ps.Token)
	require.NoError(t, err)

	pp, err := f.svc.Me(ctx, pc)
	require.NoError(t, err)
	assert.Nil(t, pp.Tenant)
}
