package v1_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/quota"
	"github.com/gosuda/taskhub/internal/seed"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/tenancy"
)

const testSecret = "test-secret-key-very-long-and-secure-0123"

// ---------------------------------------------------------------------------
// Fixture: every route mounted on a humatest API over the in-memory store,
// with two tenants registered.
// ---------------------------------------------------------------------------

type member struct {
	tenant *domain.Tenant
	admin  access.Caller
	user   access.Caller
}

type testEnv struct {
	api      humatest.TestAPI
	store    *memory.Store
	registry *tenancy.Registry
	users    *service.Users
	super    access.Caller
	acme     member
	globex   member
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	_, api := humatest.New(t)

	store := memory.New()
	creds := credential.New(credential.Argon2id{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, testSecret, time.Hour)
	reg := tenancy.NewRegistry(store, creds, audit.Discard)
	guard := quota.NewGuard(nil)
	users := service.NewUsers(store, guard, creds, audit.Discard)

	v1.RegisterAuthRoutes(api, reg, auth.NewService(store, reg, creds, audit.Discard, nil))
	v1.RegisterSessionRoutes(api, auth.NewService(store, reg, creds, audit.Discard, nil))
	v1.RegisterTenantRoutes(api, reg)
	v1.RegisterProjectRoutes(api, service.NewProjects(store, guard, audit.Discard))
	v1.RegisterTaskRoutes(api, service.NewTasks(store, audit.Discard))
	v1.RegisterUserRoutes(api, users)
	v1.RegisterAuditLogRoutes(api, service.NewAuditLog(store))

	seeded, err := seed.Run(ctx, store, creds)
	require.NoError(t, err)

	env := &testEnv{
		api:      api,
		store:    store,
		registry: reg,
		users:    users,
		super:    access.Caller{UserID: seeded.SuperAdmin.ID, Role: domain.RoleSuperAdmin},
	}

	mk := func(subdomain string) member {
		out, err := reg.Register(ctx, tenancy.Registration{
			TenantName: subdomain, Subdomain: subdomain,
			AdminEmail: "admin@" + subdomain + ".io", AdminPassword: "Secret@123", AdminFullName: "Admin " + subdomain,
		})
		require.NoError(t, err)
		admin := access.Caller{UserID: out.Admin.ID, TenantID: out.Tenant.ID, Role: domain.RoleTenantAdmin}

		u, err := users.Create(ctx, admin, service.CreateUserInput{
			Email: "member@" + subdomain + ".io", Password: "Secret@123", FullName: "Member " + subdomain,
		})
		require.NoError(t, err)
		return member{
			tenant: out.Tenant,
			admin:  admin,
			user:   access.Caller{UserID: u.ID, TenantID: out.Tenant.ID, Role: domain.RoleUser},
		}
	}
	env.acme = mk("acme")
	env.globex = mk("globex")
	return env
}

// as returns a request context authenticated as c.
func as(c access.Caller) context.Context {
	return middleware.WithCaller(context.Background(), c)
}

// createProject creates a project through the API and returns its ID.
func (e *testEnv) createProject(t *testing.T, c access.Caller, name string) uuid.UUID {
	t.Helper()
	resp := e.api.PostCtx(as(c), "/projects", map[string]any{"name": name})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decode[domain.Project](t, resp).Data.ID
}

// createTask creates a task through the API and returns its ID.
func (e *testEnv) createTask(t *testing.T, c access.Caller, projectID uuid.UUID, body map[string]any) uuid.UUID {
	t.Helper()
	resp := e.api.PostCtx(as(c), "/projects/"+projectID.String()+"/tasks", body)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decode[domain.Task](t, resp).Data.ID
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) v1.Envelope[T] {
	t.Helper()
	var env v1.Envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) v1.ErrorEnvelope {
	t.Helper()
	var env v1.ErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// ---------------------------------------------------------------------------
// Mock services for failure paths the real services cannot produce.
// ---------------------------------------------------------------------------

type mockProjectService struct {
	createFunc func(ctx context.Context, c access.Caller, in service.CreateProjectInput) (*domain.Project, error)
	getFunc    func(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Project, error)
	listFunc   func(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error)
	updateFunc func(ctx context.Context, c access.Caller, id uuid.UUID, patch service.ProjectPatch) (*domain.Project, error)
	deleteFunc func(ctx context.Context, c access.Caller, id uuid.UUID) error
}

func (m *mockProjectService) Create(ctx context.Context, c access.Caller, in service.CreateProjectInput) (*domain.Project, error) {
	return m.createFunc(ctx, c, in)
}

func (m *mockProjectService) Get(ctx context.Context, c access.Caller, tenantID, id uuid.UUID) (*domain.Project, error) {
	return m.getFunc(ctx, c, tenantID, id)
}

func (m *mockProjectService) List(ctx context.Context, c access.Caller, tenantID uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, error) {
	return m.listFunc(ctx, c, tenantID, filter)
}

func (m *mockProjectService) Update(ctx context.Context, c access.Caller, id uuid.UUID, patch service.ProjectPatch) (*domain.Project, error) {
	return m.updateFunc(ctx, c, id, patch)
}

func (m *mockProjectService) Delete(ctx context.Context, c access.Caller, id uuid.UUID) error {
	return m.deleteFunc(ctx, c, id)
}

type mockAuthService struct {
	loginFunc func(ctx context.Context, subdomain, email, password string) (*auth.Session, error)
	meFunc    func(ctx context.Context, caller access.Caller) (*auth.Profile, error)
}

func (m *mockAuthService) Login(ctx context.Context, subdomain, email, password string) (*auth.Session, error) {
	return m.loginFunc(ctx, subdomain, email, password)
}

func (m *mockAuthService) Me(ctx context.Context, caller access.Caller) (*auth.Profile, error) {
	return m.meFunc(ctx, caller)
}
