package v1_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

// ---------------------------------------------------------------------------
// POST /projects
// ---------------------------------------------------------------------------

func TestCreateProject(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.user), "/projects", map[string]any{
			"name":        "Website",
			"description": "Relaunch",
		})

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		body := decode[domain.Project](t, resp)
		assert.True(t, body.Success)
		assert.Equal(t, "Website", body.Data.Name)
		assert.Equal(t, domain.ProjectStatusActive, body.Data.Status)
		assert.Equal(t, env.acme.tenant.ID, body.Data.TenantID)
		assert.Equal(t, env.acme.user.UserID, body.Data.CreatedBy)
	})

	t.Run("missing_name", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.user), "/projects", map[string]any{"description": "no name"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("blank_name", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.user), "/projects", map[string]any{"name": "   "})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.False(t, decodeError(t, resp).Success)
	})

	t.Run("plan_limit", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		for _, name := range []string{"one", "two", "three"} {
			env.createProject(t, env.acme.admin, name)
		}

		resp := env.api.PostCtx(as(env.acme.admin), "/projects", map[string]any{"name": "four"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "Project limit reached for your plan (Max: 3)", decodeError(t, resp).Message)

		// Other tenants have their own allowance.
		resp = env.api.PostCtx(as(env.globex.admin), "/projects", map[string]any{"name": "four"})
		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("super_admin_cannot_write", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.super), "/projects", map[string]any{"name": "Platform"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.Post("/projects", map[string]any{"name": "anon"})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("store_error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockProjectService{
			createFunc: func(context.Context, access.Caller, service.CreateProjectInput) (*domain.Project, error) {
				return nil, errors.New("db: connection refused")
			},
		})

		resp := api.PostCtx(as(access.Caller{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleUser}), "/projects", map[string]any{"name": "x"})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "internal server error", decodeError(t, resp).Message)
	})
}

// ---------------------------------------------------------------------------
// GET /projects
// ---------------------------------------------------------------------------

func TestListProjects(t *testing.T) {
	t.Parallel()

	t.Run("scoped_to_caller_tenant", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.createProject(t, env.acme.user, "Acme Alpha")
		env.createProject(t, env.acme.user, "Acme Beta")
		env.createProject(t, env.globex.user, "Globex Alpha")

		resp := env.api.GetCtx(as(env.acme.user), "/projects")

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		body := decode[v1.List[domain.Project]](t, resp)
		assert.Equal(t, 2, body.Data.Total)
		assert.Equal(t, 50, body.Data.Limit)
		assert.Equal(t, 0, body.Data.Offset)
		for _, p := range body.Data.Items {
			assert.Equal(t, env.acme.tenant.ID, p.TenantID)
		}
	})

	t.Run("search_and_status", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.createProject(t, env.acme.user, "Website relaunch")
		id := env.createProject(t, env.acme.user, "Mobile app")
		archived := domain.ProjectStatusArchived
		resp := env.api.PutCtx(as(env.acme.user), "/projects/"+id.String(), map[string]any{"status": archived})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		resp = env.api.GetCtx(as(env.acme.user), "/projects?search=WEBSITE")
		require.Equal(t, http.StatusOK, resp.Code)
		body := decode[v1.List[domain.Project]](t, resp)
		require.Len(t, body.Data.Items, 1)
		assert.Equal(t, "Website relaunch", body.Data.Items[0].Name)

		resp = env.api.GetCtx(as(env.acme.user), "/projects?status=archived")
		require.Equal(t, http.StatusOK, resp.Code)
		body = decode[v1.List[domain.Project]](t, resp)
		require.Len(t, body.Data.Items, 1)
		assert.Equal(t, id, body.Data.Items[0].ID)
	})

	t.Run("paging", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.createProject(t, env.acme.user, "one")
		env.createProject(t, env.acme.user, "two")

		resp := env.api.GetCtx(as(env.acme.user), "/projects?limit=1&offset=1")
		require.Equal(t, http.StatusOK, resp.Code)
		body := decode[v1.List[domain.Project]](t, resp)
		assert.Len(t, body.Data.Items, 1)
		assert.Equal(t, 1, body.Data.Limit)
		assert.Equal(t, 1, body.Data.Offset)
	})

	t.Run("limit_out_of_range", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.GetCtx(as(env.acme.user), "/projects?limit=500")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("foreign_tenant_id_is_ignored", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.createProject(t, env.globex.user, "Globex secret")

		resp := env.api.GetCtx(as(env.acme.user), "/projects?tenantId="+env.globex.tenant.ID.String())

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, decode[v1.List[domain.Project]](t, resp).Data.Items)
	})

	t.Run("super_admin_needs_tenant_id", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.createProject(t, env.globex.user, "Globex")

		resp := env.api.GetCtx(as(env.super), "/projects")
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = env.api.GetCtx(as(env.super), "/projects?tenantId="+env.globex.tenant.ID.String())
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, decode[v1.List[domain.Project]](t, resp).Data.Items, 1)
	})

	t.Run("malformed_tenant_id", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.GetCtx(as(env.super), "/projects?tenantId=not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "tenantId must be a UUID", decodeError(t, resp).Message)
	})
}

// ---------------------------------------------------------------------------
// GET /projects/{id}
// ---------------------------------------------------------------------------

func TestGetProject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.createProject(t, env.acme.user, "Website")

	t.Run("same_tenant", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.acme.admin), "/projects/"+id.String())
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		body := decode[domain.Project](t, resp)
		assert.Equal(t, "Website", body.Data.Name)
		assert.Equal(t, "Member acme", body.Data.CreatorName)
	})

	t.Run("other_tenant_sees_not_found", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.globex.admin), "/projects/"+id.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "project not found", decodeError(t, resp).Message)
	})

	t.Run("absent_looks_the_same", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.acme.admin), "/projects/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "project not found", decodeError(t, resp).Message)
	})
}

// ---------------------------------------------------------------------------
// PUT /projects/{id}
// ---------------------------------------------------------------------------

func TestUpdateProject(t *testing.T) {
	t.Parallel()

	t.Run("creator_updates", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")

		resp := env.api.PutCtx(as(env.acme.user), "/projects/"+id.String(), map[string]any{"name": "Website v2"})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		body := decode[domain.Project](t, resp)
		assert.Equal(t, "Website v2", body.Data.Name)
		assert.Equal(t, domain.ProjectStatusActive, body.Data.Status)
	})

	t.Run("admin_updates_any", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")

		resp := env.api.PutCtx(as(env.acme.admin), "/projects/"+id.String(), map[string]any{"status": "completed"})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, domain.ProjectStatusCompleted, decode[domain.Project](t, resp).Data.Status)
	})

	t.Run("other_member_forbidden", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.admin, "Admin project")

		resp := env.api.PutCtx(as(env.acme.user), "/projects/"+id.String(), map[string]any{"name": "mine now"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("invalid_status", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")

		resp := env.api.PutCtx(as(env.acme.user), "/projects/"+id.String(), map[string]any{"status": "paused"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("other_tenant_sees_not_found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")

		resp := env.api.PutCtx(as(env.globex.admin), "/projects/"+id.String(), map[string]any{"name": "pwned"})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// DELETE /projects/{id}
// ---------------------------------------------------------------------------

func TestDeleteProject(t *testing.T) {
	t.Parallel()

	t.Run("removes_project_and_tasks", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")
		taskID := env.createTask(t, env.acme.user, id, map[string]any{"title": "Copy"})

		resp := env.api.DeleteCtx(as(env.acme.user), "/projects/"+id.String())

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		deleted := decode[any](t, resp)
		assert.True(t, deleted.Success)
		assert.Equal(t, "Project deleted successfully", deleted.Message)

		resp = env.api.GetCtx(as(env.acme.user), "/projects/"+id.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)
		resp = env.api.GetCtx(as(env.acme.user), "/tasks/"+taskID.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("frees_plan_slot", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		var last uuid.UUID
		for _, name := range []string{"one", "two", "three"} {
			last = env.createProject(t, env.acme.admin, name)
		}
		resp := env.api.DeleteCtx(as(env.acme.admin), "/projects/"+last.String())
		require.Equal(t, http.StatusOK, resp.Code)

		resp = env.api.PostCtx(as(env.acme.admin), "/projects", map[string]any{"name": "four"})
		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("other_tenant_sees_not_found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		id := env.createProject(t, env.acme.user, "Website")

		resp := env.api.DeleteCtx(as(env.globex.admin), "/projects/"+id.String())
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = env.api.GetCtx(as(env.acme.user), "/projects/"+id.String())
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}
