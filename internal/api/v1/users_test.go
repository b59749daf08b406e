package v1_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/domain"
)

// ---------------------------------------------------------------------------
// POST /users
// ---------------------------------------------------------------------------

func TestCreateUser(t *testing.T) {
	t.Parallel()

	newUser := func(email string) map[string]any {
		return map[string]any{"email": email, "password": "Secret@123", "fullName": "New Hire"}
	}

	t.Run("admin_creates_member", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.admin), "/users", newUser("Hire@Acme.io"))

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		body := decode[domain.User](t, resp)
		assert.Equal(t, "hire@acme.io", body.Data.Email)
		assert.Equal(t, domain.RoleUser, body.Data.Role)
		assert.Equal(t, env.acme.tenant.ID, body.Data.TenantID)
		assert.True(t, body.Data.IsActive)
		assert.NotContains(t, resp.Body.String(), "password")
	})

	t.Run("same_email_in_other_tenant_is_fine", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.globex.admin), "/users", newUser("member@acme.io"))

		assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	})

	t.Run("duplicate_email_in_tenant", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.admin), "/users", newUser("MEMBER@acme.io"))

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "email already exists in this tenant", decodeError(t, resp).Message)
	})

	t.Run("member_forbidden", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PostCtx(as(env.acme.user), "/users", newUser("hire@acme.io"))

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("super_admin_role_rejected", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		body := newUser("root@acme.io")
		body["role"] = "super_admin"
		resp := env.api.PostCtx(as(env.acme.admin), "/users", body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("plan_limit", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		// The free plan allows five users; admin and member exist already.
		for _, email := range []string{"a@acme.io", "b@acme.io", "c@acme.io"} {
			resp := env.api.PostCtx(as(env.acme.admin), "/users", newUser(email))
			require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		}

		resp := env.api.PostCtx(as(env.acme.admin), "/users", newUser("d@acme.io"))

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "User limit reached for your plan (Max: 5)", decodeError(t, resp).Message)
	})
}

// ---------------------------------------------------------------------------
// GET /users, GET /users/{userId}
// ---------------------------------------------------------------------------

func TestListUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	t.Run("scoped_to_tenant", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.acme.user), "/users")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		body := decode[v1.List[domain.User]](t, resp)
		assert.Equal(t, 2, body.Data.Total)
		for _, u := range body.Data.Items {
			assert.Equal(t, env.acme.tenant.ID, u.TenantID)
		}
	})

	t.Run("role_filter", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.acme.admin), "/users?role=tenant_admin")
		require.Equal(t, http.StatusOK, resp.Code)
		body := decode[v1.List[domain.User]](t, resp)
		require.Len(t, body.Data.Items, 1)
		assert.Equal(t, env.acme.admin.UserID, body.Data.Items[0].ID)
	})

	t.Run("search_matches_name_or_email", func(t *testing.T) {
		t.Parallel()

		resp := env.api.GetCtx(as(env.acme.admin), "/users?search=MEMBER@")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Len(t, decode[v1.List[domain.User]](t, resp).Data.Items, 1)

		resp = env.api.GetCtx(as(env.acme.admin), "/users?search=admin%20ACME")
		require.Equal(t, http.StatusOK, resp.Code)
		require.Len(t, decode[v1.List[domain.User]](t, resp).Data.Items, 1)
	})
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	resp := env.api.GetCtx(as(env.acme.user), "/users/"+env.acme.admin.UserID.String())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, domain.RoleTenantAdmin, decode[domain.User](t, resp).Data.Role)

	resp = env.api.GetCtx(as(env.globex.admin), "/users/"+env.acme.user.UserID.String())
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "user not found", decodeError(t, resp).Message)

	resp = env.api.GetCtx(as(env.super), "/users/"+env.acme.user.UserID.String()+"?tenantId="+env.acme.tenant.ID.String())
	assert.Equal(t, http.StatusOK, resp.Code)
}

// ---------------------------------------------------------------------------
// PUT /users/{userId}
// ---------------------------------------------------------------------------

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	t.Run("self_changes_name_and_password", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PutCtx(as(env.acme.user), "/users/"+env.acme.user.UserID.String(), map[string]any{
			"fullName": "Renamed",
			"password": "NewSecret@456",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "Renamed", decode[domain.User](t, resp).Data.FullName)

		resp = env.api.Post("/auth/login", map[string]any{
			"email": "member@acme.io", "password": "NewSecret@456", "tenantSubdomain": "acme",
		})
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("self_cannot_promote", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PutCtx(as(env.acme.user), "/users/"+env.acme.user.UserID.String(), map[string]any{"role": "tenant_admin"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("member_cannot_edit_others", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PutCtx(as(env.acme.user), "/users/"+env.acme.admin.UserID.String(), map[string]any{"fullName": "x"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin_deactivates_member", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PutCtx(as(env.acme.admin), "/users/"+env.acme.user.UserID.String(), map[string]any{"isActive": false})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.False(t, decode[domain.User](t, resp).Data.IsActive)

		resp = env.api.Post("/auth/login", map[string]any{
			"email": "member@acme.io", "password": "Secret@123", "tenantSubdomain": "acme",
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("other_tenant_sees_not_found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.PutCtx(as(env.globex.admin), "/users/"+env.acme.user.UserID.String(), map[string]any{"role": "tenant_admin"})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// DELETE /users/{userId}
// ---------------------------------------------------------------------------

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("unassigns_tasks", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		pid := env.createProject(t, env.acme.admin, "Website")
		tid := env.createTask(t, env.acme.admin, pid, map[string]any{"title": "Copy", "assignedTo": env.acme.user.UserID.String()})

		resp := env.api.DeleteCtx(as(env.acme.admin), "/users/"+env.acme.user.UserID.String())
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		deleted := decode[any](t, resp)
		assert.True(t, deleted.Success)
		assert.Equal(t, "User deleted successfully", deleted.Message)

		resp = env.api.GetCtx(as(env.acme.admin), "/tasks/"+tid.String())
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Nil(t, decode[domain.Task](t, resp).Data.AssignedTo)
	})

	t.Run("cannot_delete_self", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.DeleteCtx(as(env.acme.admin), "/users/"+env.acme.admin.UserID.String())

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("member_forbidden", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.DeleteCtx(as(env.acme.user), "/users/"+env.acme.admin.UserID.String())

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("other_tenant_sees_not_found", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		resp := env.api.DeleteCtx(as(env.globex.admin), "/users/"+env.acme.user.UserID.String())

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
