package orgadmin

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	forumsvc "serviceloop-backend/internal/application/forum"
	adminsvc "serviceloop-backend/internal/application/orgadmin"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app      *fiber.App
	org      *domain.Nonprofit
	admin    *domain.Identity
	outsider *domain.Identity
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t)
	r := roles.NewResolver(db, []string{testutil.SuperAdminEmail})
	h := &Handlers{
		Service: &adminsvc.Service{DB: db, Roles: r},
		Forum:   &forumsvc.Service{DB: db, Roles: r},
	}
	f := fixture{
		org:      testutil.CreateNonprofit(t, db, "Riverbank Trust"),
		admin:    testutil.CreateUser(t, db, "admin@example.com"),
		outsider: testutil.CreateUser(t, db, "outsider@example.com"),
	}
	testutil.MakeAdmin(t, db, f.admin.ID, f.org.ID)
	testutil.CreateUser(t, db, "helper@example.com")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		switch c.Get("X-As") {
		case "admin":
			middleware.SetIdentity(c, f.admin)
		case "outsider":
			middleware.SetIdentity(c, f.outsider)
		}
		return c.Next()
	})
	app.Get("/orgs/:id/admins", h.Admins)
	app.Post("/orgs/:id/admins", h.AddAdmin)
	app.Patch("/orgs/:id", h.Update)
	app.Post("/orgs/:id/events", h.CreateEvent)
	app.Get("/orgs/:id/events", h.Events)
	app.Get("/orgs/:id/stats", h.Stats)
	f.app = app
	return f
}

func (f fixture) call(t *testing.T, method, path, as string, body interface{}) (int, json.RawMessage) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("X-As", as)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env.Data
}

func TestAddAdminByEmail(t *testing.T) {
	f := setup(t)
	path := "/orgs/" + f.org.ID.String() + "/admins"

	code, _ := f.call(t, "POST", path, "outsider", fiber.Map{"email": "helper@example.com"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = f.call(t, "POST", path, "admin", fiber.Map{"email": "nobody@example.com"})
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = f.call(t, "POST", path, "admin", fiber.Map{"email": "  Helper@Example.com "})
	assert.Equal(t, fiber.StatusCreated, code)

	code, data := f.call(t, "GET", path, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var admins []adminsvc.AdminView
	require.NoError(t, json.Unmarshal(data, &admins))
	assert.Len(t, admins, 2)
}

func TestUpdateOrg(t *testing.T) {
	f := setup(t)
	path := "/orgs/" + f.org.ID.String()

	code, _ := f.call(t, "PATCH", path, "admin", fiber.Map{"unknown": "x"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = f.call(t, "PATCH", path, "admin", fiber.Map{"name": "  "})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, data := f.call(t, "PATCH", path, "admin", fiber.Map{"mission": " Restore wetlands "})
	require.Equal(t, fiber.StatusOK, code)
	var res adminsvc.UpdateResult
	require.NoError(t, json.Unmarshal(data, &res))
	require.NotNil(t, res.Org)
	assert.Equal(t, "Restore wetlands", res.Org.Mission)
}

func TestCreateEventAndStats(t *testing.T) {
	f := setup(t)
	base := "/orgs/" + f.org.ID.String()

	code, _ := f.call(t, "POST", base+"/events", "admin", fiber.Map{"title": "Cleanup"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	event := fiber.Map{"title": "Cleanup", "description": "Bring gloves", "date": "2026-11-01T09:00:00Z"}
	code, _ = f.call(t, "POST", base+"/events", "outsider", event)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = f.call(t, "POST", base+"/events", "admin", event)
	assert.Equal(t, fiber.StatusCreated, code)

	code, data := f.call(t, "GET", base+"/stats", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var st adminsvc.Stats
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, int64(1), st.Events)
	assert.Equal(t, int64(1), st.Admins)
}

func TestBadOrgID(t *testing.T) {
	f := setup(t)
	code, _ := f.call(t, "GET", "/orgs/xyz/events", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
