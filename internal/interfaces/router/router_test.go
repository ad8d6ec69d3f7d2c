package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"serviceloop-backend/internal/config"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newApp(t *testing.T) *fiber.App {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	cfg := &config.Config{
		Env:              "test",
		SuperAdminEmails: []string{testutil.SuperAdminEmail},
		ChatRateLimit:    5,
		HealthAdminKey:   "hk",
	}
	return Build(Deps{Config: cfg, DB: db, Rdb: rdb})
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie string) (*http.Response, envelope) {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func signUp(t *testing.T, app *fiber.App, email string) string {
	resp, _ := do(t, app, "POST", "/api/v1/auth/signup", fiber.Map{"email": email, "password": "secret1"}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func TestHealthJSON(t *testing.T) {
	app := newApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Status string `json:"status"`
		Schema struct {
			Ready bool `json:"ready"`
		} `json:"schema"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.True(t, out.Schema.Ready)

	resp, _ = do(t, app, "GET", "/reset?key=wrong", nil, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = do(t, app, "GET", "/reset?key=hk", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandler_ServesNetHTTP(t *testing.T) {
	h := Handler(newApp(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health/json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Service string `json:"service"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "serviceloop-api", out.Service)
}

func TestChatRoute(t *testing.T) {
	app := newApp(t)

	resp, err := app.Test(httptest.NewRequest("OPTIONS", "/api/v1/chat", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	for _, body := range []string{`{"message":"hi"}`, `{"message":42}`} {
		req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode, body)
		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Gemini API key not configured", out["error"], body)
	}
}

func TestAdminRoutesRequireSuperAdmin(t *testing.T) {
	app := newApp(t)
	resp, _ := do(t, app, "GET", "/api/v1/admin/metrics", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	user := signUp(t, app, "vol@example.com")
	resp, _ = do(t, app, "GET", "/api/v1/admin/metrics", nil, user)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	root := signUp(t, app, testutil.SuperAdminEmail)
	resp, env := do(t, app, "GET", "/api/v1/admin/metrics", nil, root)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var m struct {
		Users int64 `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, int64(2), m.Users)
}

func TestRequestApprovalToOrgForum(t *testing.T) {
	app := newApp(t)
	founder := signUp(t, app, "founder@example.com")
	root := signUp(t, app, testutil.SuperAdminEmail)

	resp, env := do(t, app, "POST", "/api/v1/org-requests", fiber.Map{
		"org_name": "Riverbank Trust", "category": "Environment", "mission": "Clean rivers",
	}, founder)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, _ = do(t, app, "GET", "/api/v1/org-requests/pending", nil, founder)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env = do(t, app, "POST", "/api/v1/org-requests/"+created.ID+"/approve", nil, root)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var outcome struct {
		Nonprofit struct {
			ID string `json:"id"`
		} `json:"nonprofit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	orgID := outcome.Nonprofit.ID
	require.NotEmpty(t, orgID)

	resp, _ = do(t, app, "POST", "/api/v1/org-requests/"+created.ID+"/approve", nil, root)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/forum/posts", fiber.Map{
		"title": "Cleanup day", "content": "Bring gloves", "tags": []string{"Riverbank Trust"},
	}, founder)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env = do(t, app, "GET", "/api/v1/orgs/"+orgID+"/posts", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var posts []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Cleanup day", posts[0].Title)

	resp, _ = do(t, app, "GET", "/api/v1/orgs/"+orgID+"/members", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = do(t, app, "GET", "/api/v1/orgs/"+orgID+"/members", nil, founder)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/api/v1/orgs/not-a-uuid/admins", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
