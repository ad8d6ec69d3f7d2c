package events

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	eventsvc "serviceloop-backend/internal/application/events"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		IsSignedUp bool `json:"is_signed_up"`
	} `json:"metadata"`
}

func TestSignupFlow(t *testing.T) {
	db := testutil.NewDB(t)
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	ev := &domain.Event{NonprofitID: org.ID, Title: "Cleanup", Description: "Gloves", Date: time.Now().Add(48 * time.Hour)}
	require.NoError(t, db.Create(ev).Error)
	user := testutil.CreateUser(t, db, "v@example.com")

	h := &Handlers{Service: &eventsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "1" {
			middleware.SetIdentity(c, user)
		}
		return c.Next()
	})
	app.Get("/events/:id", h.Get)
	app.Post("/events/:id/signups", h.Signup)
	app.Delete("/events/:id/signups", h.Cancel)

	call := func(method, path string, signedIn bool) (int, envelope) {
		req := httptest.NewRequest(method, path, nil)
		if signedIn {
			req.Header.Set("X-User", "1")
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return resp.StatusCode, env
	}
	path := "/events/" + ev.ID.String()

	code, _ := call("POST", path+"/signups", false)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = call("POST", path+"/signups", true)
	assert.Equal(t, fiber.StatusCreated, code)
	code, env := call("POST", path+"/signups", true)
	assert.Equal(t, fiber.StatusOK, code)
	var res eventsvc.SignupResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.AlreadyJoined)

	code, env = call("GET", path, true)
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, env.Metadata.IsSignedUp)
	var detail eventsvc.EventDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, int64(1), detail.VolunteerCount)
	require.NotNil(t, detail.Organization)
	assert.Equal(t, "Riverbank Trust", detail.Organization.Name)

	code, env = call("GET", path, false)
	require.Equal(t, fiber.StatusOK, code)
	assert.False(t, env.Metadata.IsSignedUp)

	code, _ = call("DELETE", path+"/signups", true)
	assert.Equal(t, fiber.StatusOK, code)
	code, env = call("GET", path, true)
	require.Equal(t, fiber.StatusOK, code)
	assert.False(t, env.Metadata.IsSignedUp)

	code, _ = call("POST", "/events/"+uuid.NewString()+"/signups", true)
	assert.Equal(t, fiber.StatusNotFound, code)
}
