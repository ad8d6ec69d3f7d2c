package forum

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	forumsvc "serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		Count int `json:"count"`
	} `json:"metadata"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB, *domain.Identity) {
	db := testutil.NewDB(t)
	h := &Handlers{Service: &forumsvc.Service{DB: db, Roles: roles.NewResolver(db, []string{testutil.SuperAdminEmail})}}
	user := testutil.CreateUser(t, db, "writer@example.com")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "1" {
			middleware.SetIdentity(c, user)
		}
		return c.Next()
	})
	app.Get("/posts", h.ListPosts)
	app.Post("/posts", h.CreatePost)
	app.Get("/posts/:id", h.GetPost)
	app.Get("/posts/:id/comments", h.ListComments)
	app.Post("/posts/:id/comments", h.AddComment)
	app.Get("/trending", h.Trending)
	return app, db, user
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, signedIn bool) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if signedIn {
		req.Header.Set("X-User", "1")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestCreatePostAndComment(t *testing.T) {
	app, _, _ := setup(t)
	post := fiber.Map{"title": "Cleanup day", "content": "Bring gloves", "tags": []string{"river"}}

	code, _ := call(t, app, "POST", "/posts", post, false)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, env := call(t, app, "POST", "/posts", post, true)
	require.Equal(t, fiber.StatusCreated, code)
	var created forumsvc.PostView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Writer", created.AuthorName)

	code, _ = call(t, app, "POST", "/posts/"+created.ID.String()+"/comments", fiber.Map{"text": "  "}, true)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = call(t, app, "POST", "/posts/"+created.ID.String()+"/comments", fiber.Map{"text": "See you there"}, true)
	assert.Equal(t, fiber.StatusCreated, code)

	code, env = call(t, app, "GET", "/posts?tag=river", nil, false)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 1, env.Metadata.Count)
	var posts []forumsvc.PostView
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].CommentCount)

	code, env = call(t, app, "GET", "/posts/"+created.ID.String()+"/comments", nil, false)
	require.Equal(t, fiber.StatusOK, code)
	var comments []forumsvc.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "See you there", comments[0].Text)
}

func TestCreatePost_RequiresTag(t *testing.T) {
	app, _, _ := setup(t)
	code, _ := call(t, app, "POST", "/posts", fiber.Map{"title": "t", "content": "c"}, true)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestGetPost_NotFoundAndBadID(t *testing.T) {
	app, _, _ := setup(t)
	code, _ := call(t, app, "GET", "/posts/"+uuid.NewString(), nil, false)
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = call(t, app, "GET", "/posts/nope", nil, false)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestTrending_OrdersByComments(t *testing.T) {
	app, db, user := setup(t)
	quiet := testutil.CreatePost(t, db, user.ID, "quiet", "a")
	busy := testutil.CreatePost(t, db, user.ID, "busy", "a")
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&domain.Comment{UserID: user.ID, PostID: busy.ID, Text: "hi"}).Error)
	}
	require.NoError(t, db.Create(&domain.Comment{UserID: user.ID, PostID: quiet.ID, Text: "hi"}).Error)

	code, env := call(t, app, "GET", "/trending?limit=1", nil, false)
	require.Equal(t, fiber.StatusOK, code)
	var posts []forumsvc.PostView
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, busy.ID, posts[0].ID)
}
