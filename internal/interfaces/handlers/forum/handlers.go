package forum

import (
	forumsvc "serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const maxListLimit = 50

type Handlers struct {
	Service *forumsvc.Service
}

// ListPosts GET /api/v1/forum/posts?tag=
func (h *Handlers) ListPosts(c *fiber.Ctx) error {
	posts, err := h.Service.ListPosts(c.UserContext(), c.Query("tag"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Posts fetched", posts, fiber.Map{"count": len(posts)})
}

// CreatePost POST /api/v1/forum/posts
func (h *Handlers) CreatePost(c *fiber.Ctx) error {
	var in forumsvc.CreatePostInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	post, err := h.Service.CreatePost(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Post created", post, nil)
}

// GetPost GET /api/v1/forum/posts/:id
func (h *Handlers) GetPost(c *fiber.Ctx) error {
	postID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	post, err := h.Service.GetPost(c.UserContext(), postID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Post fetched", post, nil)
}

// ListComments GET /api/v1/forum/posts/:id/comments
func (h *Handlers) ListComments(c *fiber.Ctx) error {
	postID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	comments, err := h.Service.ListComments(c.UserContext(), postID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Comments fetched", comments, nil)
}

type commentRequest struct {
	Text string `json:"text"`
}

// AddComment POST /api/v1/forum/posts/:id/comments
func (h *Handlers) AddComment(c *fiber.Ctx) error {
	postID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	comment, err := h.Service.AddComment(c.UserContext(), middleware.CurrentIdentity(c), postID, req.Text)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Comment added", comment, nil)
}

// Trending GET /api/v1/forum/trending?limit=
func (h *Handlers) Trending(c *fiber.Ctx) error {
	posts, err := h.Service.TrendingPosts(c.UserContext(), params.Limit(c, forumsvc.DefaultTrendingLimit, maxListLimit))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Trending posts fetched", posts, nil)
}

// TopContributors GET /api/v1/forum/top-contributors?limit=
func (h *Handlers) TopContributors(c *fiber.Ctx) error {
	users, err := h.Service.TopContributors(c.UserContext(), params.Limit(c, forumsvc.DefaultTrendingLimit, maxListLimit))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Top contributors fetched", users, nil)
}
