package forum

import (
	"context"
	"errors"
	"sort"
	"strings"

	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	fanOutLimit          = 8
	DefaultTrendingLimit = 5
)

type Service struct {
	DB        *gorm.DB
	Roles     *roles.Resolver
	Readiness *database.Readiness
}

type PostView struct {
	domain.Post
	AuthorName   string `json:"author_name"`
	CommentCount int64  `json:"comment_count"`
}

type CommentView struct {
	domain.Comment
	AuthorName string `json:"author_name"`
}

type Contributor struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
}

type CreatePostInput struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Tags    domain.Tags `json:"tags"`
}

// CreatePost stores a post and links it to every tagged organization the author
// administers or belongs to. Tags naming other organizations stay plain tags.
func (s *Service) CreatePost(ctx context.Context, id *domain.Identity, in CreatePostInput) (*PostView, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if !validation.Required(title, content) {
		return nil, ErrTitleContentRequired
	}
	if !validation.MaxLen(content, validation.MaxPostLength) {
		return nil, ErrContentTooLong
	}
	tags := domain.NewTags(in.Tags)
	if len(tags) == 0 {
		return nil, ErrTagRequired
	}
	if err := s.Readiness.Require(domain.Post{}.TableName()); err != nil {
		return nil, err
	}

	post := &domain.Post{UserID: id.ID, Title: title, Content: content, Tags: tags}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		var orgs []domain.Nonprofit
		if err := tx.Where("name IN ?", []string(tags)).Find(&orgs).Error; err != nil {
			return err
		}
		for _, org := range orgs {
			var linkable bool
			// A failed check rolls back to its savepoint and leaves the post unlinked.
			err := tx.Transaction(func(sp *gorm.DB) error {
				var err error
				linkable, err = s.canLink(sp, id, org.ID)
				return err
			})
			if err != nil {
				log.Warn().Err(err).Str("nonprofit_id", org.ID.String()).Msg("forum: link check failed, post left unlinked")
				continue
			}
			if !linkable {
				continue
			}
			if err := tx.Create(&domain.PostOrganization{PostID: post.ID, NonprofitID: org.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PostView{Post: *post, AuthorName: s.authorNames(ctx, []uuid.UUID{id.ID})[id.ID]}, nil
}

func (s *Service) canLink(tx *gorm.DB, id *domain.Identity, orgID uuid.UUID) (bool, error) {
	if s.Roles.IsSuperAdmin(id) {
		return true, nil
	}
	var n int64
	if err := tx.Model(&domain.OrganizationAdmin{}).Where("user_id = ? AND nonprofit_id = ?", id.ID, orgID).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&domain.NonprofitMember{}).Where("user_id = ? AND nonprofit_id = ?", id.ID, orgID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPosts returns posts newest first, optionally restricted to an exact tag.
func (s *Service) ListPosts(ctx context.Context, tag string) ([]PostView, error) {
	if !s.Readiness.Ready(domain.Post{}.TableName()) {
		return []PostView{}, nil
	}
	var posts []domain.Post
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("forum: post list failed, returning empty list")
			return []PostView{}, nil
		}
		return nil, err
	}
	tag = strings.TrimSpace(tag)
	if tag != "" {
		filtered := posts[:0]
		for _, p := range posts {
			if p.Tags.Contains(tag) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}
	return s.enrich(ctx, posts), nil
}

func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (*PostView, error) {
	var post domain.Post
	if err := s.DB.WithContext(ctx).Where("id = ?", postID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	views := s.enrich(ctx, []domain.Post{post})
	return &views[0], nil
}

// ListComments returns a post's comments oldest first.
func (s *Service) ListComments(ctx context.Context, postID uuid.UUID) ([]CommentView, error) {
	var comments []domain.Comment
	if err := s.DB.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		if database.IsSoftFailure(err) {
			return []CommentView{}, nil
		}
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	names := s.authorNames(ctx, ids)
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentView{Comment: c, AuthorName: names[c.UserID]})
	}
	return out, nil
}

func (s *Service) AddComment(ctx context.Context, id *domain.Identity, postID uuid.UUID, text string) (*CommentView, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrPostNotFound
	}
	c := &domain.Comment{UserID: id.ID, PostID: postID, Text: text}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return &CommentView{Comment: *c, AuthorName: s.authorNames(ctx, []uuid.UUID{id.ID})[id.ID]}, nil
}

// GetOrgPosts returns the forum of one organization with comment counts.
func (s *Service) GetOrgPosts(ctx context.Context, orgID uuid.UUID) ([]PostView, error) {
	var org domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	posts, err := OrgPosts(ctx, s.DB, &org)
	if err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("forum: org posts failed, returning empty list")
			return []PostView{}, nil
		}
		return nil, err
	}
	return s.enrich(ctx, posts), nil
}

// TrendingPosts orders posts by comment count, newest first on ties.
func (s *Service) TrendingPosts(ctx context.Context, limit int) ([]PostView, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	views, err := s.ListPosts(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].CommentCount > views[j].CommentCount })
	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

func (s *Service) TopContributors(ctx context.Context, limit int) ([]Contributor, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	var rows []struct {
		UserID    uuid.UUID
		PostCount int64
	}
	err := s.DB.WithContext(ctx).Model(&domain.Post{}).
		Select("user_id, COUNT(*) AS post_count").
		Group("user_id").
		Order("post_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		if database.IsSoftFailure(err) {
			return []Contributor{}, nil
		}
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	names := s.authorNames(ctx, ids)
	out := make([]Contributor, 0, len(rows))
	for _, r := range rows {
		out = append(out, Contributor{UserID: r.UserID, Name: names[r.UserID], PostCount: r.PostCount})
	}
	return out, nil
}

// enrich attaches author names and per-post comment counts. A failed count is 0.
func (s *Service) enrich(ctx context.Context, posts []domain.Post) []PostView {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	names := s.authorNames(ctx, ids)
	counts := CommentCounts(ctx, s.DB, posts)

	out := make([]PostView, len(posts))
	for i, p := range posts {
		out[i] = PostView{Post: p, AuthorName: names[p.UserID], CommentCount: counts[i]}
	}
	return out
}

// CommentCounts counts comments per post with bounded parallelism. Results are
// index-aligned with posts.
func CommentCounts(ctx context.Context, db *gorm.DB, posts []domain.Post) []int64 {
	counts := make([]int64, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i := range posts {
		i := i
		g.Go(func() error {
			var n int64
			err := db.WithContext(gctx).Model(&domain.Comment{}).Where("post_id = ?", posts[i].ID).Count(&n).Error
			if err != nil {
				log.Warn().Err(err).Str("post_id", posts[i].ID.String()).Msg("forum: comment count failed")
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

func (s *Service) authorNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	var profiles []domain.Profile
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		log.Warn().Err(err).Msg("forum: author lookup failed")
	}
	for _, p := range profiles {
		names[p.ID] = p.DisplayName()
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = domain.DisplayName(id, "", nil)
		}
	}
	return names
}
