package profiles

import (
	"context"
	"errors"
	"sort"
	"time"

	"serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	recentPostsLimit    = 5
	recentJoinsLimit    = 3
	recentActivityLimit = 10
)

type Service struct {
	DB *gorm.DB
}

type Stats struct {
	EventsAttended      int64 `json:"events_attended"`
	PostsCreated        int64 `json:"posts_created"`
	CommentsMade        int64 `json:"comments_made"`
	OrganizationsJoined int64 `json:"organizations_joined"`
}

type Activity struct {
	Type string    `json:"type"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type Dashboard struct {
	Profile        *domain.Profile  `json:"profile"`
	Stats          Stats            `json:"stats"`
	RecentPosts    []forum.PostView `json:"recent_posts"`
	RecentActivity []Activity       `json:"recent_activity"`
}

// Dashboard gathers the signed-in user's counters and recent activity. Individual
// failures leave their section empty.
func (s *Service) Dashboard(ctx context.Context, id *domain.Identity) (*Dashboard, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	d := &Dashboard{RecentPosts: []forum.PostView{}, RecentActivity: []Activity{}}

	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", id.ID).First(&p).Error; err == nil {
		d.Profile = &p
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Str("user_id", id.ID.String()).Msg("profiles: profile lookup failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	counters := []struct {
		dst   *int64
		model interface{}
	}{
		{&d.Stats.EventsAttended, &domain.VolunteerSignup{}},
		{&d.Stats.PostsCreated, &domain.Post{}},
		{&d.Stats.CommentsMade, &domain.Comment{}},
		{&d.Stats.OrganizationsJoined, &domain.NonprofitMember{}},
	}
	for _, c := range counters {
		c := c
		g.Go(func() error {
			if err := s.DB.WithContext(gctx).Model(c.model).Where("user_id = ?", id.ID).Count(c.dst).Error; err != nil {
				log.Warn().Err(err).Str("user_id", id.ID.String()).Msg("profiles: counter failed")
				*c.dst = 0
			}
			return nil
		})
	}
	_ = g.Wait()

	var posts []domain.Post
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.ID).Order("created_at DESC").Limit(recentPostsLimit).Find(&posts).Error; err == nil {
		name := domain.DisplayName(id.ID, id.Email, nil)
		if d.Profile != nil {
			name = d.Profile.DisplayName()
		}
		counts := forum.CommentCounts(ctx, s.DB, posts)
		for i, post := range posts {
			d.RecentPosts = append(d.RecentPosts, forum.PostView{Post: post, AuthorName: name, CommentCount: counts[i]})
		}
	}

	d.RecentActivity = s.recentActivity(ctx, id.ID)
	return d, nil
}

func (s *Service) recentActivity(ctx context.Context, userID uuid.UUID) []Activity {
	out := []Activity{}

	var signups []domain.VolunteerSignup
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC").Limit(recentJoinsLimit).Find(&signups).Error; err == nil && len(signups) > 0 {
		ids := make([]uuid.UUID, 0, len(signups))
		for _, su := range signups {
			ids = append(ids, su.EventID)
		}
		titles := map[uuid.UUID]string{}
		var events []domain.Event
		s.DB.WithContext(ctx).Select("id, title").Where("id IN ?", ids).Find(&events)
		for _, e := range events {
			titles[e.ID] = e.Title
		}
		for _, su := range signups {
			title, ok := titles[su.EventID]
			if !ok {
				title = "Unknown Event"
			}
			out = append(out, Activity{Type: "event", Text: "Joined event: " + title, Date: su.Timestamp})
		}
	}

	var joins []domain.NonprofitMember
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("joined_at DESC").Limit(recentJoinsLimit).Find(&joins).Error; err == nil && len(joins) > 0 {
		ids := make([]uuid.UUID, 0, len(joins))
		for _, j := range joins {
			ids = append(ids, j.NonprofitID)
		}
		names := map[uuid.UUID]string{}
		var orgs []domain.Nonprofit
		s.DB.WithContext(ctx).Select("id, name").Where("id IN ?", ids).Find(&orgs)
		for _, o := range orgs {
			names[o.ID] = o.Name
		}
		for _, j := range joins {
			name, ok := names[j.NonprofitID]
			if !ok {
				name = "Unknown"
			}
			out = append(out, Activity{Type: "organization", Text: "Joined organization: " + name, Date: j.JoinedAt})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > recentActivityLimit {
		out = out[:recentActivityLimit]
	}
	return out
}
