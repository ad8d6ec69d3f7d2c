package nonprofits

import (
	"context"
	"errors"
	"strings"
	"time"

	"serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB        *gorm.DB
	Roles     *roles.Resolver
	Readiness *database.Readiness
	Forum     *forum.Service
}

// Detail is the organization page: the row plus member count, events and forum posts.
type Detail struct {
	domain.Nonprofit
	MemberCount int64            `json:"member_count"`
	Events      []domain.Event   `json:"events"`
	Posts       []forum.PostView `json:"posts"`
}

type Membership struct {
	IsMember bool   `json:"is_member"`
	IsAdmin  bool   `json:"is_admin"`
	Role     string `json:"role"`
}

type JoinResult struct {
	AlreadyMember bool `json:"already_member"`
}

type MyOrganization struct {
	domain.Nonprofit
	JoinedAt time.Time `json:"joined_at"`
}

// List returns organizations by name, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]domain.Nonprofit, error) {
	out := []domain.Nonprofit{}
	if !s.Readiness.Ready(domain.Nonprofit{}.TableName()) {
		return out, nil
	}
	q := s.DB.WithContext(ctx).Order("name ASC")
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}
	if err := q.Find(&out).Error; err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("nonprofits: list failed, returning empty list")
			return []domain.Nonprofit{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*Detail, error) {
	var np domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&np).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNonprofitNotFound
		}
		return nil, err
	}
	d := &Detail{Nonprofit: np, Events: []domain.Event{}, Posts: []forum.PostView{}}
	d.MemberCount = s.MemberCount(ctx, orgID)
	if err := s.DB.WithContext(ctx).Where("nonprofit_id = ?", orgID).Order("date ASC").Find(&d.Events).Error; err != nil {
		log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("nonprofits: events unavailable")
	}
	if s.Forum != nil {
		posts, err := s.Forum.GetOrgPosts(ctx, orgID)
		if err != nil {
			log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("nonprofits: posts unavailable")
		} else {
			d.Posts = posts
		}
	}
	return d, nil
}

// MemberCount counts membership rows. Errors count as zero.
func (s *Service) MemberCount(ctx context.Context, orgID uuid.UUID) int64 {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.NonprofitMember{}).Where("nonprofit_id = ?", orgID).Count(&n).Error; err != nil {
		log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("nonprofits: member count failed")
		return 0
	}
	return n
}

// Join is self-service. Joining twice reports AlreadyMember instead of failing.
func (s *Service) Join(ctx context.Context, id *domain.Identity, orgID uuid.UUID) (*JoinResult, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	if err := s.Readiness.Require(domain.NonprofitMember{}.TableName()); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Nonprofit{}).Where("id = ?", orgID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNonprofitNotFound
	}
	err := s.DB.WithContext(ctx).Create(&domain.NonprofitMember{UserID: id.ID, NonprofitID: orgID}).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return &JoinResult{AlreadyMember: true}, nil
		}
		return nil, err
	}
	return &JoinResult{}, nil
}

func (s *Service) Leave(ctx context.Context, id *domain.Identity, orgID uuid.UUID) error {
	if err := roles.RequireAuth(id); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND nonprofit_id = ?", id.ID, orgID).
		Delete(&domain.NonprofitMember{}).Error
}

// MyOrganizations lists the caller's memberships, most recently joined first.
func (s *Service) MyOrganizations(ctx context.Context, id *domain.Identity) ([]MyOrganization, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	out := []MyOrganization{}
	var rows []domain.NonprofitMember
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.ID).Order("joined_at DESC").Find(&rows).Error; err != nil {
		if database.IsSoftFailure(err) {
			return out, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.NonprofitID)
	}
	var orgs []domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&orgs).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Nonprofit, len(orgs))
	for _, o := range orgs {
		byID[o.ID] = o
	}
	for _, r := range rows {
		if o, ok := byID[r.NonprofitID]; ok {
			out = append(out, MyOrganization{Nonprofit: o, JoinedAt: r.JoinedAt})
		}
	}
	return out, nil
}

// Membership reports both relations independently; an admin is not implicitly a member.
func (s *Service) Membership(ctx context.Context, id *domain.Identity, orgID uuid.UUID) (*Membership, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.NonprofitMember{}).
		Where("user_id = ? AND nonprofit_id = ?", id.ID, orgID).Count(&n).Error; err != nil && !database.IsSoftFailure(err) {
		return nil, err
	}
	m := &Membership{IsMember: n > 0, IsAdmin: s.Roles.IsOrgAdmin(ctx, id, orgID)}
	switch {
	case s.Roles.IsSuperAdmin(id):
		m.Role = constants.SuperAdmin
	case m.IsAdmin:
		m.Role = constants.OrgAdmin
	case m.IsMember:
		m.Role = constants.Member
	default:
		m.Role = constants.Visitor
	}
	return m, nil
}
