package admin

import (
	"context"
	"errors"
	"time"

	"serviceloop-backend/internal/application/auditlog"
	"serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const fanOutLimit = 8

// Service backs the platform admin dashboard. Every method requires a super admin.
type Service struct {
	DB        *gorm.DB
	Roles     *roles.Resolver
	Readiness *database.Readiness
	Logs      *auditlog.Service
}

type SystemMetrics struct {
	Nonprofits      int64 `json:"nonprofits"`
	Users           int64 `json:"users"`
	Events          int64 `json:"events"`
	Posts           int64 `json:"posts"`
	Comments        int64 `json:"comments"`
	PendingRequests int64 `json:"pending_requests"`
}

type UserStats struct {
	Posts         int64 `json:"posts"`
	Events        int64 `json:"events"`
	Organizations int64 `json:"organizations"`
}

type UserWithStats struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	Stats     UserStats `json:"stats"`
}

// count runs one COUNT for the aggregate views. Failures are logged and read as 0.
func count(ctx context.Context, db *gorm.DB, name string, model interface{}, query string, args ...interface{}) int64 {
	var n int64
	q := db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		log.Warn().Err(err).Str("count", name).Msg("admin: count failed, using 0")
		return 0
	}
	return n
}

// GetSystemMetrics runs six independent counts in parallel.
func (s *Service) GetSystemMetrics(ctx context.Context, id *domain.Identity) (*SystemMetrics, error) {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return nil, err
	}
	var m SystemMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	g.Go(func() error { m.Nonprofits = count(gctx, s.DB, "nonprofits", &domain.Nonprofit{}, ""); return nil })
	g.Go(func() error { m.Users = count(gctx, s.DB, "profiles", &domain.Profile{}, ""); return nil })
	g.Go(func() error { m.Events = count(gctx, s.DB, "events", &domain.Event{}, ""); return nil })
	g.Go(func() error { m.Posts = count(gctx, s.DB, "posts", &domain.Post{}, ""); return nil })
	g.Go(func() error { m.Comments = count(gctx, s.DB, "comments", &domain.Comment{}, ""); return nil })
	g.Go(func() error {
		m.PendingRequests = count(gctx, s.DB, "pending_requests", &domain.OrgRequest{},
			"(status IS NULL OR status = '' OR LOWER(status) = ?)", domain.RequestStatusPending)
		return nil
	})
	_ = g.Wait()
	return &m, nil
}

// GetAllUsersWithStats issues three counts per profile through a bounded pool.
func (s *Service) GetAllUsersWithStats(ctx context.Context, id *domain.Identity) ([]UserWithStats, error) {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return nil, err
	}
	var profiles []domain.Profile
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	out := make([]UserWithStats, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, p := range profiles {
		i, p := i, p
		out[i] = UserWithStats{ID: p.ID, Email: p.Email, FullName: p.FullName, CreatedAt: p.CreatedAt}
		g.Go(func() error {
			out[i].Stats.Posts = count(gctx, s.DB, "user_posts", &domain.Post{}, "user_id = ?", p.ID)
			return nil
		})
		g.Go(func() error {
			out[i].Stats.Events = count(gctx, s.DB, "user_signups", &domain.VolunteerSignup{}, "user_id = ?", p.ID)
			return nil
		})
		g.Go(func() error {
			out[i].Stats.Organizations = count(gctx, s.DB, "user_memberships", &domain.NonprofitMember{}, "user_id = ?", p.ID)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (s *Service) GetAdminLogs(ctx context.Context, id *domain.Identity, limit int) ([]domain.AdminAction, error) {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return nil, err
	}
	return s.Logs.Recent(ctx, limit)
}

// GetAllOrganizations lists every organization newest first, empty when not provisioned.
func (s *Service) GetAllOrganizations(ctx context.Context, id *domain.Identity) ([]domain.Nonprofit, error) {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return nil, err
	}
	out := []domain.Nonprofit{}
	if !s.Readiness.Ready(domain.Nonprofit{}.TableName()) {
		return out, nil
	}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("admin: nonprofits unavailable, returning empty list")
			return []domain.Nonprofit{}, nil
		}
		return nil, err
	}
	return out, nil
}

// step runs one cleanup statement in its own savepoint. A failure rolls back only
// that step and is logged; the cascade carries on.
func step(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, name string, fn func(sp *gorm.DB) error) {
	err := tx.WithContext(ctx).Transaction(fn)
	if err != nil {
		log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Str("step", name).Msg("admin: org cleanup step failed, continuing")
	}
}

// DeleteOrganization removes an organization and everything hanging off it in one
// transaction. Cleanup steps are best effort; the nonprofit delete is not.
func (s *Service) DeleteOrganization(ctx context.Context, orgID uuid.UUID, id *domain.Identity) error {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return err
	}
	var org domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrgNotFound
		}
		return err
	}
	log.Info().Str("nonprofit_id", orgID.String()).Str("org_name", org.Name).Msg("admin: deleting organization")

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		step(ctx, tx, orgID, "admins", func(sp *gorm.DB) error {
			return sp.Where("nonprofit_id = ?", orgID).Delete(&domain.OrganizationAdmin{}).Error
		})
		step(ctx, tx, orgID, "members", func(sp *gorm.DB) error {
			return sp.Where("nonprofit_id = ?", orgID).Delete(&domain.NonprofitMember{}).Error
		})
		step(ctx, tx, orgID, "signups", func(sp *gorm.DB) error {
			return sp.Where("event_id IN (?)", sp.Model(&domain.Event{}).Select("id").Where("nonprofit_id = ?", orgID)).
				Delete(&domain.VolunteerSignup{}).Error
		})
		step(ctx, tx, orgID, "events", func(sp *gorm.DB) error {
			return sp.Where("nonprofit_id = ?", orgID).Delete(&domain.Event{}).Error
		})

		var postIDs []uuid.UUID
		step(ctx, tx, orgID, "find_posts", func(sp *gorm.DB) error {
			posts, err := forum.OrgPosts(ctx, sp, &org)
			for _, p := range posts {
				postIDs = append(postIDs, p.ID)
			}
			return err
		})
		if len(postIDs) > 0 {
			step(ctx, tx, orgID, "comments", func(sp *gorm.DB) error {
				return sp.Where("post_id IN ?", postIDs).Delete(&domain.Comment{}).Error
			})
		}
		step(ctx, tx, orgID, "post_links", func(sp *gorm.DB) error {
			q := sp.Where("nonprofit_id = ?", orgID)
			if len(postIDs) > 0 {
				q = sp.Where("nonprofit_id = ? OR post_id IN ?", orgID, postIDs)
			}
			return q.Delete(&domain.PostOrganization{}).Error
		})
		if len(postIDs) > 0 {
			step(ctx, tx, orgID, "posts", func(sp *gorm.DB) error {
				return sp.Where("id IN ?", postIDs).Delete(&domain.Post{}).Error
			})
		}

		if err := tx.Where("id = ?", orgID).Delete(&domain.Nonprofit{}).Error; err != nil {
			log.Error().Err(err).Str("nonprofit_id", orgID.String()).Msg("admin: organization delete failed")
			return err
		}
		auditlog.Record(ctx, tx, auditlog.Entry{
			Actor:      id,
			ActionType: domain.ActionOrgDeleted,
			TargetID:   orgID.String(),
			TargetType: constants.TargetOrganization,
			Details:    map[string]interface{}{"org_name": org.Name},
		})
		return nil
	})
}

// RemoveUserFromOrg deletes a membership and records the action.
func (s *Service) RemoveUserFromOrg(ctx context.Context, userID, orgID uuid.UUID, id *domain.Identity) error {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return err
	}
	return s.mutateRelation(ctx, id, userID, orgID, domain.ActionUserRemovedFromOrg, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND nonprofit_id = ?", userID, orgID).Delete(&domain.NonprofitMember{}).Error
	})
}

func (s *Service) PromoteToOrgAdmin(ctx context.Context, userID, orgID uuid.UUID, id *domain.Identity) error {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return err
	}
	return s.mutateRelation(ctx, id, userID, orgID, domain.ActionUserPromotedToAdmin, func(tx *gorm.DB) error {
		addedBy := id.ID
		err := tx.Create(&domain.OrganizationAdmin{UserID: userID, NonprofitID: orgID, AddedBy: &addedBy}).Error
		if database.IsUniqueViolation(err) {
			return ErrAlreadyOrgAdmin
		}
		return err
	})
}

// DemoteOrgAdmin refuses self-demotion before the super-admin check, like orgadmin.RemoveAdmin.
func (s *Service) DemoteOrgAdmin(ctx context.Context, userID, orgID uuid.UUID, id *domain.Identity) error {
	if id != nil && userID == id.ID {
		return ErrCannotDemoteSelf
	}
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return err
	}
	return s.mutateRelation(ctx, id, userID, orgID, domain.ActionUserDemotedFromAdmin, func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND nonprofit_id = ?", userID, orgID).Delete(&domain.OrganizationAdmin{}).Error
	})
}

func (s *Service) mutateRelation(ctx context.Context, actor *domain.Identity, userID, orgID uuid.UUID, action string, fn func(tx *gorm.DB) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		auditlog.Record(ctx, tx, auditlog.Entry{
			Actor:      actor,
			ActionType: action,
			TargetID:   userID.String(),
			TargetType: constants.TargetUser,
			Details:    map[string]interface{}{"nonprofit_id": orgID.String()},
		})
		return nil
	})
}
