package orgadmin

import (
	"context"
	"errors"
	"strings"
	"time"

	"serviceloop-backend/internal/application/forum"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Service covers the back office of one organization. Every mutation checks
// IsOrgAdmin before it reads or writes anything else.
type Service struct {
	DB        *gorm.DB
	Roles     *roles.Resolver
	Readiness *database.Readiness
}

type AdminView struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberView struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName *string   `json:"full_name"`
	JoinedAt time.Time `json:"joined_at"`
}

type AdminOrganization struct {
	domain.Nonprofit
	AdminSince time.Time `json:"admin_since"`
}

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    *string   `json:"location"`
	ImageURL    *string   `json:"image_url"`
}

type UpdateResult struct {
	// Org is nil when the read-back after the update failed.
	Org *domain.Nonprofit `json:"org"`
}

type Stats struct {
	Members     int64 `json:"members"`
	Admins      int64 `json:"admins"`
	Posts       int64 `json:"posts"`
	Events      int64 `json:"events"`
	Engagements int64 `json:"engagements"`
}

var updatableFields = map[string]bool{
	"name":          true,
	"category":      true,
	"mission":       true,
	"contact_email": true,
	"image_url":     true,
}

// AddAdminByEmail grants admin on orgID to the profile with that email. Re-adding an
// existing admin is a no-op that still returns the user id.
func (s *Service) AddAdminByEmail(ctx context.Context, email string, orgID uuid.UUID, acting *domain.Identity) (uuid.UUID, error) {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return uuid.Nil, err
	}
	email = validation.NormalizeEmail(email)
	if email == "" {
		return uuid.Nil, ErrEmailRequired
	}
	if err := s.Readiness.Require(domain.OrganizationAdmin{}.TableName()); err != nil {
		return uuid.Nil, err
	}
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("LOWER(email) = ?", email).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrUserNotFoundByEmail
		}
		return uuid.Nil, err
	}
	addedBy := acting.ID
	err := s.DB.WithContext(ctx).Create(&domain.OrganizationAdmin{UserID: p.ID, NonprofitID: orgID, AddedBy: &addedBy}).Error
	if err != nil && !database.IsUniqueViolation(err) {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// RemoveAdmin refuses self-removal before consulting the resolver.
func (s *Service) RemoveAdmin(ctx context.Context, userID, orgID uuid.UUID, acting *domain.Identity) error {
	if err := roles.RequireAuth(acting); err != nil {
		return err
	}
	if userID == acting.ID {
		return ErrCannotRemoveSelf
	}
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND nonprofit_id = ?", userID, orgID).
		Delete(&domain.OrganizationAdmin{}).Error
}

// GetOrgAdmins is a public roster, oldest admin first.
func (s *Service) GetOrgAdmins(ctx context.Context, orgID uuid.UUID) ([]AdminView, error) {
	var rows []domain.OrganizationAdmin
	if err := s.DB.WithContext(ctx).Where("nonprofit_id = ?", orgID).Order("created_at ASC").Find(&rows).Error; err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("orgadmin: admin roster unavailable")
			return []AdminView{}, nil
		}
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	profiles := s.profiles(ctx, ids)
	out := make([]AdminView, 0, len(rows))
	for _, r := range rows {
		v := AdminView{UserID: r.UserID, CreatedAt: r.CreatedAt}
		if p, ok := profiles[r.UserID]; ok {
			v.Email, v.FullName = p.Email, p.FullName
		}
		out = append(out, v)
	}
	return out, nil
}

// GetMyAdminOrganizations lists organizations the caller holds an admin row for.
func (s *Service) GetMyAdminOrganizations(ctx context.Context, id *domain.Identity) ([]AdminOrganization, error) {
	if id == nil {
		return []AdminOrganization{}, nil
	}
	var rows []domain.OrganizationAdmin
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.ID).Order("created_at DESC").Find(&rows).Error; err != nil {
		if database.IsSoftFailure(err) {
			return []AdminOrganization{}, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return []AdminOrganization{}, nil
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
	out := make([]AdminOrganization, 0, len(rows))
	for _, r := range rows {
		if o, ok := byID[r.NonprofitID]; ok {
			out = append(out, AdminOrganization{Nonprofit: o, AdminSince: r.CreatedAt})
		}
	}
	return out, nil
}

// GetOrgMembers lists members newest first. Admin only.
func (s *Service) GetOrgMembers(ctx context.Context, orgID uuid.UUID, acting *domain.Identity) ([]MemberView, error) {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return nil, err
	}
	var rows []domain.NonprofitMember
	if err := s.DB.WithContext(ctx).Where("nonprofit_id = ?", orgID).Order("joined_at DESC").Find(&rows).Error; err != nil {
		if database.IsSoftFailure(err) {
			return []MemberView{}, nil
		}
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	profiles := s.profiles(ctx, ids)
	out := make([]MemberView, 0, len(rows))
	for _, r := range rows {
		v := MemberView{UserID: r.UserID, JoinedAt: r.JoinedAt}
		if p, ok := profiles[r.UserID]; ok {
			v.Email, v.FullName = p.Email, p.FullName
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) RemoveMember(ctx context.Context, userID, orgID uuid.UUID, acting *domain.Identity) error {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND nonprofit_id = ?", userID, orgID).
		Delete(&domain.NonprofitMember{}).Error
}

func (s *Service) CreateEvent(ctx context.Context, orgID uuid.UUID, in EventInput, acting *domain.Identity) (*domain.Event, error) {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if !validation.Required(title, desc) || in.Date.IsZero() {
		return nil, ErrEventFieldsRequired
	}
	if !validation.MaxLen(desc, validation.MaxEventDescLength) {
		return nil, ErrDescriptionTooLong
	}
	if err := s.Readiness.Require(domain.Event{}.TableName()); err != nil {
		return nil, err
	}
	ev := &domain.Event{
		NonprofitID: orgID,
		Title:       title,
		Description: desc,
		Date:        in.Date,
		Location:    trimmed(in.Location),
		ImageURL:    trimmed(in.ImageURL),
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// DeleteOrgEvent only deletes an event owned by orgID, so an admin of one
// organization cannot remove another's event by id.
func (s *Service) DeleteOrgEvent(ctx context.Context, eventID, orgID uuid.UUID, acting *domain.Identity) error {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return err
	}
	var ev domain.Event
	if err := s.DB.WithContext(ctx).Where("id = ? AND nonprofit_id = ?", eventID, orgID).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotInOrg
		}
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", ev.ID).Delete(&domain.VolunteerSignup{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND nonprofit_id = ?", ev.ID, orgID).Delete(&domain.Event{}).Error
	})
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID.String()).Str("nonprofit_id", orgID.String()).Msg("orgadmin: event delete failed")
		if database.IsPermissionDenied(err) {
			return ErrEventDeleteDenied
		}
		return err
	}
	return nil
}

// DeleteOrgPost removes a post from the organization's forum along with its comments.
func (s *Service) DeleteOrgPost(ctx context.Context, postID, orgID uuid.UUID, acting *domain.Identity) error {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return err
	}
	org, err := s.org(ctx, orgID)
	if err != nil {
		return err
	}
	posts, err := forum.OrgPosts(ctx, s.DB, org)
	if err != nil {
		return err
	}
	found := false
	for _, p := range posts {
		if p.ID == postID {
			found = true
			break
		}
	}
	if !found {
		return ErrPostNotInOrg
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&domain.PostOrganization{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", postID).Delete(&domain.Post{}).Error
	})
}

// UpdateOrgDetails applies whitelisted fields, then reads the row back separately.
// A failed read-back still counts as a successful update.
func (s *Service) UpdateOrgDetails(ctx context.Context, orgID uuid.UUID, updates map[string]interface{}, acting *domain.Identity) (*UpdateResult, error) {
	if err := s.Roles.RequireOrgAdmin(ctx, acting, orgID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	for k, v := range updates {
		if !updatableFields[k] {
			continue
		}
		if str, ok := v.(string); ok {
			v = strings.TrimSpace(str)
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil, ErrNoUpdateFields
	}
	if name, ok := fields["name"]; ok {
		if str, _ := name.(string); str == "" {
			return nil, ErrNameRequired
		}
	}
	if mission, ok := fields["mission"].(string); ok && !validation.MaxLen(mission, validation.MaxMissionLength) {
		return nil, ErrMissionTooLong
	}

	res := s.DB.WithContext(ctx).Model(&domain.Nonprofit{}).Where("id = ?", orgID).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrgNotFound
	}

	var org domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("orgadmin: read-back after update failed")
		return &UpdateResult{}, nil
	}
	return &UpdateResult{Org: &org}, nil
}

// GetOrgEvents returns the organization's events, latest date first.
func (s *Service) GetOrgEvents(ctx context.Context, orgID uuid.UUID) ([]domain.Event, error) {
	out := []domain.Event{}
	if err := s.DB.WithContext(ctx).Where("nonprofit_id = ?", orgID).Order("date DESC").Find(&out).Error; err != nil {
		if database.IsSoftFailure(err) {
			return []domain.Event{}, nil
		}
		return nil, err
	}
	return out, nil
}

// GetOrgStats never fails: any error yields all-zero stats. Engagements counts each
// forum post plus its comments.
func (s *Service) GetOrgStats(ctx context.Context, orgID uuid.UUID) Stats {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&domain.NonprofitMember{}).Where("nonprofit_id = ?", orgID).Count(&st.Members).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&domain.OrganizationAdmin{}).Where("nonprofit_id = ?", orgID).Count(&st.Admins).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&domain.Event{}).Where("nonprofit_id = ?", orgID).Count(&st.Events).Error
	})
	var posts []domain.Post
	g.Go(func() error {
		org, err := s.org(gctx, orgID)
		if err != nil {
			return err
		}
		posts, err = forum.OrgPosts(gctx, s.DB, org)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Str("nonprofit_id", orgID.String()).Msg("orgadmin: stats failed")
		return Stats{}
	}
	st.Posts = int64(len(posts))
	for _, n := range forum.CommentCounts(ctx, s.DB, posts) {
		st.Engagements += n + 1
	}
	return st
}

func (s *Service) org(ctx context.Context, orgID uuid.UUID) (*domain.Nonprofit, error) {
	var org domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Service) profiles(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]domain.Profile {
	out := make(map[uuid.UUID]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out
	}
	var rows []domain.Profile
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		log.Warn().Err(err).Msg("orgadmin: profile lookup failed")
		return out
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
