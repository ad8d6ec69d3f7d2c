package orgrequests

import (
	"context"
	"errors"
	"strings"
	"time"

	"serviceloop-backend/internal/application/auditlog"
	"serviceloop-backend/internal/application/emails"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/constants"
	"serviceloop-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const pendingClause = "(status IS NULL OR status = '' OR LOWER(status) = 'pending')"

var approvalTables = []string{"org_creation_requests", "nonprofits", "organization_admins"}

type Service struct {
	DB        *gorm.DB
	Roles     *roles.Resolver
	Readiness *database.Readiness
	Notifier  emails.Sender
}

type CreateInput struct {
	OrgName      string  `json:"org_name"`
	Category     string  `json:"category"`
	Mission      string  `json:"mission"`
	ContactEmail *string `json:"contact_email"`
	ImageURL     *string `json:"image_url"`
}

// Requester is the profile attached to a pending request for review.
type Requester struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

type PendingRequest struct {
	domain.OrgRequest
	Requester *Requester `json:"requester"`
}

// Outcome is what a review returns so the caller can notify without reading twice.
type Outcome struct {
	Request        *domain.OrgRequest `json:"request"`
	Nonprofit      *domain.Nonprofit  `json:"nonprofit,omitempty"`
	RequesterEmail string             `json:"-"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Create files a pending request for any signed-in user.
func (s *Service) Create(ctx context.Context, id *domain.Identity, in CreateInput) (*domain.OrgRequest, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.OrgName)
	category := strings.TrimSpace(in.Category)
	mission := strings.TrimSpace(in.Mission)
	if !validation.Required(name, category, mission) {
		return nil, ErrMissingFields
	}
	if !validation.MaxLen(mission, validation.MaxMissionLength) {
		return nil, ErrMissionTooLong
	}
	contact := optional(in.ContactEmail)
	if contact != nil && !validation.IsValidEmail(*contact) {
		return nil, ErrInvalidContactEmail
	}
	if err := s.Readiness.Require(domain.OrgRequest{}.TableName()); err != nil {
		return nil, err
	}
	status := domain.RequestStatusPending
	req := &domain.OrgRequest{
		UserID:       id.ID,
		OrgName:      name,
		Category:     category,
		Mission:      mission,
		ContactEmail: contact,
		ImageURL:     optional(in.ImageURL),
		Status:       &status,
	}
	if err := s.DB.WithContext(ctx).Create(req).Error; err != nil {
		if database.IsNotProvisioned(err) {
			return nil, database.NotProvisioned(domain.OrgRequest{}.TableName())
		}
		return nil, err
	}
	return req, nil
}

// ListPending returns unresolved requests newest first. Missing tables and permission
// errors degrade to an empty list; a failed profile lookup drops only the requester.
func (s *Service) ListPending(ctx context.Context, id *domain.Identity) ([]PendingRequest, error) {
	if err := s.Roles.RequireSuperAdmin(id); err != nil {
		return nil, err
	}
	out := []PendingRequest{}
	if !s.Readiness.Ready(domain.OrgRequest{}.TableName()) {
		log.Warn().Msg("orgrequests: table not provisioned, returning empty list")
		return out, nil
	}
	var rows []domain.OrgRequest
	err := s.DB.WithContext(ctx).Where(pendingClause).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("orgrequests: pending list failed, returning empty list")
			return out, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return out, nil
	}

	userIDs := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
	}
	profiles := map[uuid.UUID]*Requester{}
	var found []domain.Profile
	if err := s.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&found).Error; err != nil {
		log.Warn().Err(err).Msg("orgrequests: requester profiles unavailable")
	} else {
		for _, p := range found {
			profiles[p.ID] = &Requester{Email: p.Email, FullName: p.FullName}
		}
	}
	for _, r := range rows {
		out = append(out, PendingRequest{OrgRequest: r, Requester: profiles[r.UserID]})
	}
	return out, nil
}

// ListMine returns the caller's own requests newest first.
func (s *Service) ListMine(ctx context.Context, id *domain.Identity) ([]domain.OrgRequest, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	out := []domain.OrgRequest{}
	if !s.Readiness.Ready(domain.OrgRequest{}.TableName()) {
		return out, nil
	}
	err := s.DB.WithContext(ctx).Where("user_id = ?", id.ID).Order("created_at DESC").Find(&out).Error
	if err != nil && database.IsSoftFailure(err) {
		log.Warn().Err(err).Msg("orgrequests: own list failed, returning empty list")
		return []domain.OrgRequest{}, nil
	}
	return out, err
}

// resolve moves a pending request to status and reloads it. Zero affected rows means
// the request is missing or was already reviewed.
func resolve(tx *gorm.DB, requestID uuid.UUID, updates map[string]interface{}) (*domain.OrgRequest, error) {
	res := tx.Model(&domain.OrgRequest{}).Where("id = ?", requestID).Where(pendingClause).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	var req domain.OrgRequest
	if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrRequestAlreadyResolved
	}
	return &req, nil
}

// Approve creates the nonprofit, grants the requester admin on it and marks the request
// approved, all in one transaction.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, approver *domain.Identity) (*Outcome, error) {
	if err := s.Roles.RequireSuperAdmin(approver); err != nil {
		return nil, err
	}
	if err := s.Readiness.Require(approvalTables...); err != nil {
		return nil, err
	}

	var out Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		req, err := resolve(tx, requestID, map[string]interface{}{
			"status":      domain.RequestStatusApproved,
			"reviewed_by": approver.ID,
			"reviewed_at": now,
		})
		if err != nil {
			return err
		}
		np := &domain.Nonprofit{
			Name:         req.OrgName,
			Category:     req.Category,
			Mission:      req.Mission,
			ContactEmail: req.ContactEmail,
			ImageURL:     req.ImageURL,
		}
		if err := tx.Create(np).Error; err != nil {
			return err
		}
		approverID := approver.ID
		if err := tx.Create(&domain.OrganizationAdmin{UserID: req.UserID, NonprofitID: np.ID, AddedBy: &approverID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.OrgRequest{}).Where("id = ?", req.ID).Update("nonprofit_id", np.ID).Error; err != nil {
			return err
		}
		req.NonprofitID = &np.ID
		auditlog.Record(ctx, tx, auditlog.Entry{
			Actor:      approver,
			ActionType: domain.ActionOrgRequestApproved,
			TargetID:   req.ID.String(),
			TargetType: constants.TargetOrgRequest,
			Details:    map[string]interface{}{"org_name": req.OrgName, "nonprofit_id": np.ID.String()},
		})
		out.Request = req
		out.Nonprofit = np
		return nil
	})
	if err != nil {
		if database.IsNotProvisioned(err) {
			return nil, database.NotProvisioned(approvalTables...)
		}
		return nil, err
	}

	out.RequesterEmail = s.requesterEmail(ctx, out.Request.UserID)
	log.Info().Str("request_id", requestID.String()).Str("requester_email", out.RequesterEmail).
		Str("org_name", out.Request.OrgName).Msg("orgrequests: approved, notifying requester")
	if s.Notifier != nil && out.RequesterEmail != "" {
		if err := s.Notifier.SendOrgRequestApproved(ctx, out.RequesterEmail, out.Request.OrgName); err != nil {
			log.Warn().Err(err).Str("request_id", requestID.String()).Msg("orgrequests: approval notification failed")
		}
	}
	return &out, nil
}

// Reject marks a pending request rejected with an optional comment in a single update
// and returns the outcome for notification.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, approver *domain.Identity, comment string) (*Outcome, error) {
	if err := s.Roles.RequireSuperAdmin(approver); err != nil {
		return nil, err
	}
	if err := s.Readiness.Require(domain.OrgRequest{}.TableName()); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"status":      domain.RequestStatusRejected,
		"reviewed_by": approver.ID,
		"reviewed_at": time.Now(),
	}
	if c := strings.TrimSpace(comment); c != "" {
		updates["review_comment"] = c
	}

	var out Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := resolve(tx, requestID, updates)
		if err != nil {
			return err
		}
		auditlog.Record(ctx, tx, auditlog.Entry{
			Actor:      approver,
			ActionType: domain.ActionOrgRequestRejected,
			TargetID:   req.ID.String(),
			TargetType: constants.TargetOrgRequest,
			Details:    map[string]interface{}{"org_name": req.OrgName},
		})
		out.Request = req
		return nil
	})
	if err != nil {
		if database.IsNotProvisioned(err) {
			return nil, database.NotProvisioned(domain.OrgRequest{}.TableName())
		}
		return nil, err
	}

	out.RequesterEmail = s.requesterEmail(ctx, out.Request.UserID)
	log.Info().Str("request_id", requestID.String()).Str("requester_email", out.RequesterEmail).
		Msg("orgrequests: rejected, notifying requester")
	if s.Notifier != nil && out.RequesterEmail != "" {
		reason := ""
		if out.Request.ReviewComment != nil {
			reason = *out.Request.ReviewComment
		}
		if err := s.Notifier.SendOrgRequestRejected(ctx, out.RequesterEmail, out.Request.OrgName, reason); err != nil {
			log.Warn().Err(err).Str("request_id", requestID.String()).Msg("orgrequests: rejection notification failed")
		}
	}
	return &out, nil
}

func (s *Service) requesterEmail(ctx context.Context, userID uuid.UUID) string {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Select("email").Where("id = ?", userID).First(&p).Error; err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("orgrequests: requester email lookup failed")
		return ""
	}
	return p.Email
}
