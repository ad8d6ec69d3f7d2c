package roles

import (
	"context"
	"strings"

	"serviceloop-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Resolver answers "is this identity a super admin" and "is it an admin of org X".
// Every mutating service calls it before touching the store.
type Resolver struct {
	DB               *gorm.DB
	SuperAdminEmails []string
}

// NewResolver normalizes the allow-list once.
func NewResolver(db *gorm.DB, superAdminEmails []string) *Resolver {
	emails := make([]string, 0, len(superAdminEmails))
	for _, e := range superAdminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails = append(emails, e)
		}
	}
	return &Resolver{DB: db, SuperAdminEmails: emails}
}

// IsSuperAdmin is pure: no I/O, false for nil identities.
func (r *Resolver) IsSuperAdmin(id *domain.Identity) bool {
	if r == nil || id == nil || id.Email == "" {
		return false
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	for _, e := range r.SuperAdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// IsOrgAdmin fails closed: query errors are logged and reported as false.
func (r *Resolver) IsOrgAdmin(ctx context.Context, id *domain.Identity, orgID uuid.UUID) bool {
	if id == nil {
		return false
	}
	if r.IsSuperAdmin(id) {
		return true
	}
	if r.DB == nil {
		return false
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.OrganizationAdmin{}).
		Where("user_id = ? AND nonprofit_id = ?", id.ID, orgID).
		Count(&count).Error
	if err != nil {
		log.Warn().Err(err).Str("user_id", id.ID.String()).Str("nonprofit_id", orgID.String()).
			Msg("roles: org admin check failed")
		return false
	}
	return count > 0
}

// RequireAuth returns ErrNotAuthenticated for a nil identity.
func RequireAuth(id *domain.Identity) error {
	if id == nil || id.ID == uuid.Nil {
		return ErrNotAuthenticated
	}
	return nil
}

func (r *Resolver) RequireSuperAdmin(id *domain.Identity) error {
	if err := RequireAuth(id); err != nil {
		return err
	}
	if !r.IsSuperAdmin(id) {
		return ErrSuperAdminRequired
	}
	return nil
}

func (r *Resolver) RequireOrgAdmin(ctx context.Context, id *domain.Identity, orgID uuid.UUID) error {
	if err := RequireAuth(id); err != nil {
		return err
	}
	if !r.IsOrgAdmin(ctx, id, orgID) {
		return ErrOrgAdminRequired
	}
	return nil
}
