package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// OrgRequest is a proposal to create a Nonprofit. Status may be NULL or empty on legacy rows.
type OrgRequest struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	OrgName       string     `gorm:"column:org_name;not null" json:"org_name"`
	Category      string     `gorm:"column:category" json:"category"`
	Mission       string     `gorm:"column:mission" json:"mission"`
	ContactEmail  *string    `gorm:"column:contact_email" json:"contact_email"`
	ImageURL      *string    `gorm:"column:image_url" json:"image_url"`
	Status        *string    `gorm:"column:status" json:"status"`
	ReviewComment *string    `gorm:"column:review_comment" json:"review_comment"`
	ReviewedBy    *uuid.UUID `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at" json:"reviewed_at"`
	NonprofitID   *uuid.UUID `gorm:"column:nonprofit_id;type:uuid" json:"nonprofit_id"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (OrgRequest) TableName() string {
	return "org_creation_requests"
}

func (r *OrgRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NormalizedStatus folds NULL and empty status into "pending".
func (r *OrgRequest) NormalizedStatus() string {
	if r.Status == nil {
		return RequestStatusPending
	}
	s := strings.ToLower(strings.TrimSpace(*r.Status))
	if s == "" {
		return RequestStatusPending
	}
	return s
}

// IsPending reports whether the request can still be approved or rejected.
func (r *OrgRequest) IsPending() bool {
	return r.NormalizedStatus() == RequestStatusPending
}
