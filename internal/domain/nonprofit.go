package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nonprofit is an organization. Rows are only created by approving an OrgRequest.
type Nonprofit struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Category     string    `gorm:"column:category" json:"category"`
	Mission      string    `gorm:"column:mission" json:"mission"`
	ContactEmail *string   `gorm:"column:contact_email" json:"contact_email"`
	ImageURL     *string   `gorm:"column:image_url" json:"image_url"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Nonprofit) TableName() string {
	return "nonprofits"
}

func (n *Nonprofit) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// OrganizationAdmin grants mutation rights over one nonprofit.
type OrganizationAdmin struct {
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	NonprofitID uuid.UUID  `gorm:"column:nonprofit_id;type:uuid;primaryKey;index" json:"nonprofit_id"`
	AddedBy     *uuid.UUID `gorm:"column:added_by;type:uuid" json:"added_by"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (OrganizationAdmin) TableName() string {
	return "organization_admins"
}

// NonprofitMember is a self-service membership. Independent of OrganizationAdmin.
type NonprofitMember struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	NonprofitID uuid.UUID `gorm:"column:nonprofit_id;type:uuid;primaryKey;index" json:"nonprofit_id"`
	JoinedAt    time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}

func (NonprofitMember) TableName() string {
	return "nonprofit_members"
}
