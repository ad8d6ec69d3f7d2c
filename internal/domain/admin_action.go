package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit action types written to admin_actions_log.
const (
	ActionOrgDeleted           = "ORG_DELETED"
	ActionOrgRequestApproved   = "ORG_REQUEST_APPROVED"
	ActionOrgRequestRejected   = "ORG_REQUEST_REJECTED"
	ActionUserRemovedFromOrg   = "USER_REMOVED_FROM_ORG"
	ActionUserPromotedToAdmin  = "USER_PROMOTED_TO_ADMIN"
	ActionUserDemotedFromAdmin = "USER_DEMOTED_FROM_ADMIN"
)

// AdminAction is an append-only audit row. The application never updates or deletes these.
type AdminAction struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PerformedBy      uuid.UUID      `gorm:"column:performed_by;type:uuid" json:"performed_by"`
	PerformedByEmail string         `gorm:"column:performed_by_email" json:"performed_by_email"`
	ActionType       string         `gorm:"column:action_type;not null;index" json:"action_type"`
	TargetID         string         `gorm:"column:target_id" json:"target_id"`
	TargetType       string         `gorm:"column:target_type" json:"target_type"`
	Details          datatypes.JSON `gorm:"column:details" json:"details"`
	CreatedAt        time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (AdminAction) TableName() string {
	return "admin_actions_log"
}

func (a *AdminAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
