package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event belongs to exactly one Nonprofit.
type Event struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	NonprofitID uuid.UUID `gorm:"column:nonprofit_id;type:uuid;not null;index" json:"nonprofit_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Date        time.Time `gorm:"column:date" json:"date"`
	Location    *string   `gorm:"column:location" json:"location"`
	ImageURL    *string   `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// VolunteerSignup is an RSVP, unique per (user, event).
type VolunteerSignup struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey;index" json:"event_id"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (VolunteerSignup) TableName() string {
	return "volunteer_signups"
}
