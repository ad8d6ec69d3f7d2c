package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChatSenderUser = "user"
	ChatSenderAI   = "ai"
)

type ChatMessage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ContextType string    `gorm:"column:context_type" json:"context_type"`
	ContextID   *string   `gorm:"column:context_id" json:"context_id"`
	Sender      string    `gorm:"column:sender;not null" json:"sender"`
	Message     string    `gorm:"column:message;not null" json:"message"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
