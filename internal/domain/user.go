package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the credential record owned by the identity provider side of the app.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile mirrors the identity for display purposes. ID equals the user id.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;index" json:"email"`
	FullName  *string   `gorm:"column:full_name" json:"full_name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// DisplayName returns full_name, else the capitalized email local part, else "User <id prefix>".
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Anonymous"
	}
	return DisplayName(p.ID, p.Email, p.FullName)
}

// DisplayName resolves a human readable author name from profile fields.
func DisplayName(id uuid.UUID, email string, fullName *string) string {
	if fullName != nil && *fullName != "" {
		return *fullName
	}
	if email != "" {
		local := email
		for i := 0; i < len(email); i++ {
			if email[i] == '@' {
				local = email[:i]
				break
			}
		}
		if local != "" {
			return capitalize(local)
		}
	}
	s := id.String()
	return "User " + s[:8]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
