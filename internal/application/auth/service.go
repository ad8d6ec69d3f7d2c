package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"serviceloop-backend/internal/application/emails"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetTokenPrefix = "password_reset:"
	resetTokenTTL    = time.Hour
)

// Service implements the identity provider operations: sign up, sign in, password change and reset.
type Service struct {
	DB         *gorm.DB
	Rdb        *redis.Client
	Mailer     emails.Sender
	AppBaseURL string
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// SignUp creates the credential and profile rows in one transaction.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.Profile, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	profile := &domain.Profile{ID: user.ID, Email: email}
	if name := strings.TrimSpace(in.FullName); name != "" {
		profile.FullName = &name
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SignIn verifies credentials and returns the profile, backfilling it when missing.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.EnsureProfile(ctx, &domain.Identity{ID: u.ID, Email: u.Email}), nil
}

// EnsureProfile returns the caller's profile and creates it if absent. Best effort: a
// failed backfill is logged and a transient profile is returned.
func (s *Service) EnsureProfile(ctx context.Context, id *domain.Identity) *domain.Profile {
	var p domain.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", id.ID).First(&p).Error
	if err == nil {
		return &p
	}
	p = domain.Profile{ID: id.ID, Email: id.Email}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Str("user_id", id.ID.String()).Msg("auth: profile lookup failed")
		return &p
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil && !database.IsUniqueViolation(err) {
		log.Warn().Err(err).Str("user_id", id.ID.String()).Msg("auth: profile backfill failed")
	}
	return &p
}

// ChangePassword re-verifies the current password, stores the new one and signs out
// every other session of the user.
func (s *Service) ChangePassword(ctx context.Context, id *domain.Identity, current, next, keepSession string) error {
	if current == "" || next == "" {
		return ErrEmailPasswordRequired
	}
	if !validation.IsValidPassword(next) {
		return ErrWeakPassword
	}
	if current == next {
		return ErrSamePassword
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id.ID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrIncorrectPassword
	}
	if err := s.setPassword(ctx, u.ID, next); err != nil {
		return err
	}
	DestroyUserSessions(ctx, s.Rdb, u.ID.String(), keepSession)
	return nil
}

// RequestPasswordReset mails a one-hour reset link. Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info().Str("email", email).Msg("auth: password reset for unknown email")
			return nil
		}
		return err
	}
	token := uuid.New().String()
	if err := s.Rdb.Set(ctx, resetTokenPrefix+token, u.ID.String(), resetTokenTTL).Err(); err != nil {
		return err
	}
	link := s.AppBaseURL + "/reset-password?token=" + token
	if s.Mailer != nil {
		if err := s.Mailer.SendPasswordReset(ctx, u.Email, link); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("auth: reset email failed")
		}
	}
	return nil
}

// ResetPassword consumes a reset token and revokes every session of the user.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if !validation.IsValidPassword(next) {
		return ErrWeakPassword
	}
	userID, err := s.Rdb.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrInvalidResetToken
	}
	if err := s.setPassword(ctx, uid, next); err != nil {
		return err
	}
	DestroyUserSessions(ctx, s.Rdb, uid.String(), "")
	return nil
}

func (s *Service) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("password_hash", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidResetToken
	}
	return nil
}
