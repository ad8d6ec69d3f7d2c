package events

import (
	"context"
	"errors"
	"time"

	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB        *gorm.DB
	Readiness *database.Readiness
	// Now is overridable in tests.
	Now func() time.Time
}

type EventView struct {
	domain.Event
	OrganizationName string `json:"organization_name"`
}

type EventDetail struct {
	domain.Event
	Organization   *domain.Nonprofit `json:"organization"`
	VolunteerCount int64             `json:"volunteer_count"`
}

type SignupResult struct {
	AlreadyJoined bool `json:"already_joined"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns upcoming events soonest first, followed by past events most recent first.
func (s *Service) List(ctx context.Context) ([]EventView, error) {
	if !s.Readiness.Ready(domain.Event{}.TableName()) {
		return []EventView{}, nil
	}
	var rows []domain.Event
	if err := s.DB.WithContext(ctx).Order("date ASC").Find(&rows).Error; err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("events: list failed, returning empty list")
			return []EventView{}, nil
		}
		return nil, err
	}

	orgIDs := make([]uuid.UUID, 0, len(rows))
	for _, e := range rows {
		orgIDs = append(orgIDs, e.NonprofitID)
	}
	names := map[uuid.UUID]string{}
	if len(orgIDs) > 0 {
		var orgs []domain.Nonprofit
		if err := s.DB.WithContext(ctx).Select("id, name").Where("id IN ?", orgIDs).Find(&orgs).Error; err != nil {
			log.Warn().Err(err).Msg("events: organization names unavailable")
		}
		for _, o := range orgs {
			names[o.ID] = o.Name
		}
	}

	now := s.now()
	upcoming := make([]EventView, 0, len(rows))
	var past []EventView
	for _, e := range rows {
		v := EventView{Event: e, OrganizationName: names[e.NonprofitID]}
		if e.Date.Before(now) {
			past = append(past, v)
		} else {
			upcoming = append(upcoming, v)
		}
	}
	for i := len(past) - 1; i >= 0; i-- {
		upcoming = append(upcoming, past[i])
	}
	return upcoming, nil
}

func (s *Service) Get(ctx context.Context, eventID uuid.UUID) (*EventDetail, error) {
	var e domain.Event
	if err := s.DB.WithContext(ctx).Where("id = ?", eventID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	d := &EventDetail{Event: e}
	var org domain.Nonprofit
	if err := s.DB.WithContext(ctx).Where("id = ?", e.NonprofitID).First(&org).Error; err == nil {
		d.Organization = &org
	}
	if err := s.DB.WithContext(ctx).Model(&domain.VolunteerSignup{}).
		Where("event_id = ?", eventID).Distinct("user_id").Count(&d.VolunteerCount).Error; err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("events: volunteer count failed")
	}
	return d, nil
}

// Signup records an RSVP. A duplicate is reported as AlreadyJoined, not an error.
func (s *Service) Signup(ctx context.Context, id *domain.Identity, eventID uuid.UUID) (*SignupResult, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	if err := s.Readiness.Require(domain.VolunteerSignup{}.TableName()); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Event{}).Where("id = ?", eventID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEventNotFound
	}
	if err := s.DB.WithContext(ctx).Create(&domain.VolunteerSignup{UserID: id.ID, EventID: eventID}).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return &SignupResult{AlreadyJoined: true}, nil
		}
		return nil, err
	}
	return &SignupResult{}, nil
}

func (s *Service) CancelSignup(ctx context.Context, id *domain.Identity, eventID uuid.UUID) error {
	if err := roles.RequireAuth(id); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", id.ID, eventID).
		Delete(&domain.VolunteerSignup{}).Error
}

func (s *Service) IsSignedUp(ctx context.Context, id *domain.Identity, eventID uuid.UUID) bool {
	if id == nil {
		return false
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.VolunteerSignup{}).
		Where("user_id = ? AND event_id = ?", id.ID, eventID).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}
