package auditlog

import (
	"context"
	"encoding/json"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Entry is one admin action to append.
type Entry struct {
	Actor      *domain.Identity
	ActionType string
	TargetID   string
	TargetType string
	Details    map[string]interface{}
}

// Record appends an entry inside its own savepoint so a failed insert never aborts the
// caller's transaction. Failures are logged and reported as false.
func Record(ctx context.Context, tx *gorm.DB, e Entry) bool {
	details, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		details = []byte("{}")
	}
	row := &domain.AdminAction{
		ActionType: e.ActionType,
		TargetID:   e.TargetID,
		TargetType: e.TargetType,
		Details:    datatypes.JSON(details),
	}
	if e.Actor != nil {
		row.PerformedBy = e.Actor.ID
		row.PerformedByEmail = e.Actor.Email
	}
	err = tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(row).Error
	})
	if err != nil {
		log.Warn().Err(err).Str("action_type", e.ActionType).Str("target_id", e.TargetID).
			Msg("auditlog: insert failed")
		return false
	}
	return true
}

type Service struct {
	DB        *gorm.DB
	Readiness *database.Readiness
}

// Recent returns the newest entries first. A missing table yields an empty list.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.AdminAction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	out := []domain.AdminAction{}
	if !s.Readiness.Ready(domain.AdminAction{}.TableName()) {
		log.Warn().Msg("auditlog: admin_actions_log not provisioned")
		return out, nil
	}
	err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		if database.IsSoftFailure(err) {
			log.Warn().Err(err).Msg("auditlog: read failed, returning empty list")
			return []domain.AdminAction{}, nil
		}
		return nil, err
	}
	return out, nil
}
