package database

import (
	"serviceloop-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer style poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Models lists every table the service reads or writes, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Profile{},
		&domain.Nonprofit{},
		&domain.OrgRequest{},
		&domain.OrganizationAdmin{},
		&domain.NonprofitMember{},
		&domain.Event{},
		&domain.VolunteerSignup{},
		&domain.Post{},
		&domain.PostOrganization{},
		&domain.Comment{},
		&domain.AdminAction{},
		&domain.ChatMessage{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
