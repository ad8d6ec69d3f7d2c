// Package testutil builds in-memory stores for package tests.
package testutil

import (
	"testing"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SuperAdminEmail is the allow-listed address used across tests.
const SuperAdminEmail = "root@serviceloop.org"

// NewDB returns a migrated in-memory database. The pool is pinned to one connection
// because every sqlite :memory: connection is a separate database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewRedis starts miniredis and returns a client bound to it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// SuperAdmin returns an identity on the allow-list.
func SuperAdmin() *domain.Identity {
	return &domain.Identity{ID: uuid.New(), Email: SuperAdminEmail}
}

// CreateUser inserts a profile (and credential row) and returns its identity.
func CreateUser(t *testing.T, db *gorm.DB, email string) *domain.Identity {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&domain.User{ID: id, Email: email, PasswordHash: "x"}).Error)
	require.NoError(t, db.Create(&domain.Profile{ID: id, Email: email}).Error)
	return &domain.Identity{ID: id, Email: email}
}

func CreateNonprofit(t *testing.T, db *gorm.DB, name string) *domain.Nonprofit {
	t.Helper()
	np := &domain.Nonprofit{Name: name, Category: "Environment", Mission: "Clean rivers"}
	require.NoError(t, db.Create(np).Error)
	return np
}

func MakeAdmin(t *testing.T, db *gorm.DB, userID, orgID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Create(&domain.OrganizationAdmin{UserID: userID, NonprofitID: orgID}).Error)
}

func CreatePost(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, tags ...string) *domain.Post {
	t.Helper()
	p := &domain.Post{UserID: userID, Title: title, Content: "body", Tags: domain.NewTags(tags)}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
