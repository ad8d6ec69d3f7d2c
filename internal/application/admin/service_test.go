package admin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"serviceloop-backend/internal/application/auditlog"
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t)
	return &Service{
		DB:    db,
		Roles: roles.NewResolver(db, []string{testutil.SuperAdminEmail}),
		Logs:  &auditlog.Service{DB: db},
	}, db
}

func TestEveryMethodRequiresSuperAdmin(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u@example.com")
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")

	_, err := s.GetSystemMetrics(ctx, u)
	assert.ErrorIs(t, err, roles.ErrSuperAdminRequired)
	_, err = s.GetAllUsersWithStats(ctx, u)
	assert.ErrorIs(t, err, roles.ErrSuperAdminRequired)
	_, err = s.GetAdminLogs(ctx, u, 10)
	assert.ErrorIs(t, err, roles.ErrSuperAdminRequired)
	_, err = s.GetAllOrganizations(ctx, nil)
	assert.ErrorIs(t, err, roles.ErrNotAuthenticated)
	assert.ErrorIs(t, s.DeleteOrganization(ctx, org.ID, u), roles.ErrSuperAdminRequired)
	assert.ErrorIs(t, s.PromoteToOrgAdmin(ctx, u.ID, org.ID, u), roles.ErrSuperAdminRequired)
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.Nonprofit{}, ""))
}

func TestGetSystemMetrics_PartialResults(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u@example.com")
	testutil.CreateNonprofit(t, db, "Riverbank Trust")
	testutil.CreatePost(t, db, u.ID, "p", "x")
	require.NoError(t, db.Create(&domain.OrgRequest{UserID: u.ID, OrgName: "New", Category: "c", Mission: "m"}).Error)
	require.NoError(t, db.Migrator().DropTable(&domain.Comment{}))

	m, err := s.GetSystemMetrics(ctx, testutil.SuperAdmin())
	require.NoError(t, err)
	assert.Equal(t, SystemMetrics{Nonprofits: 1, Users: 1, Events: 0, Posts: 1, Comments: 0, PendingRequests: 1}, *m)
}

func TestGetAllUsersWithStats(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreateUser(t, db, "b@example.com")
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	ev := &domain.Event{NonprofitID: org.ID, Title: "e", Date: time.Now()}
	require.NoError(t, db.Create(ev).Error)
	testutil.CreatePost(t, db, a.ID, "p1", "x")
	testutil.CreatePost(t, db, a.ID, "p2", "x")
	require.NoError(t, db.Create(&domain.VolunteerSignup{UserID: a.ID, EventID: ev.ID}).Error)
	require.NoError(t, db.Create(&domain.NonprofitMember{UserID: a.ID, NonprofitID: org.ID}).Error)

	users, err := s.GetAllUsersWithStats(ctx, testutil.SuperAdmin())
	require.NoError(t, err)
	require.Len(t, users, 2)
	byEmail := map[string]UserStats{}
	for _, u := range users {
		byEmail[u.Email] = u.Stats
	}
	assert.Equal(t, UserStats{Posts: 2, Events: 1, Organizations: 1}, byEmail["a@example.com"])
	assert.Equal(t, UserStats{}, byEmail["b@example.com"])
}

func TestDeleteOrganization_Cascade(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u@example.com")
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	keep := testutil.CreateNonprofit(t, db, "Food Bank")
	testutil.MakeAdmin(t, db, u.ID, org.ID)
	testutil.MakeAdmin(t, db, u.ID, keep.ID)
	require.NoError(t, db.Create(&domain.NonprofitMember{UserID: u.ID, NonprofitID: org.ID}).Error)
	ev := &domain.Event{NonprofitID: org.ID, Title: "e", Date: time.Now()}
	require.NoError(t, db.Create(ev).Error)
	require.NoError(t, db.Create(&domain.VolunteerSignup{UserID: u.ID, EventID: ev.ID}).Error)
	tagged := testutil.CreatePost(t, db, u.ID, "tagged", "General", "Riverbank Trust")
	untouched := testutil.CreatePost(t, db, u.ID, "other", "General")
	require.NoError(t, db.Create(&domain.Comment{UserID: u.ID, PostID: tagged.ID, Text: "c"}).Error)

	super := testutil.SuperAdmin()
	require.NoError(t, s.DeleteOrganization(ctx, org.ID, super))

	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Nonprofit{}, "id = ?", org.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.OrganizationAdmin{}, "nonprofit_id = ?", org.ID))
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.OrganizationAdmin{}, "nonprofit_id = ?", keep.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.NonprofitMember{}, "nonprofit_id = ?", org.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Event{}, "nonprofit_id = ?", org.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.VolunteerSignup{}, ""))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Post{}, "id = ?", tagged.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Comment{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.Post{}, "id = ?", untouched.ID))

	var logs []domain.AdminAction
	require.NoError(t, db.Where("action_type = ?", domain.ActionOrgDeleted).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, org.ID.String(), logs[0].TargetID)
	assert.Equal(t, super.Email, logs[0].PerformedByEmail)
	var details map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.Equal(t, "Riverbank Trust", details["org_name"])

	assert.ErrorIs(t, s.DeleteOrganization(ctx, uuid.New(), super), ErrOrgNotFound)
}

func TestDeleteOrganization_ToleratesFailedSteps(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	require.NoError(t, db.Migrator().DropTable(&domain.NonprofitMember{}, &domain.AdminAction{}))

	require.NoError(t, s.DeleteOrganization(ctx, org.ID, testutil.SuperAdmin()))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.Nonprofit{}, ""))
}

func TestPromoteDemoteRemove_AreAudited(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	super := testutil.SuperAdmin()
	u := testutil.CreateUser(t, db, "u@example.com")
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	require.NoError(t, db.Create(&domain.NonprofitMember{UserID: u.ID, NonprofitID: org.ID}).Error)

	require.NoError(t, s.PromoteToOrgAdmin(ctx, u.ID, org.ID, super))
	assert.ErrorIs(t, s.PromoteToOrgAdmin(ctx, u.ID, org.ID, super), ErrAlreadyOrgAdmin)
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.OrganizationAdmin{}, ""))

	require.NoError(t, s.DemoteOrgAdmin(ctx, u.ID, org.ID, super))
	require.NoError(t, s.RemoveUserFromOrg(ctx, u.ID, org.ID, super))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.OrganizationAdmin{}, ""))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.NonprofitMember{}, ""))

	logs, err := s.GetAdminLogs(ctx, super, 0)
	require.NoError(t, err)
	actions := map[string]bool{}
	for _, l := range logs {
		actions[l.ActionType] = true
		assert.Equal(t, u.ID.String(), l.TargetID)
		assert.Equal(t, "user", l.TargetType)
	}
	assert.Equal(t, map[string]bool{
		domain.ActionUserPromotedToAdmin:  true,
		domain.ActionUserDemotedFromAdmin: true,
		domain.ActionUserRemovedFromOrg:   true,
	}, actions)
}

func TestDemoteOrgAdmin_RefusesSelf(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	super := testutil.SuperAdmin()
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	testutil.MakeAdmin(t, db, super.ID, org.ID)

	assert.ErrorIs(t, s.DemoteOrgAdmin(ctx, super.ID, org.ID, super), ErrCannotDemoteSelf)
	assert.Equal(t, int64(1), testutil.Count(t, db, &domain.OrganizationAdmin{}, "user_id = ? AND nonprofit_id = ?", super.ID, org.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &domain.AdminAction{}, ""))
}

func TestGetAdminLogs_MissingTable(t *testing.T) {
	s, db := newService(t)
	require.NoError(t, db.Migrator().DropTable(&domain.AdminAction{}))
	logs, err := s.GetAdminLogs(context.Background(), testutil.SuperAdmin(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	s.Logs.Readiness = database.NewReadiness("admin_actions_log")
	logs, err = s.GetAdminLogs(context.Background(), testutil.SuperAdmin(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
