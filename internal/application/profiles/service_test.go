package profiles

import (
	"context"
	"testing"
	"time"

	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	s := &Service{DB: db}
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "kim@example.com")
	org := testutil.CreateNonprofit(t, db, "Riverbank Trust")
	ev := &domain.Event{NonprofitID: org.ID, Title: "Cleanup", Date: time.Now()}
	require.NoError(t, db.Create(ev).Error)
	require.NoError(t, db.Create(&domain.VolunteerSignup{UserID: u.ID, EventID: ev.ID, Timestamp: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&domain.NonprofitMember{UserID: u.ID, NonprofitID: org.ID, JoinedAt: time.Now()}).Error)
	p := testutil.CreatePost(t, db, u.ID, "hello", "General")
	require.NoError(t, db.Create(&domain.Comment{UserID: u.ID, PostID: p.ID, Text: "self reply"}).Error)

	d, err := s.Dashboard(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, d.Profile)
	assert.Equal(t, Stats{EventsAttended: 1, PostsCreated: 1, CommentsMade: 1, OrganizationsJoined: 1}, d.Stats)
	require.Len(t, d.RecentPosts, 1)
	assert.Equal(t, int64(1), d.RecentPosts[0].CommentCount)
	assert.Equal(t, "Kim", d.RecentPosts[0].AuthorName)
	require.Len(t, d.RecentActivity, 2)
	assert.Equal(t, "Joined organization: Riverbank Trust", d.RecentActivity[0].Text)
	assert.Equal(t, "Joined event: Cleanup", d.RecentActivity[1].Text)

	_, err = s.Dashboard(ctx, nil)
	assert.ErrorIs(t, err, roles.ErrNotAuthenticated)
}
