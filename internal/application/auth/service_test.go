package auth

import (
	"context"
	"strings"
	"testing"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/apperr"
	"serviceloop-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	resetTo   string
	resetLink string
}

func (m *captureMailer) SendOrgRequestApproved(ctx context.Context, to, orgName string) error {
	return nil
}

func (m *captureMailer) SendOrgRequestRejected(ctx context.Context, to, orgName, comment string) error {
	return nil
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.resetTo = to
	m.resetLink = link
	return nil
}

func newService(t *testing.T) (*Service, *captureMailer) {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	m := &captureMailer{}
	return &Service{DB: db, Rdb: rdb, Mailer: m, AppBaseURL: "http://app.test"}, m
}

func TestSignUpAndSignIn(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	p, err := s.SignUp(ctx, SignUpInput{Email: "Vol@Example.com", Password: "secret1", FullName: " Val "})
	require.NoError(t, err)
	assert.Equal(t, "vol@example.com", p.Email)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Val", *p.FullName)

	_, err = s.SignUp(ctx, SignUpInput{Email: "vol@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.SignIn(ctx, "VOL@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.SignIn(ctx, "vol@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUp_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, SignUpInput{Email: "", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)
	_, err = s.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = s.SignUp(ctx, SignUpInput{Email: "a@b.co", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSignIn_BackfillsMissingProfile(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, SignUpInput{Email: "late@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, s.DB.Where("email = ?", "late@example.com").Delete(&domain.Profile{}).Error)

	p, err := s.SignIn(ctx, "late@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Count(t, s.DB, &domain.Profile{}, "id = ?", p.ID))
}

func TestChangePassword_RevokesOtherSessions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	p, err := s.SignUp(ctx, SignUpInput{Email: "cp@example.com", Password: "secret1"})
	require.NoError(t, err)
	uid := p.ID.String()

	for _, sid := range []string{"keep", "other"} {
		require.NoError(t, s.Rdb.Set(ctx, middleware.SessionRedisPrefix+sid, "{}", 0).Err())
		require.NoError(t, TrackSession(ctx, s.Rdb, uid, sid))
	}

	id := &domain.Identity{ID: p.ID, Email: p.Email}
	assert.ErrorIs(t, s.ChangePassword(ctx, id, "nope12", "secret2", "keep"), ErrIncorrectPassword)
	assert.ErrorIs(t, s.ChangePassword(ctx, id, "secret1", "secret1", "keep"), ErrSamePassword)
	require.NoError(t, s.ChangePassword(ctx, id, "secret1", "secret2", "keep"))

	assert.Equal(t, int64(1), s.Rdb.Exists(ctx, middleware.SessionRedisPrefix+"keep").Val())
	assert.Equal(t, int64(0), s.Rdb.Exists(ctx, middleware.SessionRedisPrefix+"other").Val())

	_, err = s.SignIn(ctx, "cp@example.com", "secret2")
	assert.NoError(t, err)
}

func TestPasswordReset_Flow(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, SignUpInput{Email: "rs@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, m.resetLink)

	require.NoError(t, s.RequestPasswordReset(ctx, "RS@example.com"))
	assert.Equal(t, "rs@example.com", m.resetTo)
	require.True(t, strings.HasPrefix(m.resetLink, "http://app.test/reset-password?token="))
	token := strings.TrimPrefix(m.resetLink, "http://app.test/reset-password?token=")

	require.NoError(t, s.ResetPassword(ctx, token, "newpass"))
	assert.ErrorIs(t, s.ResetPassword(ctx, token, "newpass2"), ErrInvalidResetToken)

	_, err = s.SignIn(ctx, "rs@example.com", "newpass")
	assert.NoError(t, err)
}
