package emails

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailClient struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeMailClient) SendWithContext(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendOrgRequestRejected_IncludesEscapedComment(t *testing.T) {
	fake := &fakeMailClient{status: 202}
	c := &SendGridClient{APIKey: "key", MailFrom: "from@serviceloop.org", FromName: "ServiceLoop", Client: fake}

	require.NoError(t, c.SendOrgRequestRejected(context.Background(), "req@example.com", "Riverbank <Trust>", "Missing <mission>"))
	require.Len(t, fake.sent, 1)
	m := fake.sent[0]
	assert.Equal(t, "from@serviceloop.org", m.From.Address)
	assert.Equal(t, "req@example.com", m.Personalizations[0].To[0].Address)
	html := m.Content[1].Value
	assert.Contains(t, html, "Riverbank &lt;Trust&gt;")
	assert.Contains(t, html, "Missing &lt;mission&gt;")
}

func TestSend_NoAPIKeyIsNoop(t *testing.T) {
	fake := &fakeMailClient{status: 202}
	c := &SendGridClient{Client: fake}
	require.NoError(t, c.SendPasswordReset(context.Background(), "u@example.com", "https://x/reset?token=t"))
	assert.Empty(t, fake.sent)
}

func TestSend_ReportsFailures(t *testing.T) {
	c := &SendGridClient{APIKey: "key", Client: &fakeMailClient{status: 401}}
	assert.Error(t, c.SendOrgRequestApproved(context.Background(), "u@example.com", "Org"))

	c = &SendGridClient{APIKey: "key", Client: &fakeMailClient{err: errors.New("dial")}}
	assert.Error(t, c.SendOrgRequestApproved(context.Background(), "u@example.com", "Org"))
}
