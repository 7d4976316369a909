package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

type captureTransport struct {
	mu    sync.Mutex
	sent  []Message
	fails int
}

func (c *captureTransport) Send(_ context.Context, m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fails > 0 {
		c.fails--
		return errors.New("connection refused")
	}
	c.sent = append(c.sent, m)
	return nil
}

func testMailer(t *testing.T, tr Transport) *Mailer {
	t.Helper()
	m, err := NewMailer("Natours <hello@natours.io>", tr, nil)
	require.NoError(t, err)
	m.retry.InitialBackoff = time.Millisecond
	m.retry.MaxBackoff = time.Millisecond
	return m
}

func TestWelcomeEmail(t *testing.T) {
	tr := &captureTransport{}
	m := testMailer(t, tr)
	u := &domain.User{Name: "Jonas Schmedtmann", Email: "jonas@example.com"}

	require.NoError(t, m.Welcome(context.Background(), u, "http://localhost:3000/me"))
	require.Len(t, tr.sent, 1)
	msg := tr.sent[0]
	assert.Equal(t, "jonas@example.com", msg.To)
	assert.Equal(t, "Welcome to the Natours Family!", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Jonas,")
	assert.Contains(t, msg.HTML, `href="http://localhost:3000/me"`)
	assert.Contains(t, msg.Text, "http://localhost:3000/me")
}

func TestPasswordResetRetries(t *testing.T) {
	tr := &captureTransport{fails: 2}
	m := testMailer(t, tr)
	u := &domain.User{Name: "Jonas", Email: "jonas@example.com"}

	require.NoError(t, m.PasswordReset(context.Background(), u, "http://x/resetPassword/abc"))
	require.Len(t, tr.sent, 1)
	assert.Contains(t, tr.sent[0].Subject, "valid for only 10 minutes")
}

func TestSendGivesUp(t *testing.T) {
	tr := &captureTransport{fails: 100}
	m := testMailer(t, tr)
	err := m.Welcome(context.Background(), &domain.User{Name: "A", Email: "a@example.com"}, "u")
	assert.Error(t, err)
	assert.Empty(t, tr.sent)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Jonas", firstName("Jonas Schmedtmann"))
	assert.Equal(t, "", firstName(""))
}
