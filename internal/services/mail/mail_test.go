package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type recordingSender struct {
	sent []*gomail.Msg
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msgs ...*gomail.Msg) error {
	r.sent = append(r.sent, msgs...)
	return r.err
}

func TestSendContact(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "admin@aihub.dev")

	err := m.SendContact(context.Background(), ContactMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "Hello there",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	assert.Equal(t, []string{"<admin@aihub.dev>"}, sender.sent[0].GetToString())
	assert.Equal(t, []string{"New Contact Message from Ada"}, sender.sent[0].GetGenHeader(gomail.HeaderSubject))
	assert.Equal(t, []string{"<ada@example.com>"}, sender.sent[1].GetToString())
}

func TestSendContactValidation(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender, "admin@aihub.dev")

	err := m.SendContact(context.Background(), ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "  "})
	assert.ErrorIs(t, err, ErrMissingFields)

	err = m.SendContact(context.Background(), ContactMessage{Name: "Ada", Email: "not an address", Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, sender.sent)
}

func TestSendContactNotConfigured(t *testing.T) {
	err := NewMailer(nil, "").SendContact(context.Background(), ContactMessage{Name: "a", Email: "a@b.co", Message: "m"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendContactSenderFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	m := NewMailer(&recordingSender{err: cause}, "admin@aihub.dev")

	err := m.SendContact(context.Background(), ContactMessage{Name: "a", Email: "a@b.co", Message: "m"})
	assert.ErrorIs(t, err, cause)
}

func TestContactBodiesEscapeInput(t *testing.T) {
	admin, reply := contactBodies(ContactMessage{
		Name:    "<script>alert(1)</script>",
		Email:   "a@b.co",
		Message: "line one\n<b>bold</b> & more",
	})

	assert.NotContains(t, admin, "<script>")
	assert.Contains(t, admin, "&lt;script&gt;")
	assert.Contains(t, admin, "line one<br>&lt;b&gt;bold&lt;/b&gt; &amp; more")
	assert.Contains(t, reply, "Hello &lt;script&gt;alert(1)&lt;/script&gt;,")
}
