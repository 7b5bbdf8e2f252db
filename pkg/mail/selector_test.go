package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acconduty/od-form-api/pkg/config"
	appErrors "github.com/acconduty/od-form-api/pkg/errors"
)

type stubTransport struct {
	name string
}

func (s *stubTransport) Name() string { return s.name }

func (s *stubTransport) Send(ctx context.Context, msg Message) (SendResult, error) {
	return SendResult{MessageID: "<stub>"}, nil
}

func TestResolveFromPrefersSMTPUser(t *testing.T) {
	from, err := ResolveFrom(config.SMTPConfig{User: "coord@example.edu", MailFrom: "fallback@example.edu"})
	require.NoError(t, err)
	assert.Equal(t, "coord@example.edu", from)
}

func TestResolveFromFallsBackToMailFrom(t *testing.T) {
	from, err := ResolveFrom(config.SMTPConfig{MailFrom: "fallback@example.edu"})
	require.NoError(t, err)
	assert.Equal(t, "fallback@example.edu", from)
}

func TestResolveFromFailsWhenUnset(t *testing.T) {
	_, err := ResolveFrom(config.SMTPConfig{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSenderNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestCandidatesGmailManaged(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{User: "x@gmail.com", Pass: "app-password"}, preview, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "gmail", candidates[0].Name())
	assert.Equal(t, "preview", candidates[1].Name())

	gmail, ok := candidates[0].(*SMTPTransport)
	require.True(t, ok)
	assert.Equal(t, "smtp.gmail.com", gmail.Host())
	assert.Equal(t, 465, gmail.Port())
	assert.True(t, gmail.Secure())
}

func TestCandidatesGmailIsCaseInsensitive(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{User: "x@GMAIL.com", Pass: "p"}, preview, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "gmail", candidates[0].Name())
}

func TestCandidatesDirectDefaultsInsecurePort(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{Host: "mail.example.edu", User: "u", Pass: "p"}, preview, nil)
	require.Len(t, candidates, 2)

	direct, ok := candidates[0].(*SMTPTransport)
	require.True(t, ok)
	assert.Equal(t, "smtp", direct.Name())
	assert.Equal(t, 587, direct.Port())
	assert.False(t, direct.Secure())
}

func TestCandidatesDirectExplicitSecure(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{Host: "mail.example.edu", User: "u", Pass: "p", Secure: "1"}, preview, nil)
	direct, ok := candidates[0].(*SMTPTransport)
	require.True(t, ok)
	assert.True(t, direct.Secure())
	assert.Equal(t, 465, direct.Port())
}

func TestCandidatesPort465ImpliesSecure(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{Host: "mail.example.edu", User: "u", Pass: "p", Port: 465}, preview, nil)
	direct, ok := candidates[0].(*SMTPTransport)
	require.True(t, ok)
	assert.True(t, direct.Secure())
	assert.Equal(t, 465, direct.Port())
}

func TestCandidatesPartialConfigFallsThrough(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{Host: "mail.example.edu"}, preview, nil)
	require.Len(t, candidates, 1)
	assert.Equal(t, "preview", candidates[0].Name())
}

func TestCandidatesNothingConfigured(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{}, preview, nil)
	require.Len(t, candidates, 1)
	assert.Equal(t, "preview", candidates[0].Name())
}

func TestCandidatesGmailRequiresPassword(t *testing.T) {
	preview := &stubTransport{name: "preview"}
	candidates := Candidates(config.SMTPConfig{User: "x@gmail.com"}, preview, nil)
	require.Len(t, candidates, 1)
	assert.Equal(t, "preview", candidates[0].Name())
}
