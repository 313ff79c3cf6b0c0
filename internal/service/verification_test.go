package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quotedesk/internal/kvstore"
	"quotedesk/internal/mail"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

type fakeQuoteReader struct {
	quotes map[string]*model.QuoteRequest
}

func (f *fakeQuoteReader) GetByID(ctx context.Context, id string) (*model.QuoteRequest, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return q, nil
}

type fakeNotifier struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, html, text string
}

func (f *fakeNotifier) Send(to, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: htmlBody, text: textBody})
	return nil
}

func newTestVerification(cooldown time.Duration, notifier *fakeNotifier) (*VerificationService, *TokenStore) {
	store := kvstore.NewMemoryStore()
	tokens := NewTokenStore(store, time.Hour)
	reader := &fakeQuoteReader{quotes: map[string]*model.QuoteRequest{
		"req-1": {ID: "req-1", Name: "Jan", Email: "jan@example.com", ServiceType: model.ServiceWebsite},
	}}
	var n mail.Notifier
	if notifier != nil {
		n = notifier
	}
	svc := NewVerificationService(tokens, reader, store, n, VerificationConfig{
		BaseURL:  "https://example.com",
		Cooldown: cooldown,
	})
	return svc, tokens
}

func TestVerificationSendDeliversMailWithTokenLink(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestVerification(time.Minute, notifier)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "req-1", "nl"))
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "jan@example.com", notifier.sent[0].to)
	require.Contains(t, notifier.sent[0].text, "https://example.com/verify?token=")
	require.Contains(t, notifier.sent[0].html, "https://example.com/verify?token=")
}

func TestVerificationSendCooldown(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestVerification(time.Minute, notifier)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "req-1", "nl"))

	err := svc.Send(ctx, "req-1", "nl")
	cd, ok := appErr.AsCooldown(err)
	require.True(t, ok)
	require.Greater(t, cd.Wait, time.Duration(0))
	require.LessOrEqual(t, cd.Wait, time.Minute)
	require.Len(t, notifier.sent, 1)
}

func TestVerificationSendAgainAfterCooldown(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestVerification(30*time.Millisecond, notifier)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "req-1", "nl"))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, svc.Send(ctx, "req-1", "nl"))
	require.Len(t, notifier.sent, 2)

	// Token is reused while still valid, so both mails carry the same link.
	require.Equal(t, notifier.sent[0].text, notifier.sent[1].text)
}

func TestVerificationSendUnknownRequest(t *testing.T) {
	svc, _ := newTestVerification(time.Minute, &fakeNotifier{})
	err := svc.Send(context.Background(), "missing", "nl")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestVerificationConsumeFlow(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, tokens := newTestVerification(time.Minute, notifier)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "req-1", "nl"))
	token := extractToken(t, notifier.sent[0].text)

	verified, err := svc.Status(ctx, "req-1")
	require.NoError(t, err)
	require.False(t, verified)

	requestID, err := svc.Consume(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "req-1", requestID)

	verified, err = svc.Status(ctx, "req-1")
	require.NoError(t, err)
	require.True(t, verified)

	_, err = tokens.Consume(ctx, token)
	require.ErrorIs(t, err, appErr.ErrTokenConsumed)
}

func TestVerificationConsumeEmptyToken(t *testing.T) {
	svc, _ := newTestVerification(time.Minute, &fakeNotifier{})
	_, err := svc.Consume(context.Background(), "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func extractToken(t *testing.T, body string) string {
	t.Helper()
	const marker = "verify?token="
	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0)
	rest := body[idx+len(marker):]
	if end := strings.IndexAny(rest, " \n\r\t"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
