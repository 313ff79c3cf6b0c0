package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quotedesk/internal/kvstore"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

type fakeQuoteStore struct {
	mu     sync.Mutex
	quotes map[string]*model.QuoteRequest
}

func newFakeQuoteStore() *fakeQuoteStore {
	return &fakeQuoteStore{quotes: map[string]*model.QuoteRequest{}}
}

func (f *fakeQuoteStore) Create(ctx context.Context, q *model.QuoteRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.quotes[q.ID]; ok {
		return appErr.ErrConflict
	}
	f.quotes[q.ID] = q
	return nil
}

func (f *fakeQuoteStore) GetByID(ctx context.Context, id string) (*model.QuoteRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuoteStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.quotes)
}

type syncNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *syncNotifier) Send(to, subject, htmlBody, textBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: subject, html: htmlBody, text: textBody})
	return nil
}

func (n *syncNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.to)
	}
	return out
}

type intakeFixture struct {
	intake   *IntakeService
	quotes   *fakeQuoteStore
	audit    *AuditLog
	notifier *syncNotifier
}

func newIntakeFixture(t *testing.T, guardCfg AbuseGuardConfig) *intakeFixture {
	t.Helper()
	store := kvstore.NewMemoryStore()
	quotes := newFakeQuoteStore()
	notifier := &syncNotifier{}

	limiter := NewRateLimiter(store)
	guard := NewAbuseGuard(limiter, nil, guardCfg)
	tokens := NewTokenStore(store, time.Hour)
	verification := NewVerificationService(tokens, quotes, store, notifier, VerificationConfig{
		BaseURL: "https://example.com",
	})
	triage := NewTriageService(store, nil, TriageConfig{})
	similarity := NewSimilarityService(&fakeQuoteFinder{byID: map[string]*model.QuoteRequest{}}, nil, nil, SimilarityConfig{})
	audit := NewAuditLog(store, 100, time.Hour)
	intake := NewIntakeService(quotes, guard, triage, similarity, verification, audit, notifier, IntakeConfig{
		AdminEmail:        "admin@example.com",
		BackgroundTimeout: 5 * time.Second,
	})
	return &intakeFixture{intake: intake, quotes: quotes, audit: audit, notifier: notifier}
}

func validInput() SubmitInput {
	return SubmitInput{
		Email:       "Klant@Example.com",
		Name:        "Jan",
		Company:     "Bakkerij Jansen",
		ServiceType: model.ServiceWebsite,
		Description: "Nieuwe website voor onze bakkerij",
		Locale:      "nl",
		Submission: Submission{
			ClientIP:       "10.0.0.1",
			UserAgent:      "Mozilla/5.0",
			AcceptLanguage: "nl-NL",
		},
	}
}

func TestIntakeSubmitAccepted(t *testing.T) {
	fx := newIntakeFixture(t, AbuseGuardConfig{})
	ctx := context.Background()

	id, err := fx.intake.Submit(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := fx.quotes.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "klant@example.com", stored.Email)
	require.Equal(t, model.StatusNew, stored.Status)
	require.NotZero(t, stored.Ctime)

	entries, err := fx.audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, AuditAccepted, entries[0].Decision)
	require.Equal(t, id, entries[0].RequestID)

	// Background half: verification mail to the submitter plus the admin
	// notification, in some order.
	require.Eventually(t, func() bool {
		return len(fx.notifier.recipients()) == 2
	}, 3*time.Second, 10*time.Millisecond)
	require.ElementsMatch(t, []string{"klant@example.com", "admin@example.com"}, fx.notifier.recipients())
}

func TestIntakeSubmitHoneypotRejected(t *testing.T) {
	fx := newIntakeFixture(t, AbuseGuardConfig{})
	ctx := context.Background()

	input := validInput()
	input.Honeypot = "http://spam.example"
	_, err := fx.intake.Submit(ctx, input)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Zero(t, fx.quotes.count())

	entries, err := fx.audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, AuditRejected, entries[0].Decision)
	require.Equal(t, model.RejectHoneypot, entries[0].Reason)
}

func TestIntakeSubmitRateLimited(t *testing.T) {
	fx := newIntakeFixture(t, AbuseGuardConfig{
		IPLimit:          RateLimitRule{Window: time.Minute, Max: 1},
		FingerprintLimit: RateLimitRule{Window: time.Minute, Max: 100},
	})
	ctx := context.Background()

	_, err := fx.intake.Submit(ctx, validInput())
	require.NoError(t, err)
	_, err = fx.intake.Submit(ctx, validInput())
	require.ErrorIs(t, err, appErr.ErrTooMany)
	require.Equal(t, 1, fx.quotes.count())
}

func TestIntakeSubmitValidation(t *testing.T) {
	fx := newIntakeFixture(t, AbuseGuardConfig{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing email", func(in *SubmitInput) { in.Email = "" }},
		{"email without at", func(in *SubmitInput) { in.Email = "not-an-address" }},
		{"unknown service type", func(in *SubmitInput) { in.ServiceType = "consultancy" }},
		{"empty description", func(in *SubmitInput) { in.Description = "   " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := fx.intake.Submit(ctx, input)
			require.ErrorIs(t, err, appErr.ErrInvalid)
		})
	}
	require.Zero(t, fx.quotes.count())
}
