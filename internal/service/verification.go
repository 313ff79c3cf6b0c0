package service

import (
	"context"
	"net/url"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/kvstore"
	"quotedesk/internal/mail"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

const keyLastSent = "verify:last_sent:"

// QuoteReader is the slice of the persistence collaborator the
// verification flow needs.
type QuoteReader interface {
	GetByID(ctx context.Context, id string) (*model.QuoteRequest, error)
}

type VerificationConfig struct {
	BaseURL       string
	Cooldown      time.Duration
	DefaultLocale string
}

// VerificationService orchestrates sending verification e-mail and
// checking verification status. Sends are rate limited per request id by a
// dedicated cooldown key, independent of the intake abuse checks.
type VerificationService struct {
	tokens   *TokenStore
	quotes   QuoteReader
	store    kvstore.Store
	notifier mail.Notifier
	cfg      VerificationConfig
}

func NewVerificationService(tokens *TokenStore, quotes QuoteReader, store kvstore.Store, notifier mail.Notifier, cfg VerificationConfig) *VerificationService {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "nl"
	}
	return &VerificationService{tokens: tokens, quotes: quotes, store: store, notifier: notifier, cfg: cfg}
}

// Send dispatches (or logs, when no notifier is configured) the
// verification e-mail for a request. A send inside the cooldown window
// returns a CooldownError carrying the remaining wait.
func (s *VerificationService) Send(ctx context.Context, requestID, locale string) error {
	req, err := s.quotes.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	created, err := s.store.SetNX(ctx, keyLastSent+requestID, "1", s.cfg.Cooldown)
	if err != nil {
		return err
	}
	if !created {
		wait, err := s.store.TTL(ctx, keyLastSent+requestID)
		if err != nil || wait <= 0 {
			wait = time.Second
		}
		return &appErr.CooldownError{Wait: wait}
	}

	token, err := s.tokens.CreateOrReuse(ctx, requestID, req.Email)
	if err != nil {
		return err
	}
	verifyURL := s.cfg.BaseURL + "/verify?token=" + url.QueryEscape(token)

	if locale == "" {
		locale = s.cfg.DefaultLocale
	}
	subject, htmlBody, textBody, err := mail.RenderVerification(locale, mail.VerificationData{
		Name:      req.Name,
		VerifyURL: verifyURL,
	})
	if err != nil {
		return err
	}

	if s.notifier == nil {
		// No mail backend configured: keep the flow observable and let the
		// cooldown apply as if the mail had gone out.
		logutil.GetLogger(ctx).Info("no notifier configured, verification mail not sent",
			zap.String("request_id", requestID),
			zap.String("to", req.Email),
			zap.String("subject", subject),
			zap.String("body", textBody),
		)
		return nil
	}
	if err := s.notifier.Send(req.Email, subject, htmlBody, textBody); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("verification mail sent",
		zap.String("request_id", requestID), zap.String("to", req.Email))
	return nil
}

// Status reports whether the request's e-mail address has been confirmed.
func (s *VerificationService) Status(ctx context.Context, requestID string) (bool, error) {
	if _, err := s.quotes.GetByID(ctx, requestID); err != nil {
		return false, err
	}
	return s.tokens.IsVerified(ctx, requestID)
}

// Consume redeems a token and returns the request id it was bound to.
func (s *VerificationService) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", appErr.ErrInvalid
	}
	requestID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Info("e-mail verified", zap.String("request_id", requestID))
	return requestID, nil
}
