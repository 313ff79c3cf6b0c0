package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/mail"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

// QuoteStore is the persistence collaborator for accepted requests.
type QuoteStore interface {
	Create(ctx context.Context, q *model.QuoteRequest) error
	GetByID(ctx context.Context, id string) (*model.QuoteRequest, error)
}

type SubmitInput struct {
	Email       string
	Name        string
	Company     string
	Phone       string
	ServiceType string
	Description string
	BudgetHint  string
	Locale      string
	Submission
}

type IntakeConfig struct {
	AdminEmail        string
	BackgroundTimeout time.Duration
}

// IntakeService is the intake entry point: abuse evaluation and
// persistence run synchronously and gate acceptance; triage analysis,
// embedding and notifications run as fire-and-forget background work whose
// failures never reach the submitter.
type IntakeService struct {
	quotes       QuoteStore
	guard        *AbuseGuard
	triage       *TriageService
	similarity   *SimilarityService
	verification *VerificationService
	audit        *AuditLog
	notifier     mail.Notifier
	cfg          IntakeConfig
	now          func() time.Time
}

func NewIntakeService(
	quotes QuoteStore,
	guard *AbuseGuard,
	triage *TriageService,
	similarity *SimilarityService,
	verification *VerificationService,
	audit *AuditLog,
	notifier mail.Notifier,
	cfg IntakeConfig,
) *IntakeService {
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = 30 * time.Second
	}
	return &IntakeService{
		quotes:       quotes,
		guard:        guard,
		triage:       triage,
		similarity:   similarity,
		verification: verification,
		audit:        audit,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *IntakeService) Submit(ctx context.Context, input SubmitInput) (string, error) {
	if err := validateSubmitInput(&input); err != nil {
		return "", err
	}

	outcome := s.guard.Evaluate(ctx, input.Submission)
	if !outcome.Passed {
		s.auditDecision(ctx, AuditEntry{
			Email:    input.Email,
			ClientIP: input.ClientIP,
			Decision: AuditRejected,
			Reason:   outcome.Reason,
		})
		// The detailed reason stays in the audit log; the client only sees
		// a generic rejection (429 for throttling, 400 otherwise).
		if outcome.Reason == model.RejectRateLimited {
			return "", appErr.ErrTooMany
		}
		return "", appErr.ErrInvalid
	}

	now := s.now().Unix()
	req := &model.QuoteRequest{
		ID:          newID(),
		Email:       input.Email,
		Name:        input.Name,
		Company:     input.Company,
		Phone:       input.Phone,
		ServiceType: input.ServiceType,
		Description: input.Description,
		BudgetHint:  input.BudgetHint,
		Status:      model.StatusNew,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.quotes.Create(ctx, req); err != nil {
		return "", err
	}
	s.auditDecision(ctx, AuditEntry{
		RequestID: req.ID,
		Email:     req.Email,
		ClientIP:  input.ClientIP,
		Decision:  AuditAccepted,
		Reason:    outcome.Reason,
	})
	logutil.GetLogger(ctx).Info("quote request accepted",
		zap.String("request_id", req.ID), zap.String("service_type", req.ServiceType))

	// Persistence is done, so the background tasks can read the record.
	go s.runBackground(context.WithoutCancel(ctx), req, input.Locale)

	return req.ID, nil
}

// runBackground executes the non-blocking half of intake. Every step logs
// and swallows its own error: by the time this runs, the submitter already
// has a success response.
func (s *IntakeService) runBackground(ctx context.Context, req *model.QuoteRequest, locale string) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BackgroundTimeout)
	defer cancel()
	logger := logutil.GetLogger(ctx).With(zap.String("request_id", req.ID))

	if _, err := s.triage.Compute(ctx, req, false); err != nil {
		if !errors.Is(err, appErr.ErrProviderUnavailable) {
			logger.Warn("background triage analysis failed", zap.Error(err))
		}
	}
	if err := s.similarity.EmbedAndIndex(ctx, req); err != nil {
		logger.Warn("background embedding failed", zap.Error(err))
	}
	if err := s.verification.Send(ctx, req.ID, locale); err != nil {
		logger.Warn("background verification send failed", zap.Error(err))
	}
	s.notifyAdmin(ctx, req, logger)
}

func (s *IntakeService) notifyAdmin(ctx context.Context, req *model.QuoteRequest, logger *zap.Logger) {
	if s.notifier == nil || s.cfg.AdminEmail == "" {
		return
	}
	subject := fmt.Sprintf("New quote request: %s", req.ServiceType)
	text := fmt.Sprintf("Request %s\nFrom: %s <%s>\nCompany: %s\nService: %s\n\n%s",
		req.ID, req.Name, req.Email, req.Company, req.ServiceType, req.Description)
	html := "<pre>" + text + "</pre>"
	if err := s.notifier.Send(s.cfg.AdminEmail, subject, html, text); err != nil {
		logger.Warn("admin notification failed", zap.Error(err))
	}
}

func (s *IntakeService) auditDecision(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Warn("audit append failed", zap.Error(err))
	}
}

func validateSubmitInput(input *SubmitInput) error {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Description = strings.TrimSpace(input.Description)
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return appErr.ErrInvalid
	}
	if !model.IsValidServiceType(input.ServiceType) {
		return appErr.ErrInvalid
	}
	if input.Description == "" {
		return appErr.ErrInvalid
	}
	return nil
}
