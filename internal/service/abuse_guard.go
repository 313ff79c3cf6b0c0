package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/captcha"
	"quotedesk/internal/model"
)

// Submission carries the attacker-controlled inputs the guard evaluates.
type Submission struct {
	Honeypot       string
	CaptchaToken   string
	ClientIP       string
	UserAgent      string
	AcceptLanguage string
}

type RateLimitRule struct {
	Window time.Duration
	Max    int64
}

type AbuseGuardConfig struct {
	IPLimit          RateLimitRule
	FingerprintLimit RateLimitRule
	// CaptchaRequired turns the unconfigured-captcha state into a hard
	// failure instead of the default fail-open pass.
	CaptchaRequired bool
}

// AbuseGuard composes the honeypot check, both rate limits and the remote
// CAPTCHA verification into one pass/fail decision. Checks run cheapest
// first and short-circuit on the first failure; the only side effect is
// the rate-limit counter bump, so a retry is safe.
type AbuseGuard struct {
	limiter  *RateLimiter
	verifier captcha.Verifier
	cfg      AbuseGuardConfig
}

func NewAbuseGuard(limiter *RateLimiter, verifier captcha.Verifier, cfg AbuseGuardConfig) *AbuseGuard {
	if cfg.IPLimit.Window <= 0 {
		cfg.IPLimit = RateLimitRule{Window: 10 * time.Minute, Max: 5}
	}
	if cfg.FingerprintLimit.Window <= 0 {
		cfg.FingerprintLimit = RateLimitRule{Window: time.Hour, Max: 20}
	}
	return &AbuseGuard{limiter: limiter, verifier: verifier, cfg: cfg}
}

func (g *AbuseGuard) Evaluate(ctx context.Context, sub Submission) model.SpamCheckOutcome {
	if strings.TrimSpace(sub.Honeypot) != "" {
		return model.SpamCheckOutcome{Passed: false, Reason: model.RejectHoneypot}
	}

	if !g.allow(ctx, "ip:"+sub.ClientIP, g.cfg.IPLimit) {
		return model.SpamCheckOutcome{Passed: false, Reason: model.RejectRateLimited}
	}
	if !g.allow(ctx, "fp:"+Fingerprint(sub.ClientIP, sub.UserAgent, sub.AcceptLanguage), g.cfg.FingerprintLimit) {
		return model.SpamCheckOutcome{Passed: false, Reason: model.RejectRateLimited}
	}

	if g.verifier == nil || !g.verifier.Configured() {
		if g.cfg.CaptchaRequired {
			return model.SpamCheckOutcome{Passed: false, Reason: model.RejectCaptchaFailed}
		}
		return model.SpamCheckOutcome{Passed: true, Reason: model.PassCaptchaUnconfiguredOpen}
	}
	ok, err := g.verifier.Verify(ctx, sub.CaptchaToken, sub.ClientIP)
	if err != nil {
		logutil.GetLogger(ctx).Warn("captcha verification error", zap.Error(err))
		return model.SpamCheckOutcome{Passed: false, Reason: model.RejectCaptchaFailed}
	}
	if !ok {
		return model.SpamCheckOutcome{Passed: false, Reason: model.RejectCaptchaFailed}
	}
	return model.SpamCheckOutcome{Passed: true}
}

// allow fails open on store errors: a broken counter backend should not
// stop the business from accepting requests.
func (g *AbuseGuard) allow(ctx context.Context, key string, rule RateLimitRule) bool {
	ok, err := g.limiter.Allow(ctx, key, rule.Window, rule.Max)
	if err != nil {
		logutil.GetLogger(ctx).Warn("rate limit check error", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}

// Fingerprint derives a secondary rate-limit identity from request
// metadata, so rotating IPs alone does not reset the coarser limit.
func Fingerprint(ip, userAgent, acceptLanguage string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + acceptLanguage))
	return hex.EncodeToString(sum[:8])
}
