package model

const (
	RejectHoneypot              = "honeypot"
	RejectRateLimited           = "rate_limited"
	RejectCaptchaFailed         = "captcha_failed"
	PassCaptchaUnconfiguredOpen = "captcha_unconfigured_fail_open"
)

type SpamCheckOutcome struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}
