package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a client-supplied challenge token against the remote
// verification endpoint. An empty secret means the integration is not
// configured; callers decide whether that fails open or closed.
type Verifier interface {
	Configured() bool
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type httpVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

type Option func(*httpVerifier)

func WithEndpoint(endpoint string) Option {
	return func(v *httpVerifier) {
		if strings.TrimSpace(endpoint) != "" {
			v.endpoint = endpoint
		}
	}
}

func WithClient(client *http.Client) Option {
	return func(v *httpVerifier) { v.client = client }
}

func NewVerifier(secret string, opts ...Option) Verifier {
	v := &httpVerifier{
		secret:   strings.TrimSpace(secret),
		endpoint: defaultVerifyEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *httpVerifier) Configured() bool {
	return v.secret != ""
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *httpVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !v.Configured() {
		return false, fmt.Errorf("captcha secret not configured")
	}
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha verify failed: %s", resp.Status)
	}
	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Success, nil
}
