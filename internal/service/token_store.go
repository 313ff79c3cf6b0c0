package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quotedesk/internal/kvstore"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

const (
	keyTokenPayload = "verify:token:"
	keyTokenUsed    = "verify:used:"
	keyCurrentToken = "verify:current:"
	keyVerifiedFlag = "verify:done:"
)

// TokenStore issues and validates single-use verification tokens. At most
// one unconsumed token is current per request id: a repeated send reuses
// the still-valid token instead of minting a second one.
type TokenStore struct {
	store kvstore.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewTokenStore(store kvstore.Store, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenStore{store: store, ttl: ttl, now: time.Now}
}

// CreateOrReuse returns the current unconsumed token for the request,
// minting a fresh one only when none exists or the previous one expired.
func (s *TokenStore) CreateOrReuse(ctx context.Context, requestID, email string) (string, error) {
	current, err := s.store.Get(ctx, keyCurrentToken+requestID)
	if err == nil && current != "" {
		if _, err := s.store.Get(ctx, keyTokenPayload+current); err == nil {
			if !s.isConsumed(ctx, current) {
				return current, nil
			}
		}
	} else if err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		return "", err
	}

	token := newToken()
	payload, err := json.Marshal(model.VerificationToken{
		Token:     token,
		RequestID: requestID,
		Email:     email,
		Ctime:     s.now().Unix(),
	})
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, keyTokenPayload+token, string(payload), s.ttl); err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, keyCurrentToken+requestID, token, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume marks the token used and returns the bound request id, exactly
// once. A replayed token fails with ErrTokenConsumed, an unknown or expired
// one with ErrTokenNotFound.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	if s.isConsumed(ctx, token) {
		return "", appErr.ErrTokenConsumed
	}
	raw, err := s.store.Get(ctx, keyTokenPayload+token)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return "", appErr.ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	var vt model.VerificationToken
	if err := json.Unmarshal([]byte(raw), &vt); err != nil {
		return "", err
	}
	// The used marker outlives the payload so a replay after payload expiry
	// still reads as consumed, not as unknown.
	created, err := s.store.SetNX(ctx, keyTokenUsed+token, "1", 2*s.ttl)
	if err != nil {
		return "", err
	}
	if !created {
		return "", appErr.ErrTokenConsumed
	}
	if err := s.store.Set(ctx, keyVerifiedFlag+vt.RequestID, "1", 0); err != nil {
		return "", err
	}
	_ = s.store.Delete(ctx, keyCurrentToken+vt.RequestID)
	return vt.RequestID, nil
}

// IsVerified reports whether any token for the request has been consumed.
func (s *TokenStore) IsVerified(ctx context.Context, requestID string) (bool, error) {
	_, err := s.store.Get(ctx, keyVerifiedFlag+requestID)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *TokenStore) isConsumed(ctx context.Context, token string) bool {
	_, err := s.store.Get(ctx, keyTokenUsed+token)
	return err == nil
}
