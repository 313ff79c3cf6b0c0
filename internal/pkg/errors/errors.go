package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalid             = errors.New("invalid")
	ErrConflict            = errors.New("conflict")
	ErrTooMany             = errors.New("too many requests")
	ErrInternal            = errors.New("internal")
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenConsumed       = errors.New("token already consumed")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// CooldownError signals that a send was attempted before the minimum
// interval elapsed. It is a throttling signal, not a failure: callers
// surface Wait to the client instead of treating it as an error.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.Wait)
}

func AsCooldown(err error) (*CooldownError, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
