package errcode

const (
	ErrUnknown = 20000000 + iota
	ErrInvalid
	ErrNotFound
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrSubmissionRejected
	ErrCooldownActive
	ErrTokenNotFound
	ErrTokenConsumed
	ErrAnalysisUnavailable
)
