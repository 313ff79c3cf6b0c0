package model

// VerificationToken binds one opaque token value to one quote request and
// the e-mail address it was sent to. Stored in the key-value store keyed by
// the token value itself; expiry is handled by the store TTL.
type VerificationToken struct {
	Token     string `json:"token"`
	RequestID string `json:"request_id"`
	Email     string `json:"email"`
	Ctime     int64  `json:"ctime"`
}
