package service

import (
	"context"
	"encoding/json"
	"time"

	"quotedesk/internal/kvstore"
)

const keyAuditLog = "audit:intake"

// AuditLog is a bounded append log of intake decisions, backed by the
// key-value store so entries survive restarts and are shared across
// instances. Old entries fall off through length trimming and TTL.
type AuditLog struct {
	store  kvstore.Store
	maxLen int64
	ttl    time.Duration
	now    func() time.Time
}

type AuditEntry struct {
	RequestID string `json:"request_id,omitempty"`
	Email     string `json:"email"`
	ClientIP  string `json:"client_ip"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	Ctime     int64  `json:"ctime"`
}

const (
	AuditAccepted = "accepted"
	AuditRejected = "rejected"
)

func NewAuditLog(store kvstore.Store, maxLen int64, ttl time.Duration) *AuditLog {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &AuditLog{store: store, maxLen: maxLen, ttl: ttl, now: time.Now}
}

func (l *AuditLog) Append(ctx context.Context, entry AuditEntry) error {
	entry.Ctime = l.now().Unix()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return l.store.PushTrim(ctx, keyAuditLog, string(data), l.maxLen, l.ttl)
}

// Recent returns up to n entries, newest first.
func (l *AuditLog) Recent(ctx context.Context, n int64) ([]AuditEntry, error) {
	if n <= 0 || n > l.maxLen {
		n = l.maxLen
	}
	raw, err := l.store.ListRange(ctx, keyAuditLog, 0, n-1)
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(raw))
	for _, item := range raw {
		var entry AuditEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
