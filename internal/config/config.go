package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int             `json:"port"`
	DatabaseDSN   string          `json:"database_dsn"`
	MigrationsDir string          `json:"migrations_dir"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Redis         RedisConfig     `json:"redis"`
	Mail          MailConfig      `json:"mail"`
	Captcha       CaptchaConfig   `json:"captcha"`
	AI            AIConfig        `json:"ai"`
	Verification  VerifyConfig    `json:"verification"`
	RateLimit     RateLimitConfig `json:"rate_limit"`
	Triage        TriageConfig    `json:"triage"`
	Similarity    SimilarConfig   `json:"similarity"`
	Audit         AuditConfig     `json:"audit"`
	Jobs          JobsConfig      `json:"jobs"`
	CORSAllowlist []string        `json:"cors_allowlist"`
}

// RedisConfig with an empty addr selects the in-memory store; counters and
// tokens then lose their cross-instance guarantees.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

type MailConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	From       string `json:"from"`
	AdminEmail string `json:"admin_email"`
}

type CaptchaConfig struct {
	Secret   string `json:"secret"`
	Endpoint string `json:"endpoint"`
	// Required flips the unconfigured-secret state from fail-open to
	// fail-closed.
	Required bool `json:"required"`
}

type AIProviderConfig struct {
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	EmbedModel string      `json:"embed_model"`
	Args       interface{} `json:"args"`
}

// AIConfig lists providers in fallback order; an empty list is a valid
// deployment without AI features.
type AIConfig struct {
	Providers      []AIProviderConfig `json:"providers"`
	TimeoutSeconds int                `json:"timeout_seconds"`
}

type VerifyConfig struct {
	BaseURL         string `json:"base_url"`
	TokenTTLHours   int    `json:"token_ttl_hours"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	DefaultLocale   string `json:"default_locale"`
}

type RateLimitConfig struct {
	IPMax                    int64 `json:"ip_max"`
	IPWindowSeconds          int   `json:"ip_window_seconds"`
	FingerprintMax           int64 `json:"fingerprint_max"`
	FingerprintWindowSeconds int   `json:"fingerprint_window_seconds"`
}

type TriageConfig struct {
	CacheTTLDays   int `json:"cache_ttl_days"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

type SimilarConfig struct {
	Limit    int     `json:"limit"`
	MinScore float64 `json:"min_score"`
}

type AuditConfig struct {
	MaxEntries int64 `json:"max_entries"`
	TTLDays    int   `json:"ttl_days"`
}

type JobsConfig struct {
	EmbeddingBackfillSpec string `json:"embedding_backfill_spec"`
	BackfillBatchSize     int    `json:"backfill_batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database_dsn is required")
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Verification.BaseURL == "" {
		return nil, fmt.Errorf("verification.base_url is required")
	}
	if cfg.Verification.TokenTTLHours == 0 {
		cfg.Verification.TokenTTLHours = 24
	}
	if cfg.Verification.CooldownSeconds == 0 {
		cfg.Verification.CooldownSeconds = 60
	}
	if cfg.Verification.DefaultLocale == "" {
		cfg.Verification.DefaultLocale = "nl"
	}
	if cfg.RateLimit.IPMax == 0 {
		cfg.RateLimit.IPMax = 5
	}
	if cfg.RateLimit.IPWindowSeconds == 0 {
		cfg.RateLimit.IPWindowSeconds = 600
	}
	if cfg.RateLimit.FingerprintMax == 0 {
		cfg.RateLimit.FingerprintMax = 20
	}
	if cfg.RateLimit.FingerprintWindowSeconds == 0 {
		cfg.RateLimit.FingerprintWindowSeconds = 3600
	}
	if cfg.Triage.CacheTTLDays == 0 {
		cfg.Triage.CacheTTLDays = 90
	}
	if cfg.Triage.TimeoutSeconds == 0 {
		cfg.Triage.TimeoutSeconds = 15
	}
	if cfg.Similarity.Limit == 0 {
		cfg.Similarity.Limit = 5
	}
	if cfg.Similarity.MinScore == 0 {
		cfg.Similarity.MinScore = 0.65
	}
	if cfg.Audit.MaxEntries == 0 {
		cfg.Audit.MaxEntries = 1000
	}
	if cfg.Audit.TTLDays == 0 {
		cfg.Audit.TTLDays = 30
	}
	if cfg.Jobs.EmbeddingBackfillSpec == "" {
		cfg.Jobs.EmbeddingBackfillSpec = "*/15 * * * *"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 15
	}
	for i, p := range cfg.AI.Providers {
		if p.Provider == "" {
			return nil, fmt.Errorf("ai.providers[%d].provider is required", i)
		}
		if p.Model == "" && p.EmbedModel == "" {
			return nil, fmt.Errorf("ai.providers[%d] needs model or embed_model", i)
		}
	}
	return &cfg, nil
}
