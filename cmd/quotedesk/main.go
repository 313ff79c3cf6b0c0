package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"quotedesk/internal/ai"
	"quotedesk/internal/captcha"
	"quotedesk/internal/config"
	"quotedesk/internal/handler"
	"quotedesk/internal/job"
	"quotedesk/internal/kvstore"
	"quotedesk/internal/mail"
	"quotedesk/internal/middleware"
	"quotedesk/internal/repo"
	"quotedesk/internal/schedule"
	"quotedesk/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "quotedesk",
		Short: "quotedesk intake and triage server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run quotedesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("redis", cfg.Redis.Addr),
		zap.Int("ai_providers", len(cfg.AI.Providers)),
	)

	var rdb *redis.Client
	var store kvstore.Store
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = kvstore.NewRedisStore(rdb, kvstore.WithPrefix(cfg.Redis.Prefix))
	} else {
		logutil.GetLogger(context.Background()).Warn("no redis configured, using in-process store")
		store = kvstore.NewMemoryStore()
	}

	generatorGroup, embedderGroup, err := buildAI(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai providers: %w", err)
	}

	var notifier mail.Notifier
	if cfg.Mail.Host != "" && cfg.Mail.Port != 0 && cfg.Mail.From != "" {
		notifier = mail.NewSMTPNotifier(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	} else {
		logutil.GetLogger(context.Background()).Warn("no mail configured, verification mails will only be logged")
	}

	verifier := captcha.NewVerifier(cfg.Captcha.Secret, captcha.WithEndpoint(cfg.Captcha.Endpoint))

	quoteRepo := repo.NewQuoteRepo(db)
	vectorRepo := repo.NewVectorRepo(db)

	limiter := service.NewRateLimiter(store)
	guard := service.NewAbuseGuard(limiter, verifier, service.AbuseGuardConfig{
		IPLimit: service.RateLimitRule{
			Window: time.Duration(cfg.RateLimit.IPWindowSeconds) * time.Second,
			Max:    cfg.RateLimit.IPMax,
		},
		FingerprintLimit: service.RateLimitRule{
			Window: time.Duration(cfg.RateLimit.FingerprintWindowSeconds) * time.Second,
			Max:    cfg.RateLimit.FingerprintMax,
		},
		CaptchaRequired: cfg.Captcha.Required,
	})

	tokens := service.NewTokenStore(store, time.Duration(cfg.Verification.TokenTTLHours)*time.Hour)
	verification := service.NewVerificationService(tokens, quoteRepo, store, notifier, service.VerificationConfig{
		BaseURL:       cfg.Verification.BaseURL,
		Cooldown:      time.Duration(cfg.Verification.CooldownSeconds) * time.Second,
		DefaultLocale: cfg.Verification.DefaultLocale,
	})
	triage := service.NewTriageService(store, generatorGroup, service.TriageConfig{
		CacheTTL: time.Duration(cfg.Triage.CacheTTLDays) * 24 * time.Hour,
		Timeout:  time.Duration(cfg.Triage.TimeoutSeconds) * time.Second,
	})
	estimator := service.NewEstimator(generatorGroup, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)

	var vectorIndex service.VectorIndex
	if embedderGroup != nil {
		vectorIndex = vectorRepo
	}
	similarity := service.NewSimilarityService(quoteRepo, vectorIndex, embedderGroup, service.SimilarityConfig{
		Limit:    cfg.Similarity.Limit,
		MinScore: cfg.Similarity.MinScore,
	})
	audit := service.NewAuditLog(store, cfg.Audit.MaxEntries, time.Duration(cfg.Audit.TTLDays)*24*time.Hour)
	intake := service.NewIntakeService(quoteRepo, guard, triage, similarity, verification, audit, notifier, service.IntakeConfig{
		AdminEmail: cfg.Mail.AdminEmail,
	})

	deps := handler.RouterDeps{
		Intake:       handler.NewIntakeHandler(intake),
		Verification: handler.NewVerificationHandler(verification),
		Analysis:     handler.NewAnalysisHandler(triage, quoteRepo),
		Similarity:   handler.NewSimilarityHandler(similarity),
		Estimate:     handler.NewEstimateHandler(estimator),
		Admin:        handler.NewAdminHandler(audit),
		Health:       handler.NewHealthHandler(db, rdb),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if embedderGroup != nil {
		backfill := job.NewEmbeddingBackfillJob(vectorRepo, similarity, cfg.Jobs.BackfillBatchSize)
		if err := scheduler.AddJob(backfill, cfg.Jobs.EmbeddingBackfillSpec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// buildAI turns the configured provider list into fallback groups, in the
// order they were declared.
func buildAI(cfg config.AIConfig) (ai.IGenerator, ai.IEmbedder, error) {
	var generators []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, pc := range cfg.Providers {
		provider, err := ai.NewProvider(pc.Provider, pc.Args)
		if err != nil {
			return nil, nil, err
		}
		if pc.Model != "" {
			generators = append(generators, ai.GeneratorEntry{
				Name:      pc.Provider + "/" + pc.Model,
				Generator: ai.NewGenerator(provider, pc.Model),
			})
		}
		if pc.EmbedModel != "" {
			embedders = append(embedders, ai.EmbedderEntry{
				Name:     pc.Provider + "/" + pc.EmbedModel,
				Embedder: ai.NewEmbedder(provider, pc.EmbedModel),
			})
		}
	}
	return ai.NewGroupGenerator(generators), ai.NewGroupEmbedder(embedders), nil
}
