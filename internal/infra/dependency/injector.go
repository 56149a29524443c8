// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/config"
	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/infra/server/router"
	"github.com/ledger-recon/backend/internal/integration/adapters"
	"github.com/ledger-recon/backend/internal/integration/email"
	"github.com/ledger-recon/backend/internal/integration/email/templates"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/controller"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/middleware"
	"github.com/ledger-recon/backend/internal/integration/lock"
	"github.com/ledger-recon/backend/internal/integration/matchingconfig"
	"github.com/ledger-recon/backend/internal/integration/metrics"
	"github.com/ledger-recon/backend/internal/integration/persistence"
)

// Options carries optional collaborators. Zero values select the defaults.
type Options struct {
	// Redis backs the venue lock; nil selects an in-process lock.
	Redis *redis.Client
	// EmailSender overrides the Resend client built from config.
	EmailSender adapter.EmailSender
	// Registry receives the metrics; nil creates a private registry.
	Registry *prometheus.Registry
}

// Injector holds all application dependencies.
type Injector struct {
	Config   *config.Config
	DB       *gorm.DB
	UseCases controller.ReconciliationUseCases
	Matching *matchingconfig.Provider
	Registry *prometheus.Registry
	Router   *router.Router
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB, opts Options) (*Injector, error) {
	matching, err := matchingconfig.Load(cfg.Matching.File, valueobject.DefaultMatchingConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to load matching config: %w", err)
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	recMetrics := metrics.NewPrometheusMetrics(registry)

	// Create repositories
	transactionRepo := persistence.NewBankTransactionRepository(db)
	ledgerRepo := persistence.NewLedgerRepository(db)
	auditRepo := persistence.NewAuditRepository(db)

	// Create adapters/services
	var locker adapter.VenueLocker
	if opts.Redis != nil {
		locker = lock.NewRedisVenueLocker(opts.Redis, cfg.Redis.LockTTL)
	} else {
		locker = lock.NewLocalVenueLocker()
	}

	notifier, err := newReviewNotifier(cfg, opts.EmailSender)
	if err != nil {
		return nil, err
	}

	// Create use cases
	finder := reconciliation.NewFindCandidatesUseCase(ledgerRepo, matching)
	useCases := controller.ReconciliationUseCases{
		Import:      reconciliation.NewImportTransactionsUseCase(transactionRepo),
		List:        reconciliation.NewListTransactionsUseCase(transactionRepo),
		Batch:       reconciliation.NewBatchReconcileUseCase(transactionRepo, finder, matching, locker, notifier, recMetrics),
		Summary:     reconciliation.NewGetSummaryUseCase(transactionRepo),
		Review:      reconciliation.NewGetReviewUseCase(transactionRepo, ledgerRepo, finder),
		Audit:       reconciliation.NewGetAuditUseCase(transactionRepo, auditRepo),
		Confirm:     reconciliation.NewConfirmUseCase(transactionRepo, recMetrics),
		ManualMatch: reconciliation.NewManualMatchUseCase(transactionRepo, ledgerRepo, matching, recMetrics),
		Ignore:      reconciliation.NewIgnoreUseCase(transactionRepo, recMetrics),
		Unmatch:     reconciliation.NewUnmatchUseCase(transactionRepo, recMetrics),
	}

	// Create controllers
	checks := map[string]controller.HealthChecker{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if opts.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return opts.Redis.Ping(ctx).Err()
		}
	}
	healthController := controller.NewHealthController(checks)
	reconciliationController := controller.NewReconciliationController(useCases)

	// Create middleware
	var runRateLimiter *middleware.RateLimiter
	if cfg.Server.RunRateLimit > 0 {
		runRateLimiter = middleware.NewRateLimiterWithConfig(cfg.Server.RunRateLimit, time.Minute)
	}
	authMiddleware := middleware.NewAuthMiddleware(adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer))

	var metricsHandler http.Handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	r := router.NewRouter(healthController, reconciliationController, runRateLimiter, authMiddleware, metricsHandler)

	return &Injector{
		Config:   cfg,
		DB:       db,
		UseCases: useCases,
		Matching: matching,
		Registry: registry,
		Router:   r,
	}, nil
}

// newReviewNotifier returns nil when there is nobody to notify or no way to send.
func newReviewNotifier(cfg *config.Config, sender adapter.EmailSender) (adapter.ReviewNotifier, error) {
	if len(cfg.Email.ReviewerEmails) == 0 {
		slog.Info("Review digest disabled: no reviewer emails configured")
		return nil, nil
	}
	if sender == nil {
		if cfg.Email.ResendAPIKey == "" {
			slog.Info("Review digest disabled: RESEND_API_KEY is not set")
			return nil, nil
		}
		client := email.NewResendClient(cfg.Email.ResendAPIKey, cfg.Email.FromName, cfg.Email.FromEmail)
		if cfg.Email.ResendBaseURL != "" {
			if err := client.SetBaseURL(cfg.Email.ResendBaseURL); err != nil {
				return nil, err
			}
		}
		sender = client
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return email.NewReviewDigestNotifier(sender, renderer, email.NotifierConfig{
		Recipients:  cfg.Email.ReviewerEmails,
		AppBaseURL:  cfg.Email.AppBaseURL,
		MaxAttempts: cfg.Email.MaxAttempts,
		RetryDelay:  cfg.Email.RetryDelay,
	}), nil
}
