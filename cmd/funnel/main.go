package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/auth"
	"github.com/fitcoachhq/lead-funnel-go/internal/config"
	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/funnel"
	"github.com/fitcoachhq/lead-funnel-go/internal/handler"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/cache"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/email"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/memstore"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/provider"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/resilience"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/supabase"
	"github.com/fitcoachhq/lead-funnel-go/internal/leads"
	"github.com/fitcoachhq/lead-funnel-go/internal/port"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_idle_ttl", cfg.SessionIdleTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("lead_prompt_probability", cfg.LeadPromptProbability),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "lead-funnel")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// --- Stores ---
	var profileStore port.ProfileRepository
	var leadStore port.LeadStore

	if cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		profileStore = supabaseClient
		leadStore = supabaseClient
	} else {
		// No datastore configured: profiles live in memory and lead capture
		// is unavailable. Good enough for local widget development.
		logger.Warn("Supabase not configured, using in-memory profiles")
		profileStore = memstore.NewProfileStore()
	}

	profiles := funnel.NewCachedProfiles(
		profileStore,
		cache.New[*domain.UserProfile](cfg.CacheTTL),
		metrics,
	)

	// --- Chat provider ---
	chatProvider := provider.NewClient(
		httpClient,
		cfg.ProviderBaseURL,
		cfg.ProviderAPIKey,
		cfg.ProviderModel,
		resilience.NewCircuitBreaker("chat-provider"),
		resilienceCfg,
		resilience.NewBulkhead(cfg.MaxConcurrency),
		logger,
	)

	// --- Email ---
	var emailSender port.EmailSender
	if cfg.ResendAPIKey != "" {
		emailSender = email.NewSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailName, logger)
	} else {
		logger.Warn("email: RESEND_API_KEY not set, segment emails disabled")
	}

	// --- Services ---
	var leadSvc *leads.Service
	if leadStore != nil {
		leadSvc = leads.NewService(leadStore, profiles, emailSender, metrics, logger)
	} else {
		logger.Warn("lead capture disabled: no datastore configured")
	}

	var capturer funnel.LeadCapturer
	if leadSvc != nil {
		capturer = leadSvc
	}
	chatSvc := funnel.NewConversationService(
		profiles,
		chatProvider,
		funnel.NewResponseLibrary(),
		funnel.NewSessionStore(cfg.SessionIdleTTL),
		capturer,
		metrics,
		logger,
		funnel.Options{LeadPromptProbability: cfg.LeadPromptProbability},
	)

	var authSvc *auth.AdminService
	if cfg.AdminPasswordHash != "" {
		authSvc = auth.NewAdminService(cfg.JWTSecret, cfg.AdminPasswordHash, cfg.AdminTokenTTL, logger)
		logger.Info("admin dashboard auth enabled")
	} else {
		logger.Warn("admin dashboard disabled: ADMIN_PASSWORD_HASH not set")
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Chat:           chatSvc,
		Leads:          leadSvc,
		Profiles:       profiles,
		Auth:           authSvc,
		Metrics:        metrics,
		Logger:         logger,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
