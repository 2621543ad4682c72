package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/auth"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/events"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/integration/automation"
	"github.com/xavierca1/leadflow/internal/infra/integration/paymob"
	"github.com/xavierca1/leadflow/internal/infra/integration/telegram"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/tracing"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.IsProd() {
		log = zerolog.New(os.Stdout)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Str("service", tracing.ServiceName).Logger()
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Object("config", cfg).Msg("🚀 starting leadflow")

	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}

	_, shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
		Env:         cfg.Env,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("📦 schema applied")
	}

	// Repositories
	tenantRepo := database.NewTenantRepository(db)
	userRepo := database.NewUserRepository(db)
	agentRepo := database.NewAgentRepository(db)
	assignmentRepo := database.NewAssignmentRepository(db)
	leadRepo := database.NewLeadRepository(db)
	subRepo := database.NewSubscriptionRepository(db)
	ruleRepo := database.NewRoutingRuleRepository(db)

	// Realtime events: NOTIFY fans out to every instance, the listener feeds
	// the local hub.
	hub := events.NewHub()
	publisher := events.NewPGPublisher(db)
	listener := events.NewListener(cfg.DatabaseURL, hub, log)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Error().Err(err).Msg("event listener stopped")
		}
	}()

	// Fallback channel: queue when RabbitMQ is configured, direct HTTP otherwise.
	webhookClient := automation.NewClient(10 * time.Second)
	var fallback usecase.FallbackDispatcher = webhookClient
	var broker handlers.BrokerStatus

	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()

		fallback = queue.NewFallbackQueue(rabbitMQ.Ch)
		broker = rabbitMQ

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			return err
		}
		fallbackWorker := queue.NewWorker(consumerCh, webhookClient, leadRepo, publisher, log)
		go func() {
			if err := fallbackWorker.Start(ctx); err != nil {
				log.Error().Err(err).Msg("fallback worker stopped")
			}
		}()
		log.Info().Msg("🐇 fallback queue enabled")
	}

	var mailer usecase.EmailService
	if cfg.MailHost != "" {
		mailer = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	}

	// Use cases
	hasher := auth.NewBcryptHasher()
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	gate := usecase.NewSubscriptionGate(subRepo, cfg.SubscriptionCacheTTL, log)

	notifier := usecase.NewNotifyAgentUseCase(
		telegram.NewClient(cfg.TelegramAPIEndpoint, cfg.NotifyTimeout),
		fallback,
		leadRepo,
		publisher,
		cfg.TelegramBotToken,
		cfg.AutomationWebhook,
		cfg.NotifyTimeout,
		log,
	)
	submitLeadUC := usecase.NewSubmitLeadUseCase(
		tenantRepo, ruleRepo, assignmentRepo,
		middleware.InstrumentNotifier(notifier),
		publisher, cfg.NotifyWait, log,
	)
	signupUC := usecase.NewSignupUseCase(tenantRepo, userRepo, subRepo, hasher, mailer, log)
	loginUC := usecase.NewLoginUseCase(userRepo, hasher, sessions)
	rosterUC := usecase.NewAgentRosterUseCase(agentRepo, publisher, log)
	rulesUC := usecase.NewRoutingRulesUseCase(ruleRepo)
	leadLogsUC := usecase.NewLeadLogsUseCase(leadRepo, agentRepo, tenantRepo)
	activateUC := usecase.NewActivateSubscriptionUseCase(subRepo, gate, publisher, cfg.SubscriptionDays, log)
	expireUC := usecase.NewExpireSubscriptionsUseCase(subRepo, gate, publisher, log)
	checkoutUC := usecase.NewCheckoutUseCase(
		paymob.NewClient(cfg.PaymobAPIKey, cfg.PaymobBaseURL, cfg.PaymobIntegrationID),
		cfg.PaymobAmountCents, cfg.PaymobCurrency, cfg.PaymobIframeID, log,
	)

	go worker.NewSubscriptionExpirationWorker(expireUC, cfg.ExpirationTick, log).Start(ctx)

	secure := cfg.IsProd()
	router := newRouter(routes{
		lead:         handlers.NewLeadHandler(submitLeadUC, cfg.IntakeRateLimit),
		webhook:      handlers.NewWebhookHandler(cfg.PaymobHMACSecret, activateUC, log),
		auth:         handlers.NewAuthHandler(signupUC, loginUC, sessions, secure),
		checkout:     handlers.NewCheckoutHandler(checkoutUC),
		subscription: handlers.NewSubscriptionHandler(gate, cfg.PaymobAmountCents, cfg.PaymobCurrency),
		agents:       handlers.NewAgentHandler(rosterUC),
		leadLogs:     handlers.NewLeadLogHandler(leadLogsUC),
		rules:        handlers.NewRulesHandler(rulesUC),
		events:       handlers.NewEventsHandler(hub),
		health:       handlers.NewHealthHandler(db, broker, version),
		gate:         middleware.NewGate(sessions, gate, log),
	}, cfg.AllowedOrigins(), log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("🔥 leadflow listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("⏳ shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
