// Command server runs the portfolio valuation service: lot ledger, quote
// aggregation, snapshots, attribution, advisory, and newsletter jobs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clients/gemini"
	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/advisor"
	advisorhandlers "github.com/aristath/folio/internal/modules/advisor/handlers"
	"github.com/aristath/folio/internal/modules/ledger"
	ledgerhandlers "github.com/aristath/folio/internal/modules/ledger/handlers"
	"github.com/aristath/folio/internal/modules/market"
	markethandlers "github.com/aristath/folio/internal/modules/market/handlers"
	"github.com/aristath/folio/internal/modules/newsletter"
	"github.com/aristath/folio/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/folio/internal/modules/portfolio/handlers"
	"github.com/aristath/folio/internal/ratelimit"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/aristath/folio/internal/server"
	"github.com/aristath/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting folio")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// One rate gate shared by every outbound API caller
	gate := ratelimit.New(cfg.QuoteRequestsPerMinute)

	yahooClient := yahoo.NewClient(gate, log)
	cacheRepo := market.NewCacheRepository(db.Conn(), log)
	marketSvc := market.NewService(yahooClient, cacheRepo, time.Duration(cfg.QuoteCacheTTLSeconds)*time.Second, log)

	lotRepo := ledger.NewLotRepository(db.Conn(), log)
	ledgerSvc := ledger.NewService(lotRepo, log)

	snapshotRepo := portfolio.NewSnapshotRepository(db.Conn(), log)
	portfolioSvc := portfolio.NewService(lotRepo, marketSvc, snapshotRepo, log)

	var advisorSvc *advisor.Service
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, gate, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		advisorSvc = advisor.NewService(geminiClient, portfolioSvc, log)
	} else {
		log.Info().Msg("GEMINI_API_KEY not set, advisory endpoints disabled")
		advisorSvc = advisor.NewService(nil, portfolioSvc, log)
	}

	smtpCfg := newsletter.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.NewsletterSenderEmail,
	}
	newsletterSvc := newsletter.NewService(portfolioSvc, newsletter.NewSMTPSender(smtpCfg), smtpCfg, cfg.Recipients(), log)

	sched := scheduler.New(log)
	snapshotJob := scheduler.NewSnapshotJob(portfolioSvc, marketSvc, log)
	if err := sched.AddJob(cfg.SnapshotCron, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	newsletterJob := scheduler.NewNewsletterJob(newsletterSvc, log)
	if err := sched.AddJob(cfg.NewsletterMorningCron, newsletterJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register morning newsletter job")
	}
	if err := sched.AddJob(cfg.NewsletterEveningCron, newsletterJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register evening newsletter job")
	}
	sched.Start()
	defer sched.Stop()

	// Upsert today's snapshot right away instead of waiting for the cron
	// window; same-day saves replace, so this is safe to repeat
	go func() {
		if err := sched.RunNow(snapshotJob); err != nil {
			log.Error().Err(err).Msg("Startup snapshot failed")
		}
	}()

	srv := server.New(server.Config{
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		Log:              log,
		LedgerHandler:    ledgerhandlers.NewHandler(ledgerSvc, log),
		PortfolioHandler: portfoliohandlers.NewHandler(portfolioSvc, log),
		MarketHandler:    markethandlers.NewHandler(marketSvc, log),
		AdvisorHandler:   advisorhandlers.NewHandler(advisorSvc, log),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Stopped")
}
