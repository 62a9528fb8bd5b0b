// Package newsletter renders and emails the daily portfolio report.
package newsletter

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/portfolio"
)

// PortfolioSource supplies the data the newsletter reports on.
// *portfolio.Service satisfies it.
type PortfolioSource interface {
	GetPortfolio() (*portfolio.Portfolio, error)
	GetHistory(windowDays int) (*portfolio.History, error)
}

// Service generates and sends the portfolio newsletter
type Service struct {
	portfolio  PortfolioSource
	sender     Sender
	cfg        SMTPConfig
	recipients []string
	windowDays int
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a new newsletter service
func NewService(portfolioSvc PortfolioSource, sender Sender, cfg SMTPConfig, recipients []string, log zerolog.Logger) *Service {
	return &Service{
		portfolio:  portfolioSvc,
		sender:     sender,
		cfg:        cfg,
		recipients: recipients,
		windowDays: 30,
		log:        log.With().Str("service", "newsletter").Logger(),
		now:        time.Now,
	}
}

// IsConfigured reports whether sending is possible
func (s *Service) IsConfigured() bool {
	return s.cfg.Configured() && len(s.recipients) > 0
}

// Generate renders the newsletter from the current portfolio state
func (s *Service) Generate() (*Email, error) {
	p, err := s.portfolio.GetPortfolio()
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio: %w", err)
	}
	perf := portfolio.ComputePerformance(p)

	history, err := s.portfolio.GetHistory(s.windowDays)
	if err != nil {
		s.log.Warn().Err(err).Msg("History unavailable, newsletter goes out without a chart")
		history = nil
	}

	return Render(p, perf, history, s.now())
}

// SendOnce generates the newsletter and emails it to every recipient
func (s *Service) SendOnce() error {
	if !s.IsConfigured() {
		return fmt.Errorf("newsletter is not configured")
	}

	email, err := s.Generate()
	if err != nil {
		return err
	}

	msg := BuildMessage(s.cfg, s.recipients, email, s.now())
	if err := s.sender.Send(s.cfg.Sender, s.recipients, msg); err != nil {
		return fmt.Errorf("failed to send newsletter: %w", err)
	}

	s.log.Info().
		Int("recipients", len(s.recipients)).
		Str("subject", email.Subject).
		Msg("Newsletter sent")

	return nil
}
