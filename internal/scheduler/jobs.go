package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/market"
	"github.com/aristath/folio/internal/modules/newsletter"
	"github.com/aristath/folio/internal/modules/portfolio"
)

// SnapshotJob persists one valuation snapshot per calendar day
type SnapshotJob struct {
	portfolio *portfolio.Service
	market    *market.Service
	log       zerolog.Logger
}

// NewSnapshotJob creates the daily snapshot job
func NewSnapshotJob(portfolioSvc *portfolio.Service, marketSvc *market.Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		portfolio: portfolioSvc,
		market:    marketSvc,
		log:       log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string { return "daily-snapshot" }

// Run saves today's snapshot and prunes stale quote cache entries
func (j *SnapshotJob) Run() error {
	snap, err := j.portfolio.SaveSnapshot()
	if err != nil {
		return err
	}

	j.log.Info().
		Str("date", snap.SnapshotDate).
		Float64("total_value", snap.TotalValue).
		Int("positions", snap.NumPositions).
		Msg("Daily snapshot saved")

	if removed, err := j.market.PurgeCache(); err != nil {
		j.log.Warn().Err(err).Msg("Quote cache purge failed")
	} else if removed > 0 {
		j.log.Debug().Int64("removed", removed).Msg("Quote cache purged")
	}

	return nil
}

// NewsletterJob sends the portfolio newsletter on its schedule
type NewsletterJob struct {
	newsletter *newsletter.Service
	log        zerolog.Logger
}

// NewNewsletterJob creates the newsletter job
func NewNewsletterJob(newsletterSvc *newsletter.Service, log zerolog.Logger) *NewsletterJob {
	return &NewsletterJob{
		newsletter: newsletterSvc,
		log:        log.With().Str("job", "newsletter").Logger(),
	}
}

// Name returns the job name
func (j *NewsletterJob) Name() string { return "newsletter" }

// Run sends the newsletter; skips quietly when mail is not configured
func (j *NewsletterJob) Run() error {
	if !j.newsletter.IsConfigured() {
		j.log.Debug().Msg("Newsletter not configured, skipping")
		return nil
	}

	return j.newsletter.SendOnce()
}
