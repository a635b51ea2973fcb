package worker

// retry_cron.go re-enqueues closure reports that are due: failed runs whose
// backoff has elapsed, and closures whose job was lost (e.g. Redis restart).

import (
	"context"
	"time"

	"ravito/internal/infra"
	"ravito/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
	// ReportGrace is how long a queued report may take before the cron re-enqueues it.
	ReportGrace = 5 * time.Minute
)

type closureEnqueuer interface {
	EnqueueClosureReport(ctx context.Context, payload ClosureReportPayload) error
}

type RetryCronConfig struct {
	Sheets     repository.DailySheetRepository
	Dispatcher closureEnqueuer
	// CB is the mail breaker; retries pause while it is open since every
	// report ends in a mail.
	CB *infra.CircuitBreaker
}

// StartRetryCron ticks every 30s until ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: mail circuit breaker is open, skipping tick")
		return
	}

	sheets, err := cfg.Sheets.ListPendingReports(ctx, now, MaxReportAttempts, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending reports")
		return
	}
	if len(sheets) == 0 {
		return
	}
	log.Info().Int("count", len(sheets)).Msg("retry_cron: re-enqueueing closure reports")

	for i := range sheets {
		s := &sheets[i]
		if err := cfg.Sheets.DeferReport(ctx, s.ID, now.Add(ReportGrace)); err != nil {
			log.Error().Err(err).Str("sheet_id", s.ID.String()).Msg("retry_cron: defer failed")
			continue
		}
		if err := cfg.Dispatcher.EnqueueClosureReport(ctx, ClosureReportPayload{SheetID: s.ID.String()}); err != nil {
			log.Error().Err(err).Str("sheet_id", s.ID.String()).Msg("retry_cron: enqueue failed")
		}
	}
}
