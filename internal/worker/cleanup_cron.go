package worker

// cleanup_cron.go
// Background goroutine that purges recovery codes and sessions that can no
// longer be used by anyone.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cleanupTickInterval = 10 * time.Minute
	// cleanupRetention keeps dead rows around for a day for auditing.
	cleanupRetention = 24 * time.Hour
)

// expiredPurger deletes rows that expired before the cutoff.
type expiredPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// CleanupCronConfig holds all dependencies for the cleanup goroutine.
type CleanupCronConfig struct {
	Codigos  expiredPurger
	Sesiones expiredPurger
	Interval time.Duration
}

// StartCleanupCron launches a goroutine that ticks every Interval (10 min by
// default) and respects ctx for graceful shutdown.
func StartCleanupCron(ctx context.Context, cfg CleanupCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = cleanupTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Msg("cleanup_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cleanup_cron: shutting down")
				return
			case <-ticker.C:
				runCleanup(ctx, cfg, time.Now())
			}
		}
	}()
}

func runCleanup(ctx context.Context, cfg CleanupCronConfig, now time.Time) {
	cutoff := now.Add(-cleanupRetention)

	codigos, err := cfg.Codigos.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("cleanup_cron: failed to purge recovery codes")
	}
	sesiones, err := cfg.Sesiones.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("cleanup_cron: failed to purge sessions")
	}

	if codigos > 0 || sesiones > 0 {
		log.Info().
			Int64("codigos", codigos).
			Int64("sesiones", sesiones).
			Msg("cleanup_cron: purged expired rows")
	}
}
