// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const jobTimeout = 2 * time.Minute

// MaintenanceConfig sets the cadence of the background jobs.
type MaintenanceConfig struct {
	SweepInterval    time.Duration
	ExpiredRetention time.Duration
	RepairInterval   time.Duration
	RepairGrace      time.Duration
	ArchiveInterval  time.Duration
}

// StartMaintenanceScheduler runs the expiry sweep, the credit repair and,
// when archiver is non-nil, the ledger archive. Call Shutdown on the result.
func StartMaintenanceScheduler(clock clockwork.Clock, cfg MaintenanceConfig, tokens *TokenStore, claims *ClaimCoordinator, archiver *LedgerArchiver) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, err
	}

	// Every SweepInterval: flag and purge expired tokens
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			SweepExpiredTokens(ctx, tokens, cfg.ExpiredRetention)
		}),
		gocron.WithName("token-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	// Every RepairInterval: credit claimed-but-uncredited tokens
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.RepairInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			n, err := claims.RepairUncredited(ctx, cfg.RepairGrace)
			if err != nil {
				log.Printf("❌ [Scheduler] Credit repair failed after %d repair(s): %v", n, err)
			}
		}),
		gocron.WithName("credit-repair"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	if archiver != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.ArchiveInterval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()
				if err := archiver.Run(ctx); err != nil {
					log.Printf("❌ [Scheduler] Ledger archive failed: %v", err)
				}
			}),
			gocron.WithName("ledger-archive"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			// catch up on the last closed window after every restart
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}

// SweepExpiredTokens is the body of the token-expiry-sweep job.
func SweepExpiredTokens(ctx context.Context, tokens *TokenStore, retention time.Duration) {
	expired, err := tokens.ExpireStale(ctx)
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}
	purged, err := tokens.PurgeExpired(ctx, retention)
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}
	if expired > 0 || purged > 0 {
		log.Printf("✅ [Scheduler] Expired %d token(s), purged %d", expired, purged)
	}
}
