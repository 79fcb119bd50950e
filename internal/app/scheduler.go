package app

import (
	"context"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
)

const qrSweepInterval = time.Minute

// runScheduler drives the periodic work: a NEFT batch tick at minute 0
// of every hour and a QR expiry sweep every minute. The batch tick
// itself decides whether the hour falls inside the operating window.
func runScheduler(ctx context.Context, efts interfaces.EFTService, payments interfaces.PaymentService, clock common.Clock, logger *common.Logger) {
	batchTimer := time.NewTimer(untilNextHour(clock.Now()))
	defer batchTimer.Stop()

	sweep := time.NewTicker(qrSweepInterval)
	defer sweep.Stop()

	logger.Info().Msg("Scheduler started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Scheduler stopped")
			return
		case <-batchTimer.C:
			if _, err := efts.ProcessBatch(ctx); err != nil {
				logger.Error().Err(err).Msg("Scheduled batch tick failed")
			}
			batchTimer.Reset(untilNextHour(clock.Now()))
		case <-sweep.C:
			if _, err := payments.ExpireQRRequests(ctx); err != nil {
				logger.Warn().Err(err).Msg("QR expiry sweep failed")
			}
		}
	}
}

// untilNextHour returns the duration to the next wall-clock top of the
// hour in now's location.
func untilNextHour(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	return next.Sub(now)
}
