package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenSweeper clears expired one-time tokens.
type TokenSweeper interface {
	SweepExpiredTokens(ctx context.Context) (int64, error)
}

func TokenSweepJob(sweeper TokenSweeper, interval time.Duration, logger logrus.FieldLogger) Job {
	return Job{
		Name:     "token-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			cleared, err := sweeper.SweepExpiredTokens(ctx)
			if err != nil {
				return err
			}
			if cleared > 0 {
				logger.WithField("cleared", cleared).Info("Cleared expired one-time tokens")
			}
			return nil
		},
	}
}
