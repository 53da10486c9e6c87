// Package sweeper removes expired refresh tokens on a fixed interval.
// Tokens are deleted on explicit revocation; without the sweeper, rows
// whose expiry passed silently would accumulate forever.
package sweeper

import (
	"context"
	"time"

	"github.com/iliyamo/user-account-service/internal/logger"
	"github.com/iliyamo/user-account-service/internal/repository"
)

// Run purges expired user_tokens rows every interval until ctx is
// cancelled. Failures are logged and the next tick retries.
func Run(ctx context.Context, tokens *repository.TokenRepo, log *logger.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := tokens.DeleteExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Error("token sweep failed", "err", err)
				continue
			}
			if n > 0 {
				log.Info("token sweep", "purged", n)
			}
		}
	}
}
