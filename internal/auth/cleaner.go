package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultTokenCleanupInterval is used when StartTokenCleaner gets a non-positive interval.
const DefaultTokenCleanupInterval = time.Hour

// StartTokenCleaner purges expired tokens every interval until ctx is done.
func (s *Service) StartTokenCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTokenCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpiredTokens(ctx)
			if err != nil {
				zap.L().Warn("auth: purge expired tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Debug("auth: purged expired tokens", zap.Int64("count", n))
			}
		}
	}
}

// PurgeExpiredTokens deletes every token past its expiry and reports how many went.
// Cached copies expire on their own TTL.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM user_tokens WHERE expires_at <= ?`), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return res.RowsAffected()
}
