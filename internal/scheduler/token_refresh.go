package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	applog "github.com/mrlokans/mangashelf/internal/logger"
)

const tokenRefreshTimeout = 2 * time.Minute

type TokenRefresher interface {
	IsAuthenticated() bool
	RefreshToken(ctx context.Context) error
}

// NewTokenRefreshScheduler renews the session token on schedule so a
// long-running process does not outlive it. Nothing happens while signed out.
func NewTokenRefreshScheduler(schedule string, session TokenRefresher, log *zap.Logger) *Job {
	log = applog.OrNop(log)
	return newJob("token_refresh", schedule, tokenRefreshTimeout, func(ctx context.Context) {
		if !session.IsAuthenticated() {
			log.Debug("token refresh skipped, not signed in")
			return
		}
		if err := session.RefreshToken(ctx); err != nil {
			log.Warn("token refresh failed", zap.Error(err))
			return
		}
		log.Info("session token refreshed")
	}, log)
}
