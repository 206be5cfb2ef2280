package main

import (
	"context"

	"github.com/pakawat-dev/support-linebot-go/internal/config"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/session"
	"github.com/pakawat-dev/support-linebot-go/internal/warmup"
)

// startJobs launches the initial data load and the recurring background
// loops. The warmup runs off the request path; the readiness gate opens
// when it finishes or when its timeout degrades the gate open.
func startJobs(
	ctx context.Context,
	mgr *warmup.Manager,
	readiness *warmup.ReadinessState,
	sessions *session.Registry,
	cfg *config.Config,
	log *logger.Logger,
) {
	go func() {
		if err := mgr.Warm(ctx); err != nil {
			log.WithError(err).Error("Initial data load failed; serving fallbacks until refresh succeeds")
			return
		}
		readiness.MarkReady()
	}()

	go mgr.RunRefreshLoop(ctx, cfg.RefreshInterval)
	go sessions.RunSweeper(ctx, cfg.SweepInterval)
}
