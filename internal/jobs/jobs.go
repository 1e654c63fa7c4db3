// Package jobs schedules the periodic maintenance work: closing idle
// sessions and pruning spent reaction quota rows.
package jobs

import (
	"time"

	"backend/internal/app/session"
	"backend/internal/app/spark"
	"backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// quotaRetention keeps a few days of quota rows around so an undo
// close to midnight can still refund the correct day.
const quotaRetention = 3 * 24 * time.Hour

type Runner struct {
	cron       *cron.Cron
	sessionSvc session.Service
	sparkRepo  spark.Repository
	cfg        *config.Config
	logger     *zap.SugaredLogger
}

func NewRunner(
	sessionSvc session.Service,
	sparkRepo spark.Repository,
	cfg *config.Config,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cron:       cron.New(),
		sessionSvc: sessionSvc,
		sparkRepo:  sparkRepo,
		cfg:        cfg,
		logger:     logger.Sugar(),
	}
}

// Start registers the schedules and runs them in the background.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc("*/15 * * * *", r.closeIdleSessions); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc("30 3 * * *", r.pruneQuota); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Infow("Background jobs scheduled")
	return nil
}

// Stop waits for any in-flight job to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) closeIdleSessions() {
	closed, err := r.sessionSvc.CloseIdleSessions(r.cfg.SessionIdleTTL)
	if err != nil {
		r.logger.Errorw("Failed to close idle sessions", "error", err)
		return
	}
	if closed > 0 {
		r.logger.Infow("Closed idle sessions", "count", closed)
	}
}

func (r *Runner) pruneQuota() {
	cutoff := spark.QuotaDate(time.Now().Add(-quotaRetention))
	pruned, err := r.sparkRepo.PruneQuotaBefore(cutoff)
	if err != nil {
		r.logger.Errorw("Failed to prune reaction quota", "error", err)
		return
	}
	if pruned > 0 {
		r.logger.Infow("Pruned stale reaction quota rows", "count", pruned)
	}
}
