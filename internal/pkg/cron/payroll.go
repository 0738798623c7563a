package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StalledRunRecoverer reverts pay periods a crashed run left in PROCESSING.
type StalledRunRecoverer interface {
	RecoverStalledRuns(ctx context.Context) (int, error)
}

type PayrollJobs struct {
	recoverer StalledRunRecoverer
}

func NewPayrollJobs(recoverer StalledRunRecoverer) *PayrollJobs {
	return &PayrollJobs{recoverer: recoverer}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, recoveryInterval time.Duration) {
	scheduler.AddJob("recover_stalled_payroll_runs", recoveryInterval, j.RecoverStalledRuns)
}

func (j *PayrollJobs) RecoverStalledRuns(ctx context.Context) error {
	recovered, err := j.recoverer.RecoverStalledRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover stalled payroll runs: %w", err)
	}
	if recovered > 0 {
		slog.Info("Cron: Reverted stalled payroll runs to DRAFT", "count", recovered)
	}
	return nil
}
