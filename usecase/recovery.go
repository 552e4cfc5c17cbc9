package usecase

import (
	"context"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/logger"
)

// RecoveryReport counts what a recovery pass did.
type RecoveryReport struct {
	Requeued         int `json:"requeued"`
	ResetProcessing  int `json:"reset_processing"`
	PromotedSchedule int `json:"promoted_scheduled"`
	Waiting          int `json:"waiting"`
	Errors           int `json:"errors"`
}

// RecoveryCoordinator rebuilds the queue from the store after a restart.
type RecoveryCoordinator struct {
	store repository.IJobStore
	queue *JobQueue
	now   func() time.Time
}

func NewRecoveryCoordinator(store repository.IJobStore, queue *JobQueue) *RecoveryCoordinator {
	return &RecoveryCoordinator{store: store, queue: queue, now: time.Now}
}

func (r *RecoveryCoordinator) WithClock(now func() time.Time) *RecoveryCoordinator {
	r.now = now
	return r
}

// Recover re-enqueues interrupted and pending work. It runs once, before the
// HTTP server accepts requests. Store failures are logged and counted.
func (r *RecoveryCoordinator) Recover(ctx context.Context) RecoveryReport {
	var report RecoveryReport

	processing, err := r.store.GetJobsByStatus(ctx, model.JobStatusProcessing)
	if err != nil {
		report.Errors++
		logger.GetLogger().WithField("error", err).Error("Recovery: failed to load processing jobs")
	}
	for _, job := range processing {
		if !r.resetToPending(ctx, job) {
			report.Errors++
			continue
		}
		report.ResetProcessing++
		r.queue.AddJob(ctx, job)
		report.Requeued++
	}

	pending, err := r.store.GetJobsByStatus(ctx, model.JobStatusPending)
	if err != nil {
		report.Errors++
		logger.GetLogger().WithField("error", err).Error("Recovery: failed to load pending jobs")
	}
	for _, job := range pending {
		if r.queue.Has(job.ID) {
			continue
		}
		r.queue.AddJob(ctx, job)
		report.Requeued++
	}

	promoted, waiting, errs := r.promote(ctx)
	report.PromotedSchedule += promoted
	report.Requeued += promoted
	report.Waiting += waiting
	report.Errors += errs

	logger.GetLogger().WithFields(map[string]interface{}{
		"requeued":         report.Requeued,
		"reset_processing": report.ResetProcessing,
		"promoted":         report.PromotedSchedule,
		"waiting":          report.Waiting,
		"errors":           report.Errors,
	}).Info("Job recovery finished")
	return report
}

// PromoteDueScheduled hands due scheduled jobs that the queue does not hold yet
// to the queue. It returns how many were promoted.
func (r *RecoveryCoordinator) PromoteDueScheduled(ctx context.Context) int {
	promoted, _, _ := r.promote(ctx)
	if promoted > 0 {
		logger.GetLogger().WithField("promoted", promoted).Info("Promoted due scheduled jobs")
	}
	return promoted
}

// Start runs PromoteDueScheduled every tick until ctx is done.
func (r *RecoveryCoordinator) Start(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = time.Minute
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.PromoteDueScheduled(ctx)
		}
	}
}

func (r *RecoveryCoordinator) promote(ctx context.Context) (promoted, waiting, errs int) {
	scheduled, err := r.store.GetJobsByStatus(ctx, model.JobStatusScheduled)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to load scheduled jobs")
		return 0, 0, 1
	}
	now := r.now()
	for _, job := range scheduled {
		if r.queue.Has(job.ID) {
			continue
		}
		if job.ScheduledAt != nil && job.ScheduledAt.After(now) {
			waiting++
			continue
		}
		if !r.resetToPending(ctx, job) {
			errs++
			continue
		}
		r.queue.AddJob(ctx, job)
		promoted++
	}
	return promoted, waiting, errs
}

func (r *RecoveryCoordinator) resetToPending(ctx context.Context, job *model.PublishingJob) bool {
	job.Status = model.JobStatusPending
	job.UpdatedAt = r.now()
	if err := r.store.UpdateJobStatus(ctx, job.StatusUpdate()); err != nil {
		logger.GetLogger().WithField("error", err).WithField("job_id", job.ID).Error("Recovery: failed to reset job to pending")
		return false
	}
	return true
}
