package repository

import (
	"context"

	"brand-publisher/domain/model"
)

// IJobStore is the durable system of record for publishing jobs and their audit log.
// Writes are keyed by job id so concurrent jobs never contend.
type IJobStore interface {
	CreateJob(ctx context.Context, job *model.PublishingJob) error
	GetJob(ctx context.Context, id string) (*model.PublishingJob, error)
	GetJobsByStatus(ctx context.Context, status model.JobStatus) ([]*model.PublishingJob, error)
	UpdateJobStatus(ctx context.Context, update model.JobStatusUpdate) error
	ListJobs(ctx context.Context, filter model.JobFilter) ([]*model.PublishingJob, error)
	GetJobHistory(ctx context.Context, brandID string, limit, offset int) ([]*model.PublishingJob, error)
	IPublishingLog
}

// IPublishingLog is the append-only audit trail of dispatch attempts.
type IPublishingLog interface {
	CreatePublishingLog(ctx context.Context, entry *model.PublishingLogEntry) error
}
