package usecase

import (
	"context"
	"strings"
	"time"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

const defaultJobListLimit = 50

type IPublishingUsecase interface {
	Publish(ctx context.Context, tenantID, brandID string, req dto.PublishRequest) (*dto.PublishResponse, error)
	ListJobs(ctx context.Context, tenantID, brandID string, query dto.JobListQuery) ([]*model.PublishingJob, error)
	RetryJob(ctx context.Context, tenantID, jobID string) error
	CancelJob(ctx context.Context, tenantID, jobID string) error
}

type publishingUsecase struct {
	queue       *JobQueue
	store       repository.IJobStore
	connections repository.IConnection
	maxRetries  int
	now         func() time.Time
	newID       func() string
}

func NewPublishingUsecase(queue *JobQueue, store repository.IJobStore, connections repository.IConnection, maxRetries int) IPublishingUsecase {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &publishingUsecase{
		queue:       queue,
		store:       store,
		connections: connections,
		maxRetries:  maxRetries,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Publish creates one job per requested platform. Platforms whose content
// fails validation, or that have no usable connection, are reported in
// Errors and get no job.
func (u *publishingUsecase) Publish(ctx context.Context, tenantID, brandID string, req dto.PublishRequest) (*dto.PublishResponse, error) {
	if strings.TrimSpace(brandID) == "" {
		return nil, model.NewPublishError(model.ErrorKindValidation, "BRAND_REQUIRED", "brand id is required", nil)
	}
	if len(req.Platforms) == 0 {
		return nil, model.NewPublishError(model.ErrorKindValidation, "PLATFORMS_REQUIRED", "at least one platform is required", nil)
	}

	now := u.now()
	resp := &dto.PublishResponse{
		Jobs:              []*model.PublishingJob{},
		ValidationResults: map[string][]model.ValidationResult{},
	}
	seen := map[model.Platform]bool{}
	for _, name := range req.Platforms {
		platform := model.Platform(strings.ToLower(strings.TrimSpace(name)))
		if seen[platform] {
			continue
		}
		seen[platform] = true
		if !platform.IsValid() {
			resp.Errors = append(resp.Errors, platformError(platform, model.ErrUnsupportedPlatform))
			continue
		}

		results := Validate(platform, req.Content)
		if req.ScheduledAt != nil {
			results = append(results, ValidateScheduleTime(platform, *req.ScheduledAt, now))
		}
		resp.ValidationResults[string(platform)] = results
		if HasErrors(results) {
			resp.Errors = append(resp.Errors, dto.PlatformError{
				Platform:  string(platform),
				Error:     firstError(results),
				ErrorCode: model.DispatchCodeValidationRejected,
			})
			continue
		}
		if req.ValidateOnly {
			continue
		}

		conn, err := u.connections.GetByBrandPlatform(ctx, brandID, platform)
		if err != nil || conn == nil || conn.TenantID != tenantID {
			resp.Errors = append(resp.Errors, platformError(platform, model.ErrConnectionNotFound))
			continue
		}
		if conn.Status != model.ConnectionConnected {
			resp.Errors = append(resp.Errors, dto.PlatformError{
				Platform:  string(platform),
				Error:     "platform connection is " + string(conn.Status),
				ErrorCode: model.DispatchCodeNotConnected,
			})
			continue
		}

		job := u.newJob(tenantID, brandID, platform, conn.ID, req, results, now)
		if err := u.store.CreateJob(ctx, job); err != nil {
			logger.GetLogger().WithField("error", err).WithField("platform", platform).Error("Failed to create publishing job")
			resp.Errors = append(resp.Errors, dto.PlatformError{
				Platform:  string(platform),
				Error:     model.ErrPersistence.Message,
				ErrorCode: model.ErrPersistence.Code,
			})
			continue
		}
		resp.Jobs = append(resp.Jobs, u.queue.AddJob(ctx, job))
	}

	resp.Success = len(resp.Errors) == 0
	logger.GetLogger().WithFields(map[string]interface{}{
		"brand_id":      brandID,
		"jobs":          len(resp.Jobs),
		"errors":        len(resp.Errors),
		"validate_only": req.ValidateOnly,
	}).Info("Publish request handled")
	return resp, nil
}

func (u *publishingUsecase) newJob(tenantID, brandID string, platform model.Platform, connectionID string, req dto.PublishRequest, results []model.ValidationResult, now time.Time) *model.PublishingJob {
	maxRetries := u.maxRetries
	if req.MaxRetries > 0 {
		maxRetries = req.MaxRetries
	}
	status := model.JobStatusPending
	var scheduledAt *time.Time
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		scheduledAt = &at
		if at.After(now) {
			status = model.JobStatusScheduled
		}
	}
	return &model.PublishingJob{
		ID:                u.newID(),
		BrandID:           brandID,
		TenantID:          tenantID,
		PostID:            req.PostID,
		Platform:          platform,
		ConnectionID:      connectionID,
		Status:            status,
		ScheduledAt:       scheduledAt,
		Content:           req.Content,
		ValidationResults: results,
		MaxRetries:        maxRetries,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ListJobs reads from the store and overlays the live state held by the queue.
func (u *publishingUsecase) ListJobs(ctx context.Context, tenantID, brandID string, query dto.JobListQuery) ([]*model.PublishingJob, error) {
	filter := model.JobFilter{
		TenantID: tenantID,
		BrandID:  brandID,
		Status:   model.JobStatus(query.Status),
		Platform: model.Platform(strings.ToLower(query.Platform)),
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultJobListLimit
	}

	jobs, err := u.store.ListJobs(ctx, filter)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("brand_id", brandID).Warn("Job store unavailable, listing in-memory jobs")
		jobs = u.queue.ListJobs(filter)
	}

	out := make([]*model.PublishingJob, 0, len(jobs))
	for _, j := range jobs {
		if live, ok := u.queue.GetJob(j.ID); ok {
			j = live
		}
		// the live copy may have moved past the requested status
		if !filter.Matches(j) {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func (u *publishingUsecase) RetryJob(ctx context.Context, tenantID, jobID string) error {
	job, err := u.lookup(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.JobStatusFailed {
		return model.ErrIllegalTransition
	}
	if !u.queue.Has(jobID) {
		u.queue.AddJob(ctx, job)
	}
	if !u.queue.RetryJob(ctx, jobID) {
		return model.NewPublishError(model.ErrorKindValidation, model.DispatchCodeValidationRejected, "content no longer passes validation", nil)
	}
	return nil
}

func (u *publishingUsecase) CancelJob(ctx context.Context, tenantID, jobID string) error {
	job, err := u.lookup(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	if u.queue.Has(jobID) {
		if !u.queue.CancelJob(ctx, jobID) {
			return model.ErrIllegalTransition
		}
		return nil
	}

	switch job.Status {
	case model.JobStatusPending, model.JobStatusScheduled, model.JobStatusFailed:
	default:
		return model.ErrIllegalTransition
	}
	job.Status = model.JobStatusCancelled
	job.UpdatedAt = u.now()
	if err := u.store.UpdateJobStatus(ctx, job.StatusUpdate()); err != nil {
		return model.Wrap(model.ErrPersistence, err)
	}
	return nil
}

// lookup prefers the queue's copy and falls back to the store.
func (u *publishingUsecase) lookup(ctx context.Context, tenantID, jobID string) (*model.PublishingJob, error) {
	job, ok := u.queue.GetJob(jobID)
	if !ok {
		var err error
		job, err = u.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
	}
	if tenantID != "" && job.TenantID != tenantID {
		return nil, model.ErrJobNotFound
	}
	return job, nil
}

func platformError(p model.Platform, err *model.PublishError) dto.PlatformError {
	return dto.PlatformError{Platform: string(p), Error: err.Message, ErrorCode: err.Code}
}
