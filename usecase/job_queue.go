package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/logger"
)

const (
	DefaultMaxRetries = 3
	baseBackoff       = time.Second
	maxBackoff        = 30 * time.Second
)

// Backoff is the wait before retry attempt n: min(1s * 2^n, 30s).
func Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 5 {
		return maxBackoff
	}
	d := baseBackoff << uint(n)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// JobQueue owns the in-memory lifecycle of publishing jobs. The store is the
// system of record; the queue writes every transition through to it.
type JobQueue struct {
	mu       sync.Mutex
	jobs     map[string]*model.PublishingJob
	inFlight map[string]bool
	timers   map[string]*time.Timer
	closed   bool
	wg       sync.WaitGroup

	store        repository.IJobStore
	dispatcher   repository.IDispatcher
	mirrors      []repository.IPublishingLog
	broadcasters []func(*model.PublishingJob)

	maxRetries int
	now        func() time.Time
	backoff    func(int) time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewJobQueue(store repository.IJobStore, dispatcher repository.IDispatcher, maxRetries int) *JobQueue {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		jobs:       make(map[string]*model.PublishingJob),
		inFlight:   make(map[string]bool),
		timers:     make(map[string]*time.Timer),
		store:      store,
		dispatcher: dispatcher,
		maxRetries: maxRetries,
		now:        time.Now,
		backoff:    Backoff,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// WithBroadcaster registers an observer called after every transition.
func (q *JobQueue) WithBroadcaster(fn func(*model.PublishingJob)) *JobQueue {
	q.broadcasters = append(q.broadcasters, fn)
	return q
}

// WithLogMirror writes every log entry to an additional sink.
func (q *JobQueue) WithLogMirror(l repository.IPublishingLog) *JobQueue {
	q.mirrors = append(q.mirrors, l)
	return q
}

func (q *JobQueue) WithClock(now func() time.Time) *JobQueue {
	q.now = now
	return q
}

func (q *JobQueue) WithBackoff(fn func(int) time.Duration) *JobQueue {
	q.backoff = fn
	return q
}

// AddJob validates the job and takes ownership of it. Jobs that fail
// validation end up failed without ever reaching the dispatcher.
func (q *JobQueue) AddJob(ctx context.Context, job *model.PublishingJob) *model.PublishingJob {
	j := job.Clone()
	now := q.now()
	if j.MaxRetries <= 0 {
		j.MaxRetries = q.maxRetries
	}
	if j.Status == "" {
		j.Status = model.JobStatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}

	results := Validate(j.Platform, j.Content)
	j.ValidationResults = results
	rejected := HasErrors(results) && j.Status.IsRunnable()
	if rejected {
		msg := "validation failed"
		j.Status = model.JobStatusFailed
		j.LastError = &msg
		j.ErrorDetails = map[string]string{
			"error_code": model.DispatchCodeValidationRejected,
			"reason":     firstError(results),
		}
		j.UpdatedAt = now
	}

	q.mu.Lock()
	if existing, ok := q.jobs[j.ID]; ok {
		snap := existing.Clone()
		q.mu.Unlock()
		return snap
	}
	q.jobs[j.ID] = j
	snap := j.Clone()
	q.mu.Unlock()

	if rejected {
		logger.GetLogger().WithField("job_id", j.ID).WithField("platform", j.Platform).Warn("Job rejected by content validation")
		q.persist(ctx, snap)
		q.notify(snap)
	}
	if snap.Status.IsRunnable() {
		q.spawn(snap.ID)
	}
	return snap
}

// spawn runs ProcessJob in the background unless the queue is shut down.
func (q *JobQueue) spawn(id string) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()
	go func() {
		defer q.wg.Done()
		q.ProcessJob(q.baseCtx, id)
	}()
}

// ProcessJob runs one attempt of a runnable job. It is a no-op when the job
// is unknown, already in flight, or not pending/scheduled.
func (q *JobQueue) ProcessJob(ctx context.Context, id string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || q.closed || q.inFlight[id] || !job.Status.IsRunnable() {
		q.mu.Unlock()
		return
	}
	now := q.now()
	if job.ScheduledAt != nil && job.ScheduledAt.After(now) {
		changed := job.Status != model.JobStatusScheduled
		if changed {
			job.Status = model.JobStatusScheduled
			job.UpdatedAt = now
		}
		q.armLocked(id, job.ScheduledAt.Sub(now), func() { q.ProcessJob(q.baseCtx, id) })
		snap := job.Clone()
		q.mu.Unlock()
		if changed {
			q.persist(ctx, snap)
			q.notify(snap)
		}
		return
	}
	q.stopTimerLocked(id)
	q.inFlight[id] = true
	job.Status = model.JobStatusProcessing
	job.UpdatedAt = now
	snap := job.Clone()
	q.mu.Unlock()

	q.persist(ctx, snap)
	q.notify(snap)

	res := q.dispatch(ctx, snap)
	q.complete(ctx, id, res)
}

func (q *JobQueue) dispatch(ctx context.Context, job *model.PublishingJob) (res model.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("error", r).WithField("job_id", job.ID).Error("Dispatch panic recovered")
			res = model.DispatchFailed(model.DispatchCodeInternal, fmt.Sprintf("dispatch panicked: %v", r))
		}
	}()
	if q.dispatcher == nil {
		return model.DispatchFailed(model.DispatchCodeInternal, "no dispatcher configured")
	}
	return q.dispatcher.Dispatch(ctx, job)
}

func (q *JobQueue) complete(ctx context.Context, id string, res model.DispatchResult) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		delete(q.inFlight, id)
		q.mu.Unlock()
		return
	}
	now := q.now()
	job.UpdatedAt = now
	attempt := job.RetryCount + 1

	if res.Success {
		postID, url := res.PlatformPostID, res.PlatformURL
		job.Status = model.JobStatusPublished
		job.PublishedAt = &now
		job.PlatformPostID = &postID
		job.PlatformURL = &url
		job.LastError = nil
		job.ErrorDetails = nil
		delete(q.inFlight, id)
		snap := job.Clone()
		q.mu.Unlock()

		q.persist(ctx, snap)
		q.appendLog(ctx, snap, model.LogOutcomePublished, attempt, res)
		q.notify(snap)
		logger.GetLogger().WithField("job_id", id).WithField("platform", snap.Platform).WithField("post_id", postID).Info("Job published")
		return
	}

	job.RetryCount++
	msg := res.Error
	job.LastError = &msg
	job.ErrorDetails = map[string]string{
		"error_code": res.ErrorCode,
		"attempt":    strconv.Itoa(job.RetryCount),
		"retryable":  strconv.FormatBool(res.Retryable),
	}
	retry := res.Retryable && job.RetryCount < job.MaxRetries
	switch {
	case retry && q.closed:
		// Left processing; startup recovery picks it up again.
		delete(q.inFlight, id)
	case retry:
		delay := q.backoff(job.RetryCount)
		job.ErrorDetails["next_retry_at"] = now.Add(delay).UTC().Format(time.RFC3339)
		q.armLocked(id, delay, func() { q.resumeAfterBackoff(id) })
	default:
		job.Status = model.JobStatusFailed
		delete(q.inFlight, id)
	}
	snap := job.Clone()
	q.mu.Unlock()

	q.persist(ctx, snap)
	q.appendLog(ctx, snap, model.LogOutcomeFailed, attempt, res)
	q.notify(snap)
	logger.GetLogger().WithFields(map[string]interface{}{
		"job_id":      id,
		"platform":    snap.Platform,
		"error_code":  res.ErrorCode,
		"retry_count": snap.RetryCount,
		"will_retry":  retry,
	}).Warn("Job dispatch failed")
}

// resumeAfterBackoff moves a job waiting out its backoff back to pending and runs it.
func (q *JobQueue) resumeAfterBackoff(id string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || q.closed || job.Status != model.JobStatusProcessing {
		q.mu.Unlock()
		return
	}
	job.Status = model.JobStatusPending
	job.UpdatedAt = q.now()
	delete(q.inFlight, id)
	snap := job.Clone()
	q.mu.Unlock()

	q.persist(q.baseCtx, snap)
	q.notify(snap)
	q.ProcessJob(q.baseCtx, id)
}

// armLocked replaces the timer of id. The callback is tracked like a worker.
func (q *JobQueue) armLocked(id string, delay time.Duration, fn func()) {
	q.stopTimerLocked(id)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		q.mu.Lock()
		if q.closed || q.timers[id] != t {
			q.mu.Unlock()
			return
		}
		delete(q.timers, id)
		q.wg.Add(1)
		q.mu.Unlock()
		defer q.wg.Done()
		fn()
	})
	q.timers[id] = t
}

func (q *JobQueue) stopTimerLocked(id string) {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
}

// CancelJob is allowed from pending, scheduled and failed only.
func (q *JobQueue) CancelJob(ctx context.Context, id string) bool {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || q.inFlight[id] {
		q.mu.Unlock()
		return false
	}
	switch job.Status {
	case model.JobStatusPending, model.JobStatusScheduled, model.JobStatusFailed:
	default:
		q.mu.Unlock()
		return false
	}
	q.stopTimerLocked(id)
	job.Status = model.JobStatusCancelled
	job.UpdatedAt = q.now()
	snap := job.Clone()
	q.mu.Unlock()

	q.persist(ctx, snap)
	q.notify(snap)
	return true
}

// RetryJob re-enters a failed job with a fresh retry budget. Content that no
// longer validates keeps the job failed.
func (q *JobQueue) RetryJob(ctx context.Context, id string) bool {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != model.JobStatusFailed {
		q.mu.Unlock()
		return false
	}
	results := Validate(job.Platform, job.Content)
	job.ValidationResults = results
	if HasErrors(results) {
		q.mu.Unlock()
		return false
	}
	job.Status = model.JobStatusPending
	job.RetryCount = 0
	job.LastError = nil
	job.ErrorDetails = nil
	job.UpdatedAt = q.now()
	snap := job.Clone()
	q.mu.Unlock()

	q.persist(ctx, snap)
	q.notify(snap)
	q.spawn(id)
	return true
}

func (q *JobQueue) GetJob(id string) (*model.PublishingJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	return j.Clone(), true
}

func (q *JobQueue) Has(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.jobs[id]
	return ok
}

// ListJobs returns matching jobs, newest first.
func (q *JobQueue) ListJobs(filter model.JobFilter) []*model.PublishingJob {
	q.mu.Lock()
	out := make([]*model.PublishingJob, 0, len(q.jobs))
	for _, j := range q.jobs {
		if filter.Matches(j) {
			out = append(out, j.Clone())
		}
	}
	q.mu.Unlock()

	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*model.PublishingJob{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// Shutdown stops all timers and waits for running workers. Jobs waiting on a
// timer stay in the store and are resumed by recovery on the next start.
func (q *JobQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *JobQueue) persist(ctx context.Context, job *model.PublishingJob) {
	if q.store == nil {
		return
	}
	if err := q.store.UpdateJobStatus(ctx, job.StatusUpdate()); err != nil {
		logger.GetLogger().WithField("error", err).WithField("job_id", job.ID).Error("Failed to persist job status")
	}
}

func (q *JobQueue) appendLog(ctx context.Context, job *model.PublishingJob, outcome model.LogOutcome, attempt int, res model.DispatchResult) {
	entry := &model.PublishingLogEntry{
		JobID:           job.ID,
		BrandID:         job.BrandID,
		Platform:        job.Platform,
		Outcome:         outcome,
		AttemptNumber:   attempt,
		ContentSnapshot: job.Content,
		Timestamp:       q.now(),
	}
	if res.Success {
		entry.PlatformPostID = job.PlatformPostID
		entry.PlatformURL = job.PlatformURL
	} else {
		code, msg := res.ErrorCode, res.Error
		entry.ErrorCode = &code
		entry.ErrorMessage = &msg
	}
	sinks := make([]repository.IPublishingLog, 0, len(q.mirrors)+1)
	if q.store != nil {
		sinks = append(sinks, q.store)
	}
	sinks = append(sinks, q.mirrors...)
	for _, s := range sinks {
		if err := s.CreatePublishingLog(ctx, entry); err != nil {
			logger.GetLogger().WithField("error", err).WithField("job_id", job.ID).Error("Failed to write publishing log")
		}
	}
}

func (q *JobQueue) notify(job *model.PublishingJob) {
	for _, fn := range q.broadcasters {
		fn(job)
	}
}

func firstError(results []model.ValidationResult) string {
	for _, r := range results {
		if r.Status == model.ValidationError {
			return r.Field + ": " + r.Message
		}
	}
	return ""
}
