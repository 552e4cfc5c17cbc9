package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
)

// PublishingJobRepository is the PostgreSQL job store.
type PublishingJobRepository struct {
	db *sql.DB
}

func NewPublishingJobRepository(db *sql.DB) *PublishingJobRepository {
	return &PublishingJobRepository{db: db}
}

var _ repository.IJobStore = (*PublishingJobRepository)(nil)

func (r *PublishingJobRepository) CreateJob(ctx context.Context, job *model.PublishingJob) error {
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	q := `INSERT INTO publishing_jobs (` + jobColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert publishing job %s: %w", job.ID, err)
	}
	return nil
}

func (r *PublishingJobRepository) GetJob(ctx context.Context, id string) (*model.PublishingJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM publishing_jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	return job, err
}

func (r *PublishingJobRepository) GetJobsByStatus(ctx context.Context, status model.JobStatus) ([]*model.PublishingJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM publishing_jobs WHERE status=$1 ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *PublishingJobRepository) UpdateJobStatus(ctx context.Context, u model.JobStatusUpdate) error {
	args, err := statusArgs(u)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE publishing_jobs SET status=$1, retry_count=$2, last_error=$3, error_details=$4,
platform_post_id=$5, platform_url=$6, published_at=$7, validation_results=$8, updated_at=$9 WHERE id=$10`, args...)
	if err != nil {
		return fmt.Errorf("update publishing job %s: %w", u.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

func (r *PublishingJobRepository) ListJobs(ctx context.Context, f model.JobFilter) ([]*model.PublishingJob, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.BrandID != "" {
		add("brand_id=$%d", f.BrandID)
	}
	if f.TenantID != "" {
		add("tenant_id=$%d", f.TenantID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if f.Platform != "" {
		add("platform=$%d", string(f.Platform))
	}
	q := `SELECT ` + jobColumns + ` FROM publishing_jobs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *PublishingJobRepository) GetJobHistory(ctx context.Context, brandID string, limit, offset int) ([]*model.PublishingJob, error) {
	return r.ListJobs(ctx, model.JobFilter{BrandID: brandID, Limit: limit, Offset: offset})
}

func (r *PublishingJobRepository) CreatePublishingLog(ctx context.Context, e *model.PublishingLogEntry) error {
	args, err := logArgs(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO publishing_logs (job_id, brand_id, platform, outcome, attempt_number,
platform_post_id, platform_url, error_code, error_message, content_snapshot, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, args...)
	return err
}
