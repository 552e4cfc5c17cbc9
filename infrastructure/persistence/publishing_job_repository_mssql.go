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

// PublishingJobRepositoryMSSQL is the job store for SQL Server/Azure SQL.
type PublishingJobRepositoryMSSQL struct{ db *sql.DB }

func NewPublishingJobRepositoryMSSQL(db *sql.DB) *PublishingJobRepositoryMSSQL {
	return &PublishingJobRepositoryMSSQL{db: db}
}

var _ repository.IJobStore = (*PublishingJobRepositoryMSSQL)(nil)

func (r *PublishingJobRepositoryMSSQL) CreateJob(ctx context.Context, job *model.PublishingJob) error {
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	q := `INSERT INTO dbo.[publishing_jobs] (` + jobColumns + `)
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,@p13,@p14,@p15,@p16,@p17,@p18,@p19)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert publishing job %s (mssql): %w", job.ID, err)
	}
	return nil
}

func (r *PublishingJobRepositoryMSSQL) GetJob(ctx context.Context, id string) (*model.PublishingJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM dbo.[publishing_jobs] WHERE id=@p1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	return job, err
}

func (r *PublishingJobRepositoryMSSQL) GetJobsByStatus(ctx context.Context, status model.JobStatus) ([]*model.PublishingJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM dbo.[publishing_jobs] WHERE status=@p1 ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *PublishingJobRepositoryMSSQL) UpdateJobStatus(ctx context.Context, u model.JobStatusUpdate) error {
	args, err := statusArgs(u)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[publishing_jobs] SET status=@p1, retry_count=@p2, last_error=@p3, error_details=@p4,
platform_post_id=@p5, platform_url=@p6, published_at=@p7, validation_results=@p8, updated_at=@p9 WHERE id=@p10`, args...)
	if err != nil {
		return fmt.Errorf("update publishing job %s (mssql): %w", u.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

func (r *PublishingJobRepositoryMSSQL) ListJobs(ctx context.Context, f model.JobFilter) ([]*model.PublishingJob, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.BrandID != "" {
		add("brand_id=@p%d", f.BrandID)
	}
	if f.TenantID != "" {
		add("tenant_id=@p%d", f.TenantID)
	}
	if f.Status != "" {
		add("status=@p%d", string(f.Status))
	}
	if f.Platform != "" {
		add("platform=@p%d", string(f.Platform))
	}
	q := `SELECT ` + jobColumns + ` FROM dbo.[publishing_jobs]`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 || f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET @p%d ROWS`, len(args))
		if f.Limit > 0 {
			args = append(args, f.Limit)
			q += fmt.Sprintf(` FETCH NEXT @p%d ROWS ONLY`, len(args))
		}
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *PublishingJobRepositoryMSSQL) GetJobHistory(ctx context.Context, brandID string, limit, offset int) ([]*model.PublishingJob, error) {
	return r.ListJobs(ctx, model.JobFilter{BrandID: brandID, Limit: limit, Offset: offset})
}

func (r *PublishingJobRepositoryMSSQL) CreatePublishingLog(ctx context.Context, e *model.PublishingLogEntry) error {
	args, err := logArgs(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO dbo.[publishing_logs] (job_id, brand_id, platform, outcome, attempt_number,
platform_post_id, platform_url, error_code, error_message, content_snapshot, created_at)
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11)`, args...)
	return err
}
