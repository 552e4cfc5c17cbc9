package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"brand-publisher/domain/model"
)

const jobColumns = `id, brand_id, tenant_id, post_id, platform, connection_id, status, scheduled_at, published_at,
platform_post_id, platform_url, content, validation_results, retry_count, max_retries, last_error, error_details,
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.PublishingJob, error) {
	j := &model.PublishingJob{}
	var postID, connectionID, platformPostID, platformURL, lastError sql.NullString
	var scheduledAt, publishedAt sql.NullTime
	var content, validation, details []byte
	if err := row.Scan(&j.ID, &j.BrandID, &j.TenantID, &postID, &j.Platform, &connectionID, &j.Status, &scheduledAt, &publishedAt,
		&platformPostID, &platformURL, &content, &validation, &j.RetryCount, &j.MaxRetries, &lastError, &details,
		&j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.PostID = postID.String
	j.ConnectionID = connectionID.String
	if scheduledAt.Valid {
		t := scheduledAt.Time
		j.ScheduledAt = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		j.PublishedAt = &t
	}
	if platformPostID.Valid {
		v := platformPostID.String
		j.PlatformPostID = &v
	}
	if platformURL.Valid {
		v := platformURL.String
		j.PlatformURL = &v
	}
	if lastError.Valid {
		v := lastError.String
		j.LastError = &v
	}
	if err := unmarshalColumn(content, &j.Content); err != nil {
		return nil, fmt.Errorf("decode content of job %s: %w", j.ID, err)
	}
	if err := unmarshalColumn(validation, &j.ValidationResults); err != nil {
		return nil, fmt.Errorf("decode validation results of job %s: %w", j.ID, err)
	}
	if err := unmarshalColumn(details, &j.ErrorDetails); err != nil {
		return nil, fmt.Errorf("decode error details of job %s: %w", j.ID, err)
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*model.PublishingJob, error) {
	defer rows.Close()
	var jobs []*model.PublishingJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func unmarshalColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// jsonColumn encodes v for a JSON/NVARCHAR column; nil maps and slices become NULL.
func jsonColumn(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]string:
		if t == nil {
			return nil, nil
		}
	case []model.ValidationResult:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jobArgs returns the values of jobColumns in order.
func jobArgs(j *model.PublishingJob) ([]interface{}, error) {
	content, err := jsonColumn(j.Content)
	if err != nil {
		return nil, err
	}
	validation, err := jsonColumn(j.ValidationResults)
	if err != nil {
		return nil, err
	}
	details, err := jsonColumn(j.ErrorDetails)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		j.ID, j.BrandID, j.TenantID, nullString(j.PostID), string(j.Platform), nullString(j.ConnectionID), string(j.Status),
		j.ScheduledAt, j.PublishedAt, j.PlatformPostID, j.PlatformURL, content, validation, j.RetryCount, j.MaxRetries,
		j.LastError, details, j.CreatedAt.UTC(), j.UpdatedAt.UTC(),
	}, nil
}

// statusArgs returns status, retry_count, last_error, error_details, platform_post_id,
// platform_url, published_at, validation_results, updated_at, id.
func statusArgs(u model.JobStatusUpdate) ([]interface{}, error) {
	details, err := jsonColumn(u.ErrorDetails)
	if err != nil {
		return nil, err
	}
	validation, err := jsonColumn(u.ValidationResults)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		string(u.Status), u.RetryCount, u.LastError, details, u.PlatformPostID, u.PlatformURL, u.PublishedAt,
		validation, u.UpdatedAt.UTC(), u.ID,
	}, nil
}

func logArgs(e *model.PublishingLogEntry) ([]interface{}, error) {
	snapshot, err := jsonColumn(e.ContentSnapshot)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		e.JobID, e.BrandID, string(e.Platform), string(e.Outcome), e.AttemptNumber, e.PlatformPostID, e.PlatformURL,
		e.ErrorCode, e.ErrorMessage, snapshot, e.Timestamp.UTC(),
	}, nil
}
