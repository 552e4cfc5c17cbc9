package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"brand-publisher/infrastructure/logger"
)

// EnsurePublishingSchema creates the job and log tables in PostgreSQL if they are missing.
func EnsurePublishingSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tables := []struct {
		name string
		ddl  string
	}{
		{"publishing_jobs", `CREATE TABLE IF NOT EXISTS publishing_jobs (
        id TEXT PRIMARY KEY,
        brand_id TEXT NOT NULL,
        tenant_id TEXT NOT NULL,
        post_id TEXT,
        platform TEXT NOT NULL,
        connection_id TEXT,
        status TEXT NOT NULL,
        scheduled_at TIMESTAMPTZ,
        published_at TIMESTAMPTZ,
        platform_post_id TEXT,
        platform_url TEXT,
        content JSONB NOT NULL,
        validation_results JSONB,
        retry_count INT NOT NULL DEFAULT 0,
        max_retries INT NOT NULL DEFAULT 3,
        last_error TEXT,
        error_details JSONB,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`},
		{"publishing_logs", `CREATE TABLE IF NOT EXISTS publishing_logs (
        id BIGSERIAL PRIMARY KEY,
        job_id TEXT NOT NULL,
        brand_id TEXT NOT NULL,
        platform TEXT NOT NULL,
        outcome TEXT NOT NULL,
        attempt_number INT NOT NULL,
        platform_post_id TEXT,
        platform_url TEXT,
        error_code TEXT,
        error_message TEXT,
        content_snapshot JSONB,
        created_at TIMESTAMPTZ NOT NULL
    )`},
	}
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_publishing_jobs_status ON publishing_jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_publishing_jobs_brand_created ON publishing_jobs(brand_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_publishing_logs_job_attempt ON publishing_logs(job_id, attempt_number)`,
	}
	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed creating publishing index")
		}
	}
	return nil
}

// EnsurePublishingSchemaMSSQL is EnsurePublishingSchema for SQL Server.
func EnsurePublishingSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	createIfMissing := func(table, ddl string) error {
		q := fmt.Sprintf(`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.%s') AND type in (N'U'))
BEGIN
%s
END`, table, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create %s (mssql): %w", table, err)
		}
		return nil
	}
	if err := createIfMissing("publishing_jobs", `    CREATE TABLE dbo.[publishing_jobs] (
        id NVARCHAR(64) NOT NULL PRIMARY KEY,
        brand_id NVARCHAR(128) NOT NULL,
        tenant_id NVARCHAR(128) NOT NULL,
        post_id NVARCHAR(128) NULL,
        platform NVARCHAR(32) NOT NULL,
        connection_id NVARCHAR(64) NULL,
        status NVARCHAR(32) NOT NULL,
        scheduled_at DATETIME2 NULL,
        published_at DATETIME2 NULL,
        platform_post_id NVARCHAR(255) NULL,
        platform_url NVARCHAR(1024) NULL,
        content NVARCHAR(MAX) NOT NULL,
        validation_results NVARCHAR(MAX) NULL,
        retry_count INT NOT NULL DEFAULT 0,
        max_retries INT NOT NULL DEFAULT 3,
        last_error NVARCHAR(MAX) NULL,
        error_details NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_publishing_jobs_status ON dbo.[publishing_jobs](status);
    CREATE INDEX IX_publishing_jobs_brand_created ON dbo.[publishing_jobs](brand_id, created_at DESC);`); err != nil {
		return err
	}
	return createIfMissing("publishing_logs", `    CREATE TABLE dbo.[publishing_logs] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        job_id NVARCHAR(64) NOT NULL,
        brand_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        outcome NVARCHAR(32) NOT NULL,
        attempt_number INT NOT NULL,
        platform_post_id NVARCHAR(255) NULL,
        platform_url NVARCHAR(1024) NULL,
        error_code NVARCHAR(64) NULL,
        error_message NVARCHAR(MAX) NULL,
        content_snapshot NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_publishing_logs_job_attempt ON dbo.[publishing_logs](job_id, attempt_number);`)
}
