package model

import "time"

// Platform identifies a third-party social platform.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformYouTube   Platform = "youtube"
)

// SupportedPlatforms lists every platform the pipeline can connect and publish to.
var SupportedPlatforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformYouTube,
}

func (p Platform) IsValid() bool {
	for _, s := range SupportedPlatforms {
		if p == s {
			return true
		}
	}
	return false
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusProcessing JobStatus = "processing"
	JobStatusPublished  JobStatus = "published"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsRunnable reports whether a job in this status may be picked up by a worker.
func (s JobStatus) IsRunnable() bool {
	return s == JobStatusPending || s == JobStatusScheduled
}

// IsTerminal reports whether no automatic transition leaves this status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusPublished || s == JobStatusFailed || s == JobStatusCancelled
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type MediaItem struct {
	URL     string    `json:"url" validate:"required,url"`
	Type    MediaType `json:"type" validate:"required,oneof=image video"`
	AltText string    `json:"alt_text,omitempty"`
}

// PostContent is the brand content delivered to a platform.
type PostContent struct {
	Body     string      `json:"body"`
	Title    string      `json:"title,omitempty"`
	Link     string      `json:"link,omitempty"`
	Hashtags []string    `json:"hashtags,omitempty"`
	Media    []MediaItem `json:"media,omitempty"`
}

type ValidationStatus string

const (
	ValidationOK      ValidationStatus = "ok"
	ValidationWarning ValidationStatus = "warning"
	ValidationError   ValidationStatus = "error"
)

type ValidationResult struct {
	Field   string           `json:"field"`
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
}

// PublishingJob is one delivery of a post to one platform.
type PublishingJob struct {
	ID                string             `json:"id"`
	BrandID           string             `json:"brand_id"`
	TenantID          string             `json:"tenant_id"`
	PostID            string             `json:"post_id"`
	Platform          Platform           `json:"platform"`
	ConnectionID      string             `json:"connection_id"`
	Status            JobStatus          `json:"status"`
	ScheduledAt       *time.Time         `json:"scheduled_at,omitempty"`
	PublishedAt       *time.Time         `json:"published_at,omitempty"`
	PlatformPostID    *string            `json:"platform_post_id,omitempty"`
	PlatformURL       *string            `json:"platform_url,omitempty"`
	Content           PostContent        `json:"content"`
	ValidationResults []ValidationResult `json:"validation_results"`
	RetryCount        int                `json:"retry_count"`
	MaxRetries        int                `json:"max_retries"`
	LastError         *string            `json:"last_error,omitempty"`
	ErrorDetails      map[string]string  `json:"error_details,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Clone returns a copy that shares no mutable state with j.
func (j *PublishingJob) Clone() *PublishingJob {
	if j == nil {
		return nil
	}
	c := *j
	c.ValidationResults = append([]ValidationResult(nil), j.ValidationResults...)
	c.Content.Hashtags = append([]string(nil), j.Content.Hashtags...)
	c.Content.Media = append([]MediaItem(nil), j.Content.Media...)
	if j.ErrorDetails != nil {
		c.ErrorDetails = make(map[string]string, len(j.ErrorDetails))
		for k, v := range j.ErrorDetails {
			c.ErrorDetails[k] = v
		}
	}
	return &c
}

// StatusUpdate captures the mutable columns written on every status transition.
func (j *PublishingJob) StatusUpdate() JobStatusUpdate {
	return JobStatusUpdate{
		ID:                j.ID,
		Status:            j.Status,
		RetryCount:        j.RetryCount,
		LastError:         j.LastError,
		ErrorDetails:      j.ErrorDetails,
		PlatformPostID:    j.PlatformPostID,
		PlatformURL:       j.PlatformURL,
		PublishedAt:       j.PublishedAt,
		ValidationResults: j.ValidationResults,
		UpdatedAt:         j.UpdatedAt,
	}
}

type JobStatusUpdate struct {
	ID                string
	Status            JobStatus
	RetryCount        int
	LastError         *string
	ErrorDetails      map[string]string
	PlatformPostID    *string
	PlatformURL       *string
	PublishedAt       *time.Time
	ValidationResults []ValidationResult
	UpdatedAt         time.Time
}

// JobFilter narrows job listings. Zero values mean "any".
type JobFilter struct {
	TenantID string
	BrandID  string
	Status   JobStatus
	Platform Platform
	Limit    int
	Offset   int
}

// Matches reports whether j passes every set field of the filter. Limit and
// Offset are not considered.
func (f JobFilter) Matches(j *PublishingJob) bool {
	switch {
	case f.TenantID != "" && j.TenantID != f.TenantID:
		return false
	case f.BrandID != "" && j.BrandID != f.BrandID:
		return false
	case f.Status != "" && j.Status != f.Status:
		return false
	case f.Platform != "" && j.Platform != f.Platform:
		return false
	}
	return true
}

type LogOutcome string

const (
	LogOutcomePublished LogOutcome = "published"
	LogOutcomeFailed    LogOutcome = "failed"
)

// PublishingLogEntry is an append-only audit record of one dispatch attempt.
type PublishingLogEntry struct {
	JobID           string      `json:"job_id" bson:"job_id"`
	BrandID         string      `json:"brand_id" bson:"brand_id"`
	Platform        Platform    `json:"platform" bson:"platform"`
	Outcome         LogOutcome  `json:"outcome" bson:"outcome"`
	AttemptNumber   int         `json:"attempt_number" bson:"attempt_number"`
	PlatformPostID  *string     `json:"platform_post_id,omitempty" bson:"platform_post_id,omitempty"`
	PlatformURL     *string     `json:"platform_url,omitempty" bson:"platform_url,omitempty"`
	ErrorCode       *string     `json:"error_code,omitempty" bson:"error_code,omitempty"`
	ErrorMessage    *string     `json:"error_message,omitempty" bson:"error_message,omitempty"`
	ContentSnapshot PostContent `json:"content_snapshot" bson:"content_snapshot"`
	Timestamp       time.Time   `json:"timestamp" bson:"timestamp"`
}

// DispatchResult is what a platform adapter reports back to the queue.
// Failures are values, never panics, so retry logic can treat them uniformly.
type DispatchResult struct {
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	PlatformURL    string `json:"platform_url,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
	Error          string `json:"error,omitempty"`
	Retryable      bool   `json:"retryable"`
}

func DispatchOK(postID, url string) DispatchResult {
	return DispatchResult{Success: true, PlatformPostID: postID, PlatformURL: url}
}

func DispatchFailed(code, message string) DispatchResult {
	return DispatchResult{ErrorCode: code, Error: message, Retryable: true}
}

// Dispatch error codes.
const (
	DispatchCodeRateLimited        = "RATE_LIMITED"
	DispatchCodeAuthRevoked        = "AUTH_REVOKED"
	DispatchCodeBadRequest         = "BAD_REQUEST"
	DispatchCodePlatformError      = "PLATFORM_ERROR"
	DispatchCodeNoConnection       = "CONNECTION_NOT_FOUND"
	DispatchCodeNotConnected       = "CONNECTION_NOT_ACTIVE"
	DispatchCodeTokenExpired       = "TOKEN_EXPIRED"
	DispatchCodeUnsupported        = "UNSUPPORTED_PLATFORM"
	DispatchCodeInternal           = "INTERNAL_ERROR"
	DispatchCodeValidationRejected = "VALIDATION_FAILED"
)

const JobEventType = "job_status"

// JobEvent is the wire form of a job transition sent to SSE subscribers and message brokers.
type JobEvent struct {
	Type           string    `json:"type"`
	JobID          string    `json:"job_id"`
	BrandID        string    `json:"brand_id"`
	TenantID       string    `json:"tenant_id"`
	Platform       Platform  `json:"platform"`
	Status         JobStatus `json:"status"`
	RetryCount     int       `json:"retry_count"`
	PlatformPostID *string   `json:"platform_post_id,omitempty"`
	PlatformURL    *string   `json:"platform_url,omitempty"`
	Error          *string   `json:"error,omitempty"`
	ErrorCode      string    `json:"error_code,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewJobEvent(job *PublishingJob) JobEvent {
	return JobEvent{
		Type:           JobEventType,
		JobID:          job.ID,
		BrandID:        job.BrandID,
		TenantID:       job.TenantID,
		Platform:       job.Platform,
		Status:         job.Status,
		RetryCount:     job.RetryCount,
		PlatformPostID: job.PlatformPostID,
		PlatformURL:    job.PlatformURL,
		Error:          job.LastError,
		ErrorCode:      job.ErrorDetails["error_code"],
		OccurredAt:     job.UpdatedAt,
	}
}
