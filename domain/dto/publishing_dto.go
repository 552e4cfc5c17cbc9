package dto

import (
	"time"

	"brand-publisher/domain/model"
)

// PublishRequest is the body of POST /api/publishing/:brandId/publish.
type PublishRequest struct {
	Platforms    []string          `json:"platforms" binding:"required,min=1,dive,required"`
	Content      model.PostContent `json:"content"`
	PostID       string            `json:"postId,omitempty"`
	ScheduledAt  *time.Time        `json:"scheduledAt,omitempty"`
	ValidateOnly bool              `json:"validateOnly,omitempty"`
	MaxRetries   int               `json:"maxRetries,omitempty" binding:"omitempty,min=0,max=10"`
}

type PlatformError struct {
	Platform  string `json:"platform"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}

type PublishResponse struct {
	Success           bool                                `json:"success"`
	Jobs              []*model.PublishingJob              `json:"jobs"`
	ValidationResults map[string][]model.ValidationResult `json:"validationResults"`
	Errors            []PlatformError                     `json:"errors,omitempty"`
}

// JobListQuery binds GET /api/publishing/:brandId/jobs.
type JobListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending scheduled processing published failed cancelled"`
	Platform string `form:"platform"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the only error shape the API returns.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}
