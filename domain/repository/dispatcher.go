package repository

import (
	"context"

	"brand-publisher/domain/model"
)

// IDispatcher delivers a job to the platform it targets.
type IDispatcher interface {
	Dispatch(ctx context.Context, job *model.PublishingJob) model.DispatchResult
}

// ICredentialDirectory is the per-platform OAuth client.
type ICredentialDirectory interface {
	BuildAuthorizationURL(ctx context.Context, platform model.Platform, brandID, tenantID string) (*model.AuthorizationRequest, error)
	ExchangeCode(ctx context.Context, platform model.Platform, code, state string) (*model.TokenGrant, error)
	Refresh(ctx context.Context, conn *model.PlatformConnection) (*model.TokenGrant, error)
	IsExpired(conn *model.PlatformConnection) bool
}
