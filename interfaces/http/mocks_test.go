package http

import (
	"context"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"

	"github.com/stretchr/testify/mock"
)

type mockPublishing struct{ mock.Mock }

func (m *mockPublishing) Publish(ctx context.Context, tenantID, brandID string, req dto.PublishRequest) (*dto.PublishResponse, error) {
	args := m.Called(ctx, tenantID, brandID, req)
	res, _ := args.Get(0).(*dto.PublishResponse)
	return res, args.Error(1)
}

func (m *mockPublishing) ListJobs(ctx context.Context, tenantID, brandID string, q dto.JobListQuery) ([]*model.PublishingJob, error) {
	args := m.Called(ctx, tenantID, brandID, q)
	jobs, _ := args.Get(0).([]*model.PublishingJob)
	return jobs, args.Error(1)
}

func (m *mockPublishing) RetryJob(ctx context.Context, tenantID, jobID string) error {
	return m.Called(ctx, tenantID, jobID).Error(0)
}

func (m *mockPublishing) CancelJob(ctx context.Context, tenantID, jobID string) error {
	return m.Called(ctx, tenantID, jobID).Error(0)
}

type mockConnections struct{ mock.Mock }

func (m *mockConnections) InitiateOAuth(ctx context.Context, tenantID, brandID string, platform model.Platform) (*model.AuthorizationRequest, error) {
	args := m.Called(ctx, tenantID, brandID, platform)
	req, _ := args.Get(0).(*model.AuthorizationRequest)
	return req, args.Error(1)
}

func (m *mockConnections) CompleteOAuth(ctx context.Context, platform model.Platform, code, state string) (*model.PlatformConnection, error) {
	args := m.Called(ctx, platform, code, state)
	conn, _ := args.Get(0).(*model.PlatformConnection)
	return conn, args.Error(1)
}

func (m *mockConnections) Refresh(ctx context.Context, tenantID, brandID string, platform model.Platform) error {
	return m.Called(ctx, tenantID, brandID, platform).Error(0)
}

func (m *mockConnections) Verify(ctx context.Context, tenantID, brandID string, platform model.Platform) (*dto.ConnectionStatus, error) {
	args := m.Called(ctx, tenantID, brandID, platform)
	st, _ := args.Get(0).(*dto.ConnectionStatus)
	return st, args.Error(1)
}

func (m *mockConnections) Disconnect(ctx context.Context, tenantID, brandID string, platform model.Platform) error {
	return m.Called(ctx, tenantID, brandID, platform).Error(0)
}
