package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

type IConnectionUsecase interface {
	InitiateOAuth(ctx context.Context, tenantID, brandID string, platform model.Platform) (*model.AuthorizationRequest, error)
	CompleteOAuth(ctx context.Context, platform model.Platform, code, state string) (*model.PlatformConnection, error)
	Refresh(ctx context.Context, tenantID, brandID string, platform model.Platform) error
	Verify(ctx context.Context, tenantID, brandID string, platform model.Platform) (*dto.ConnectionStatus, error)
	Disconnect(ctx context.Context, tenantID, brandID string, platform model.Platform) error
}

type connectionUsecase struct {
	credentials repository.ICredentialDirectory
	connections repository.IConnection
	now         func() time.Time
	newID       func() string
}

func NewConnectionUsecase(credentials repository.ICredentialDirectory, connections repository.IConnection) IConnectionUsecase {
	return &connectionUsecase{
		credentials: credentials,
		connections: connections,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func normalizePlatform(p model.Platform) (model.Platform, error) {
	p = model.Platform(strings.ToLower(strings.TrimSpace(string(p))))
	if !p.IsValid() {
		return p, model.ErrUnsupportedPlatform
	}
	return p, nil
}

func (u *connectionUsecase) InitiateOAuth(ctx context.Context, tenantID, brandID string, platform model.Platform) (*model.AuthorizationRequest, error) {
	platform, err := normalizePlatform(platform)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(brandID) == "" {
		return nil, model.NewPublishError(model.ErrorKindValidation, "BRAND_REQUIRED", "brand id is required", nil)
	}
	if !model.ValidBrandID(brandID) {
		return nil, model.ErrInvalidBrandID
	}
	req, err := u.credentials.BuildAuthorizationURL(ctx, platform, brandID, tenantID)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Error("Failed to build authorization URL")
		return nil, err
	}
	return req, nil
}

// CompleteOAuth exchanges the callback code and stores the resulting
// connection. A reused or expired state fails before any connection write.
func (u *connectionUsecase) CompleteOAuth(ctx context.Context, platform model.Platform, code, state string) (*model.PlatformConnection, error) {
	platform, err := normalizePlatform(platform)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, model.NewPublishError(model.ErrorKindToken, "CODE_REQUIRED", "authorization code is missing", nil)
	}
	grant, err := u.credentials.ExchangeCode(ctx, platform, code, state)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Warn("OAuth code exchange failed")
		return nil, err
	}

	now := u.now()
	conn := &model.PlatformConnection{
		ID:             u.newID(),
		Platform:       platform,
		BrandID:        grant.BrandID,
		TenantID:       grant.TenantID,
		AccountID:      grant.Account.ID,
		AccountName:    grant.Account.Name,
		AccessToken:    grant.AccessToken,
		RefreshToken:   grant.RefreshToken,
		TokenExpiresAt: grant.Expiry,
		Status:         model.ConnectionConnected,
		Permissions:    model.StringList(grant.Scopes),
		Metadata:       model.Metadata(grant.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored, err := u.connections.Upsert(ctx, conn)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Error("Failed to store platform connection")
		return nil, model.Wrap(model.ErrPersistence, err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"platform":   platform,
		"brand_id":   stored.BrandID,
		"account_id": stored.AccountID,
	}).Info("Platform connected")
	return stored, nil
}

func (u *connectionUsecase) find(ctx context.Context, tenantID, brandID string, platform model.Platform) (*model.PlatformConnection, error) {
	platform, err := normalizePlatform(platform)
	if err != nil {
		return nil, err
	}
	conn, err := u.connections.GetByBrandPlatform(ctx, brandID, platform)
	if err != nil {
		return nil, err
	}
	if conn == nil || (tenantID != "" && conn.TenantID != tenantID) {
		return nil, model.ErrConnectionNotFound
	}
	return conn, nil
}

// Refresh renews the tokens of a connection. A missing refresh token marks
// the connection expired, any other failure marks it errored.
func (u *connectionUsecase) Refresh(ctx context.Context, tenantID, brandID string, platform model.Platform) error {
	conn, err := u.find(ctx, tenantID, brandID, platform)
	if err != nil {
		return err
	}
	grant, err := u.credentials.Refresh(ctx, conn)
	if err != nil {
		status := model.ConnectionError
		if errors.Is(err, model.ErrNoRefreshToken) {
			status = model.ConnectionExpired
		}
		if uerr := u.connections.UpdateStatus(ctx, conn.ID, status); uerr != nil {
			logger.GetLogger().WithField("error", uerr).WithField("connection_id", conn.ID).Error("Failed to update connection status")
		}
		logger.GetLogger().WithField("error", err).WithField("connection_id", conn.ID).Warn("Token refresh failed")
		return err
	}
	if err := u.connections.UpdateTokens(ctx, conn.ID, grant); err != nil {
		return model.Wrap(model.ErrPersistence, err)
	}
	return nil
}

func (u *connectionUsecase) Verify(ctx context.Context, tenantID, brandID string, platform model.Platform) (*dto.ConnectionStatus, error) {
	conn, err := u.find(ctx, tenantID, brandID, platform)
	if errors.Is(err, model.ErrConnectionNotFound) {
		return &dto.ConnectionStatus{
			Platform: strings.ToLower(string(platform)),
			BrandID:  brandID,
			Status:   string(model.ConnectionDisconnected),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	expired := u.credentials.IsExpired(conn)
	return &dto.ConnectionStatus{
		Platform:       string(conn.Platform),
		BrandID:        conn.BrandID,
		Status:         string(conn.Status),
		Connected:      conn.Status == model.ConnectionConnected && !expired,
		Expired:        expired || conn.Status == model.ConnectionExpired,
		AccountID:      conn.AccountID,
		AccountName:    conn.AccountName,
		TokenExpiresAt: conn.TokenExpiresAt,
		Permissions:    []string(conn.Permissions),
	}, nil
}

func (u *connectionUsecase) Disconnect(ctx context.Context, tenantID, brandID string, platform model.Platform) error {
	conn, err := u.find(ctx, tenantID, brandID, platform)
	if err != nil {
		return err
	}
	if err := u.connections.Disconnect(ctx, conn.ID); err != nil {
		return model.Wrap(model.ErrPersistence, err)
	}
	logger.GetLogger().WithField("connection_id", conn.ID).WithField("platform", conn.Platform).Info("Platform disconnected")
	return nil
}
