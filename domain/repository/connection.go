package repository

import (
	"context"

	"brand-publisher/domain/model"
)

// IConnection persists platform connections, addressable by (brandID, platform).
type IConnection interface {
	Upsert(ctx context.Context, conn *model.PlatformConnection) (*model.PlatformConnection, error)
	GetByID(ctx context.Context, id string) (*model.PlatformConnection, error)
	GetByBrandPlatform(ctx context.Context, brandID string, platform model.Platform) (*model.PlatformConnection, error)
	UpdateTokens(ctx context.Context, id string, grant *model.TokenGrant) error
	UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error
	Disconnect(ctx context.Context, id string) error
}
