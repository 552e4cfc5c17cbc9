package repository

import (
	"context"

	"brand-publisher/domain/model"
)

// IStateLedger issues and consumes single-use OAuth handshakes.
type IStateLedger interface {
	Issue(ctx context.Context, brandID, tenantID string, platform model.Platform) (*model.OAuthState, error)
	// Consume returns model.ErrInvalidState when the token is unknown, expired or already used.
	Consume(ctx context.Context, token string) (*model.OAuthState, error)
}
