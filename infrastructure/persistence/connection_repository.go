package persistence

import (
	"context"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectionRepository stores platform connections through gorm (MySQL).
type ConnectionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db, now: time.Now}
}

var _ repository.IConnection = (*ConnectionRepository)(nil)

// EnsureConnectionSchema migrates the platform_connections table.
func EnsureConnectionSchema(db *gorm.DB) error {
	return db.AutoMigrate(&model.PlatformConnection{})
}

// Upsert inserts conn or, when (brand_id, platform) exists, replaces its
// credentials in place. The stored row is returned.
func (r *ConnectionRepository) Upsert(ctx context.Context, conn *model.PlatformConnection) (*model.PlatformConnection, error) {
	now := r.now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "brand_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id", "account_id", "account_name", "access_token", "refresh_token",
			"token_expires_at", "status", "permissions", "metadata", "updated_at",
		}),
	}).Create(conn).Error
	if err != nil {
		return nil, err
	}
	return r.GetByBrandPlatform(ctx, conn.BrandID, conn.Platform)
}

func (r *ConnectionRepository) first(ctx context.Context, query string, args ...interface{}) (*model.PlatformConnection, error) {
	var found []model.PlatformConnection
	if err := r.db.WithContext(ctx).Where(query, args...).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, model.ErrConnectionNotFound
	}
	return &found[0], nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*model.PlatformConnection, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ConnectionRepository) GetByBrandPlatform(ctx context.Context, brandID string, platform model.Platform) (*model.PlatformConnection, error) {
	return r.first(ctx, "brand_id = ? AND platform = ?", brandID, string(platform))
}

func (r *ConnectionRepository) update(ctx context.Context, id string, values map[string]interface{}) error {
	values["updated_at"] = r.now().UTC()
	res := r.db.WithContext(ctx).Model(&model.PlatformConnection{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrConnectionNotFound
	}
	return nil
}

// UpdateTokens stores a refreshed grant. The refresh token is kept when the
// platform did not rotate it.
func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id string, grant *model.TokenGrant) error {
	values := map[string]interface{}{
		"access_token":     grant.AccessToken,
		"token_expires_at": grant.Expiry,
		"status":           string(model.ConnectionConnected),
	}
	if grant.RefreshToken != "" {
		values["refresh_token"] = grant.RefreshToken
	}
	if len(grant.Scopes) > 0 {
		values["permissions"] = model.StringList(grant.Scopes)
	}
	return r.update(ctx, id, values)
}

func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error {
	return r.update(ctx, id, map[string]interface{}{"status": string(status)})
}

// Disconnect clears the tokens and flips the status.
func (r *ConnectionRepository) Disconnect(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]interface{}{
		"access_token":     "",
		"refresh_token":    "",
		"token_expires_at": nil,
		"status":           string(model.ConnectionDisconnected),
	})
}
