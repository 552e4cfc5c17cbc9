package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionExpired      ConnectionStatus = "expired"
	ConnectionError        ConnectionStatus = "error"
)

// PlatformConnection stores the OAuth credentials of a brand's account on one platform.
// (BrandID, Platform) is unique.
type PlatformConnection struct {
	ID             string           `json:"id" gorm:"primaryKey;size:64"`
	Platform       Platform         `json:"platform" gorm:"size:32;not null;uniqueIndex:idx_brand_platform"`
	BrandID        string           `json:"brand_id" gorm:"size:64;not null;uniqueIndex:idx_brand_platform"`
	TenantID       string           `json:"tenant_id" gorm:"size:64;not null;index"`
	AccountID      string           `json:"account_id" gorm:"size:128"`
	AccountName    string           `json:"account_name" gorm:"size:255"`
	AccessToken    string           `json:"-" gorm:"type:text"`
	RefreshToken   string           `json:"-" gorm:"type:text"`
	TokenExpiresAt *time.Time       `json:"token_expires_at,omitempty"`
	Status         ConnectionStatus `json:"status" gorm:"size:32;not null"`
	Permissions    StringList       `json:"permissions" gorm:"type:text"`
	Metadata       Metadata         `json:"metadata" gorm:"type:text"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (PlatformConnection) TableName() string {
	return "platform_connections"
}

// StringList is persisted as a JSON array.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *StringList) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Metadata is persisted as a JSON object.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(m))
	return string(b), err
}

func (m *Metadata) Scan(src interface{}) error {
	return scanJSON(src, m)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported json column type")
	}
}

// AccountInfo is the identity of the account that authorized the app.
type AccountInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// TokenGrant is the result of an authorization-code exchange or a refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Expiry       *time.Time
	Scopes       []string
	Account      AccountInfo
	Metadata     map[string]string
	BrandID      string
	TenantID     string
}
