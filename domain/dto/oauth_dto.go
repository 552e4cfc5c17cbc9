package dto

import "time"

type OAuthInitiateRequest struct {
	Platform string `json:"platform" binding:"required"`
	BrandID  string `json:"brandId" binding:"required"`
}

// ConnectionStatus is returned by the verify endpoint.
type ConnectionStatus struct {
	Platform       string     `json:"platform"`
	BrandID        string     `json:"brandId"`
	Status         string     `json:"status"`
	Connected      bool       `json:"connected"`
	Expired        bool       `json:"expired"`
	AccountID      string     `json:"accountId,omitempty"`
	AccountName    string     `json:"accountName,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
}
