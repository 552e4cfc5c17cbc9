package model

import "github.com/golang-jwt/jwt"

// TenantClaims are the JWT claims expected on authenticated API calls.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	UserName string `json:"user_name"`
	jwt.StandardClaims
}
