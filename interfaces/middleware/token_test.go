package middleware

import (
	"time"

	"brand-publisher/domain/model"

	"github.com/golang-jwt/jwt"
)

// signToken mints an HS256 tenant token valid for ttl.
func signToken(tenantID, userName, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := model.TenantClaims{
		TenantID: tenantID,
		UserName: userName,
		StandardClaims: jwt.StandardClaims{
			Subject:   userName,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}
