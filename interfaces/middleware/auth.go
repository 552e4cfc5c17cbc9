package middleware

import (
	"errors"
	"net/http"
	"strings"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const (
	ContextTenantID = "tenant_id"
	ContextUserName = "user_name"
)

// Auth verifies the bearer JWT and puts the caller's tenant into the context.
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		token := strings.TrimPrefix(authorization, "Bearer ")
		if authorization == "" || token == authorization || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized", ErrorCode: "UNAUTHORIZED"})
			return
		}

		claims, err := getClaim(token, secretKey)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, abort(err))
			return
		}
		if claims.TenantID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token has no tenant", ErrorCode: "UNAUTHORIZED"})
			return
		}
		ctx.Set(ContextTenantID, claims.TenantID)
		ctx.Set(ContextUserName, claims.UserName)
		ctx.Next()
	}
}

func abort(err error) dto.ErrorResponse {
	res := dto.ErrorResponse{Error: "Unauthorized", ErrorCode: "UNAUTHORIZED"}
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			res.Error = "That's not even a token"
			res.ErrorCode = "TOKEN_MALFORMED"
		} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			res.Error = "Token is expired or not active yet"
			res.ErrorCode = "TOKEN_EXPIRED"
		}
	}
	logger.GetLogger().WithField("error", err).Warn("Rejected bearer token")
	return res
}

func getClaim(token, secretKey string) (*model.TenantClaims, error) {
	claims := &model.TenantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
