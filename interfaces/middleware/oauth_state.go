package middleware

import (
	"net/http"
	"strconv"
	"time"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"

	"github.com/gin-gonic/gin"
)

const (
	ContextOAuthState   = "oauth_state"
	DefaultStateMaxAge  = 10 * time.Minute
	millisecondsCutover = 1_000_000_000_000
)

// OAuthState guards OAuth callbacks. It only checks the shape and age of the
// state parameter; consuming it against the ledger is the handler's job.
func OAuthState(maxAge time.Duration) gin.HandlerFunc {
	return oauthState(maxAge, time.Now)
}

func oauthState(maxAge time.Duration, now func() time.Time) gin.HandlerFunc {
	if maxAge <= 0 {
		maxAge = DefaultStateMaxAge
	}
	return func(ctx *gin.Context) {
		state := ctx.Query("state")
		if state == "" {
			rejectState(ctx, "Missing state parameter", "STATE_MISSING")
			return
		}
		parsed, ok := model.ParseState(state)
		if !ok {
			rejectState(ctx, "Invalid state format", "INVALID_STATE")
			return
		}
		if iat := ctx.Query("iat"); iat != "" {
			issued, ok := parseIssuedAt(iat)
			if !ok || now().Sub(issued) > maxAge {
				rejectState(ctx, "State has expired", "STATE_EXPIRED")
				return
			}
		}
		ctx.Set(ContextOAuthState, parsed)
		ctx.Next()
	}
}

// parseIssuedAt reads a unix timestamp in seconds or milliseconds.
func parseIssuedAt(v string) (time.Time, bool) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n > millisecondsCutover {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}

func rejectState(ctx *gin.Context, msg, code string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, ErrorCode: code})
}

// ParsedStateFrom returns the state parsed by OAuthState.
func ParsedStateFrom(ctx *gin.Context) (model.ParsedState, bool) {
	v, ok := ctx.Get(ContextOAuthState)
	if !ok {
		return model.ParsedState{}, false
	}
	p, ok := v.(model.ParsedState)
	return p, ok
}
