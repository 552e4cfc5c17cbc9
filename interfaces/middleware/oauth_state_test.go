package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"brand-publisher/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validToken = strings.Repeat("ab", 32)

func stateRouter(now time.Time, seen *model.ParsedState) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/oauth/callback/:platform", oauthState(10*time.Minute, func() time.Time { return now }), func(c *gin.Context) {
		p, ok := ParsedStateFrom(c)
		if ok && seen != nil {
			*seen = p
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func callback(r *gin.Engine, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/callback/linkedin?"+query, nil))
	return w
}

func TestOAuthState_Accepts(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	var seen model.ParsedState
	r := stateRouter(now, &seen)

	w := callback(r, "code=abc&state="+validToken+":brand-1")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, validToken, seen.RawToken)
	assert.Equal(t, "brand-1", seen.BrandID())

	iatSeconds := strconv.FormatInt(now.Add(-5*time.Minute).Unix(), 10)
	assert.Equal(t, http.StatusNoContent, callback(r, "state="+validToken+"&iat="+iatSeconds).Code)

	iatMillis := strconv.FormatInt(now.Add(-9*time.Minute).UnixMilli(), 10)
	assert.Equal(t, http.StatusNoContent, callback(r, "state="+validToken+"&iat="+iatMillis).Code)
}

func TestOAuthState_Rejects(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	r := stateRouter(now, nil)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"missing", "code=abc", "STATE_MISSING"},
		{"too short", "state=abc123", "INVALID_STATE"},
		{"not hex", "state=" + strings.Repeat("zz", 32), "INVALID_STATE"},
		{"too many parts", "state=" + validToken + ":a:b", "INVALID_STATE"},
		{"stale seconds", "state=" + validToken + "&iat=" + strconv.FormatInt(now.Add(-11*time.Minute).Unix(), 10), "STATE_EXPIRED"},
		{"stale millis", "state=" + validToken + "&iat=" + strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10), "STATE_EXPIRED"},
		{"garbage iat", "state=" + validToken + "&iat=yesterday", "STATE_EXPIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := callback(r, tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestParseIssuedAt(t *testing.T) {
	s, ok := parseIssuedAt("1777888000")
	require.True(t, ok)
	assert.Equal(t, int64(1777888000), s.Unix())

	ms, ok := parseIssuedAt("1777888000123")
	require.True(t, ok)
	assert.Equal(t, int64(1777888000123), ms.UnixMilli())

	_, ok = parseIssuedAt("-5")
	assert.False(t, ok)
}
