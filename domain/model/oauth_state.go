package model

import (
	"regexp"
	"strings"
	"time"
)

const (
	// StateTokenBytes is the amount of randomness behind a state token (hex encoded, so 64 chars).
	StateTokenBytes = 32
	// MinStateTokenLength rejects truncated tokens before they reach the ledger.
	MinStateTokenLength = 32
	// StateSeparator joins the raw token and the brand id in a compound state.
	StateSeparator = ":"
)

var (
	stateTokenPattern = regexp.MustCompile(`^[a-f0-9]+$`)
	stateBrandPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// OAuthState is one pending authorization handshake.
type OAuthState struct {
	Token        string    `json:"token"`
	BrandID      string    `json:"brand_id"`
	TenantID     string    `json:"tenant_id"`
	Platform     Platform  `json:"platform"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ParsedState is what the callback gate hands to the handler.
type ParsedState struct {
	FullState string   `json:"full_state"`
	RawToken  string   `json:"raw_token"`
	Parts     []string `json:"parts"`
}

// BrandID returns the brand suffix of a compound state, if any.
func (p ParsedState) BrandID() string {
	if len(p.Parts) > 1 {
		return p.Parts[1]
	}
	return ""
}

// CompoundState builds the value sent as the OAuth state parameter.
func CompoundState(token, brandID string) string {
	if brandID == "" {
		return token
	}
	return token + StateSeparator + brandID
}

// RawStateToken strips the optional brand suffix.
func RawStateToken(state string) string {
	if i := strings.Index(state, StateSeparator); i >= 0 {
		return state[:i]
	}
	return state
}

// ValidBrandID reports whether id can travel as the suffix of a compound state.
func ValidBrandID(id string) bool {
	return stateBrandPattern.MatchString(id)
}

// ValidateStateToken checks the shape of a state (token or token:brandId)
// without touching the ledger.
func ValidateStateToken(state string) bool {
	_, ok := ParseState(state)
	return ok
}

// ParseState validates and splits a state value.
func ParseState(state string) (ParsedState, bool) {
	if state == "" {
		return ParsedState{}, false
	}
	parts := strings.Split(state, StateSeparator)
	if len(parts) > 2 {
		return ParsedState{}, false
	}
	raw := parts[0]
	if len(raw) < MinStateTokenLength || !stateTokenPattern.MatchString(raw) {
		return ParsedState{}, false
	}
	if len(parts) == 2 && !ValidBrandID(parts[1]) {
		return ParsedState{}, false
	}
	return ParsedState{FullState: state, RawToken: raw, Parts: parts}, true
}

// AuthorizationRequest is returned when a client starts an OAuth flow.
type AuthorizationRequest struct {
	Platform     Platform  `json:"platform"`
	AuthURL      string    `json:"authUrl"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"codeVerifier,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
