package configuration

import (
	"fmt"
	"os"
	"strings"
)

// Default endpoints per platform; config file or env may override any of them.
var platformDefaults = map[string]OAuthClient{
	"facebook": {
		AuthURL:    "https://www.facebook.com/v19.0/dialog/oauth",
		TokenURL:   "https://graph.facebook.com/v19.0/oauth/access_token",
		ProfileURL: "https://graph.facebook.com/v19.0/me?fields=id,name",
		APIBaseURL: "https://graph.facebook.com/v19.0",
		Scopes:     []string{"pages_show_list", "pages_read_engagement", "pages_manage_posts", "public_profile"},
	},
	"instagram": {
		AuthURL:    "https://www.facebook.com/v19.0/dialog/oauth",
		TokenURL:   "https://graph.facebook.com/v19.0/oauth/access_token",
		ProfileURL: "https://graph.facebook.com/v19.0/me?fields=id,name",
		APIBaseURL: "https://graph.facebook.com/v19.0",
		Scopes:     []string{"instagram_basic", "instagram_content_publish", "pages_show_list", "business_management"},
	},
	"twitter": {
		AuthURL:    "https://twitter.com/i/oauth2/authorize",
		TokenURL:   "https://api.twitter.com/2/oauth2/token",
		ProfileURL: "https://api.twitter.com/2/users/me",
		APIBaseURL: "https://api.twitter.com/2",
		Scopes:     []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
	},
	"linkedin": {
		AuthURL:    "https://www.linkedin.com/oauth/v2/authorization",
		TokenURL:   "https://www.linkedin.com/oauth/v2/accessToken",
		ProfileURL: "https://api.linkedin.com/v2/userinfo",
		APIBaseURL: "https://api.linkedin.com/v2",
		Scopes:     []string{"openid", "profile", "w_member_social"},
	},
	"youtube": {
		AuthURL:    "https://accounts.google.com/o/oauth2/auth",
		TokenURL:   "https://oauth2.googleapis.com/token",
		ProfileURL: "",
		APIBaseURL: "",
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube",
			"https://www.googleapis.com/auth/youtube.upload",
		},
	},
}

func initOAuth(C *Config) {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	for name, client := range map[string]*OAuthClient{
		"facebook":  &C.OAuth.Facebook,
		"instagram": &C.OAuth.Instagram,
		"twitter":   &C.OAuth.Twitter,
		"linkedin":  &C.OAuth.LinkedIn,
		"youtube":   &C.OAuth.YouTube,
	} {
		prefix := strings.ToUpper(name)
		defaults := platformDefaults[name]
		defaultRedirect := fmt.Sprintf("%s://localhost:%d/oauth/callback/%s", scheme, C.App.Port, name)

		client.ClientID = getConfigValue(client.ClientID, prefix+"_CLIENT_ID", "")
		client.ClientSecret = getConfigValue(client.ClientSecret, prefix+"_CLIENT_SECRET", "")
		client.RedirectURI = getConfigValue(client.RedirectURI, prefix+"_REDIRECT_URI", defaultRedirect)
		client.AuthURL = getConfigValue(client.AuthURL, prefix+"_AUTH_URL", defaults.AuthURL)
		client.TokenURL = getConfigValue(client.TokenURL, prefix+"_TOKEN_URL", defaults.TokenURL)
		client.ProfileURL = getConfigValue(client.ProfileURL, prefix+"_PROFILE_URL", defaults.ProfileURL)
		client.APIBaseURL = getConfigValue(client.APIBaseURL, prefix+"_API_BASE_URL", defaults.APIBaseURL)
		if len(client.Scopes) == 0 {
			client.Scopes = defaults.Scopes
		}
		// Prefer https redirect URIs locally when TLS enabled
		if C.App.TLSEnabled && client.RedirectURI != "" && !hasHTTPS(client.RedirectURI) {
			client.RedirectURI = toHTTPSCallback(client.RedirectURI)
		}
	}
}

// Client returns the OAuth client configuration of a platform.
func (o OAuth) Client(platform string) (OAuthClient, bool) {
	switch strings.ToLower(platform) {
	case "facebook":
		return o.Facebook, true
	case "instagram":
		return o.Instagram, true
	case "twitter":
		return o.Twitter, true
	case "linkedin":
		return o.LinkedIn, true
	case "youtube":
		return o.YouTube, true
	}
	return OAuthClient{}, false
}

// getConfigValue gets value from config first, then environment variable, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	// Environment variable takes precedence when provided
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Otherwise use config value if set and not a placeholder
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
