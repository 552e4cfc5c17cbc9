package credential

import (
	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderConfig is the static OAuth description of one platform.
type ProviderConfig struct {
	Platform     model.Platform
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	APIBaseURL   string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	UsePKCE      bool
	AuthStyle    oauth2.AuthStyle
	// ExtraAuthParams are appended to the consent URL.
	ExtraAuthParams map[string]string
}

func (p ProviderConfig) configured() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

func (p ProviderConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: p.AuthStyle,
		},
	}
}

func (p ProviderConfig) authOptions() []oauth2.AuthCodeOption {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.ExtraAuthParams))
	for k, v := range p.ExtraAuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// ProvidersFromConfig maps the configured OAuth clients onto provider descriptions.
func ProvidersFromConfig(c configuration.OAuth) map[model.Platform]ProviderConfig {
	build := func(platform model.Platform, cl configuration.OAuthClient) ProviderConfig {
		return ProviderConfig{
			Platform:     platform,
			AuthURL:      cl.AuthURL,
			TokenURL:     cl.TokenURL,
			ProfileURL:   cl.ProfileURL,
			APIBaseURL:   cl.APIBaseURL,
			ClientID:     cl.ClientID,
			ClientSecret: cl.ClientSecret,
			RedirectURI:  cl.RedirectURI,
			Scopes:       cl.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
	}

	providers := map[model.Platform]ProviderConfig{
		model.PlatformFacebook:  build(model.PlatformFacebook, c.Facebook),
		model.PlatformInstagram: build(model.PlatformInstagram, c.Instagram),
		model.PlatformLinkedIn:  build(model.PlatformLinkedIn, c.LinkedIn),
	}

	tw := build(model.PlatformTwitter, c.Twitter)
	tw.UsePKCE = true
	tw.AuthStyle = oauth2.AuthStyleInHeader
	providers[model.PlatformTwitter] = tw

	yt := build(model.PlatformYouTube, c.YouTube)
	yt.UsePKCE = true
	if yt.AuthURL == "" || yt.TokenURL == "" {
		yt.AuthURL = google.Endpoint.AuthURL
		yt.TokenURL = google.Endpoint.TokenURL
	}
	yt.ExtraAuthParams = map[string]string{"access_type": "offline", "prompt": "consent", "include_granted_scopes": "true"}
	providers[model.PlatformYouTube] = yt

	return providers
}
