package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brand-publisher/domain/model"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type longLivedTokenQuery struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FBExchangeToken string `url:"fb_exchange_token"`
}

type graphPage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	AccessToken              string `json:"access_token"`
	InstagramBusinessAccount *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"instagram_business_account"`
}

// fetchIdentity fills the account of grant. Facebook and Instagram also swap the
// user token for the token of the first managed page.
func (d *Directory) fetchIdentity(ctx context.Context, p ProviderConfig, grant *model.TokenGrant) error {
	switch p.Platform {
	case model.PlatformFacebook, model.PlatformInstagram:
		return d.fetchGraphIdentity(ctx, p, grant)
	case model.PlatformTwitter:
		var me struct {
			Data struct {
				ID       string `json:"id"`
				Name     string `json:"name"`
				Username string `json:"username"`
			} `json:"data"`
		}
		if err := d.getJSON(ctx, p.ProfileURL, grant.AccessToken, &me); err != nil {
			return err
		}
		grant.Account = model.AccountInfo{ID: me.Data.ID, Name: me.Data.Name, Username: me.Data.Username}
	case model.PlatformLinkedIn:
		var me struct {
			Sub  string `json:"sub"`
			Name string `json:"name"`
		}
		if err := d.getJSON(ctx, p.ProfileURL, grant.AccessToken, &me); err != nil {
			return err
		}
		grant.Account = model.AccountInfo{ID: me.Sub, Name: me.Name}
		grant.Metadata = map[string]string{"author_urn": "urn:li:person:" + me.Sub}
	case model.PlatformYouTube:
		return d.fetchYouTubeChannel(ctx, p, grant)
	default:
		return model.ErrUnsupportedPlatform
	}
	return nil
}

func (d *Directory) fetchGraphIdentity(ctx context.Context, p ProviderConfig, grant *model.TokenGrant) error {
	// Short-lived user token -> long-lived user token.
	q, err := query.Values(longLivedTokenQuery{
		GrantType:       "fb_exchange_token",
		ClientID:        p.ClientID,
		ClientSecret:    p.ClientSecret,
		FBExchangeToken: grant.AccessToken,
	})
	if err != nil {
		return err
	}
	var long struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := d.getJSON(ctx, p.TokenURL+"?"+q.Encode(), "", &long); err != nil {
		return fmt.Errorf("long-lived token exchange: %w", err)
	}
	if long.AccessToken != "" {
		grant.AccessToken = long.AccessToken
		if long.ExpiresIn > 0 {
			exp := time.Now().Add(time.Duration(long.ExpiresIn) * time.Second).UTC()
			grant.Expiry = &exp
			grant.ExpiresIn = long.ExpiresIn
		}
	}

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := d.getJSON(ctx, p.ProfileURL, grant.AccessToken, &me); err != nil {
		return err
	}

	var pages struct {
		Data []graphPage `json:"data"`
	}
	pagesURL := strings.TrimRight(p.APIBaseURL, "/") + "/me/accounts?fields=id,name,access_token,instagram_business_account{id,username}"
	if err := d.getJSON(ctx, pagesURL, grant.AccessToken, &pages); err != nil {
		return err
	}
	if len(pages.Data) == 0 {
		return fmt.Errorf("no pages available for account %s", me.ID)
	}
	// Auto-select the first page.
	page := pages.Data[0]
	grant.Metadata = map[string]string{"user_id": me.ID, "page_id": page.ID, "page_name": page.Name}
	if page.AccessToken != "" {
		grant.AccessToken = page.AccessToken
	}
	if p.Platform == model.PlatformInstagram {
		if page.InstagramBusinessAccount == nil || page.InstagramBusinessAccount.ID == "" {
			return fmt.Errorf("page %s has no instagram business account", page.ID)
		}
		grant.Account = model.AccountInfo{
			ID:       page.InstagramBusinessAccount.ID,
			Name:     page.Name,
			Username: page.InstagramBusinessAccount.Username,
		}
		return nil
	}
	grant.Account = model.AccountInfo{ID: page.ID, Name: page.Name}
	return nil
}

func (d *Directory) fetchYouTubeChannel(ctx context.Context, p ProviderConfig, grant *model.TokenGrant) error {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: grant.AccessToken}))
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.APIBaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.APIBaseURL))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}
	resp, err := svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	if len(resp.Items) == 0 {
		return fmt.Errorf("no channel found for authorized account")
	}
	ch := resp.Items[0]
	grant.Account = model.AccountInfo{ID: ch.Id}
	if ch.Snippet != nil {
		grant.Account.Name = ch.Snippet.Title
		grant.Account.Username = ch.Snippet.CustomUrl
	}
	return nil
}

func (d *Directory) getJSON(ctx context.Context, url, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
