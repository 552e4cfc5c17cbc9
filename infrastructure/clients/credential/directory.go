package credential

import (
	"context"
	"net/http"
	"strings"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/logger"

	"golang.org/x/oauth2"
)

// expiryBuffer makes tokens count as expired a little before the platform says so.
const expiryBuffer = 5 * time.Minute

// Directory is the OAuth client for every supported platform.
type Directory struct {
	providers  map[model.Platform]ProviderConfig
	ledger     repository.IStateLedger
	httpClient *http.Client
	now        func() time.Time
}

func NewDirectory(ledger repository.IStateLedger, providers map[model.Platform]ProviderConfig, httpClient *http.Client) *Directory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Directory{
		providers:  providers,
		ledger:     ledger,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// WithClock replaces the time source used by IsExpired.
func (d *Directory) WithClock(now func() time.Time) *Directory {
	d.now = now
	return d
}

func (d *Directory) provider(platform model.Platform) (ProviderConfig, error) {
	p, ok := d.providers[platform]
	if !ok || !platform.IsValid() {
		return ProviderConfig{}, model.ErrUnsupportedPlatform
	}
	if !p.configured() {
		return ProviderConfig{}, model.ErrPlatformNotConfigured
	}
	return p, nil
}

// Configured reports whether the platform has OAuth client credentials.
func (d *Directory) Configured(platform model.Platform) bool {
	_, err := d.provider(platform)
	return err == nil
}

func (d *Directory) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
}

func (d *Directory) BuildAuthorizationURL(ctx context.Context, platform model.Platform, brandID, tenantID string) (*model.AuthorizationRequest, error) {
	p, err := d.provider(platform)
	if err != nil {
		return nil, err
	}
	if brandID != "" && !model.ValidBrandID(brandID) {
		return nil, model.ErrInvalidBrandID
	}
	st, err := d.ledger.Issue(ctx, brandID, tenantID, platform)
	if err != nil {
		return nil, err
	}
	state := model.CompoundState(st.Token, brandID)

	opts := p.authOptions()
	if p.UsePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(st.CodeVerifier))
	}
	req := &model.AuthorizationRequest{
		Platform:  platform,
		AuthURL:   p.oauth2Config().AuthCodeURL(state, opts...),
		State:     state,
		ExpiresAt: st.ExpiresAt,
	}
	if p.UsePKCE {
		req.CodeVerifier = st.CodeVerifier
	}
	return req, nil
}

func (d *Directory) ExchangeCode(ctx context.Context, platform model.Platform, code, state string) (*model.TokenGrant, error) {
	parsed, ok := model.ParseState(state)
	if !ok {
		return nil, model.ErrInvalidState
	}
	p, err := d.provider(platform)
	if err != nil {
		return nil, err
	}
	st, err := d.ledger.Consume(ctx, parsed.RawToken)
	if err != nil {
		return nil, err
	}
	if st.Platform != platform {
		return nil, model.ErrPlatformMismatch
	}

	var opts []oauth2.AuthCodeOption
	if p.UsePKCE {
		opts = append(opts, oauth2.VerifierOption(st.CodeVerifier))
	}
	cctx := d.clientContext(ctx)
	tok, err := p.oauth2Config().Exchange(cctx, code, opts...)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Error("Authorization code exchange failed")
		return nil, model.Wrap(model.ErrTokenExchange, err)
	}

	grant := grantFromToken(tok, "")
	grant.BrandID = st.BrandID
	grant.TenantID = st.TenantID
	if err := d.fetchIdentity(cctx, p, grant); err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Error("Account lookup failed")
		return nil, model.Wrap(model.ErrTokenExchange, err)
	}
	return grant, nil
}

func (d *Directory) Refresh(ctx context.Context, conn *model.PlatformConnection) (*model.TokenGrant, error) {
	if conn == nil || conn.RefreshToken == "" {
		return nil, model.ErrNoRefreshToken
	}
	p, err := d.provider(conn.Platform)
	if err != nil {
		return nil, err
	}
	src := p.oauth2Config().TokenSource(d.clientContext(ctx), &oauth2.Token{RefreshToken: conn.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, model.Wrap(model.ErrTokenRefresh, err)
	}
	grant := grantFromToken(tok, conn.RefreshToken)
	grant.BrandID = conn.BrandID
	grant.TenantID = conn.TenantID
	grant.Account = model.AccountInfo{ID: conn.AccountID, Name: conn.AccountName}
	return grant, nil
}

// IsExpired is false when the platform gave no expiry.
func (d *Directory) IsExpired(conn *model.PlatformConnection) bool {
	if conn == nil || conn.TokenExpiresAt == nil {
		return false
	}
	return !d.now().Before(conn.TokenExpiresAt.Add(-expiryBuffer))
}

func grantFromToken(tok *oauth2.Token, previousRefresh string) *model.TokenGrant {
	g := &model.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
	}
	if g.RefreshToken == "" {
		g.RefreshToken = previousRefresh
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		g.Expiry = &exp
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		g.Scopes = strings.FieldsFunc(scope, func(r rune) bool { return r == ' ' || r == ',' })
	}
	return g
}
