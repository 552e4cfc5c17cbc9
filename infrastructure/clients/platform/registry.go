package platform

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"
	"brand-publisher/infrastructure/configuration"
	"brand-publisher/infrastructure/logger"

	"golang.org/x/time/rate"
)

// Registry routes jobs to the adapter of their platform. It is built once at
// startup and read-only afterwards.
type Registry struct {
	adapters    map[model.Platform]Adapter
	limiters    map[model.Platform]*rate.Limiter
	connections repository.IConnection
	credentials repository.ICredentialDirectory
	timeout     time.Duration
}

// NewRegistry allows requestsPerMinute calls per platform; zero disables limiting.
func NewRegistry(connections repository.IConnection, credentials repository.ICredentialDirectory, requestsPerMinute int, timeout time.Duration, adapters ...Adapter) *Registry {
	r := &Registry{
		adapters:    make(map[model.Platform]Adapter, len(adapters)),
		limiters:    make(map[model.Platform]*rate.Limiter, len(adapters)),
		connections: connections,
		credentials: credentials,
		timeout:     timeout,
	}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
		if requestsPerMinute > 0 {
			r.limiters[a.Platform()] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
		}
	}
	return r
}

// DefaultAdapters builds one adapter per supported platform from configuration.
func DefaultAdapters(client *http.Client, oauth configuration.OAuth) []Adapter {
	return []Adapter{
		NewFacebookAdapter(client, oauth.Facebook.APIBaseURL),
		NewInstagramAdapter(client, oauth.Instagram.APIBaseURL),
		NewTwitterAdapter(client, oauth.Twitter.APIBaseURL),
		NewLinkedInAdapter(client, oauth.LinkedIn.APIBaseURL),
		NewYouTubeAdapter(client, oauth.YouTube.APIBaseURL),
	}
}

func (r *Registry) Supports(p model.Platform) bool {
	_, ok := r.adapters[p]
	return ok
}

func (r *Registry) Platforms() []model.Platform {
	out := make([]model.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Dispatch(ctx context.Context, job *model.PublishingJob) model.DispatchResult {
	adapter, ok := r.adapters[job.Platform]
	if !ok {
		return model.DispatchFailed(model.DispatchCodeUnsupported, fmt.Sprintf("no adapter for platform %q", job.Platform))
	}

	conn, res := r.connection(ctx, job)
	if res != nil {
		return *res
	}

	if r.credentials != nil && r.credentials.IsExpired(conn) {
		if res := r.refresh(ctx, conn); res != nil {
			return *res
		}
	}

	if lim := r.limiters[job.Platform]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return model.DispatchFailed(model.DispatchCodeRateLimited, "rate limiter: "+err.Error())
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return adapter.PublishPost(ctx, conn, job.Content)
}

func (r *Registry) connection(ctx context.Context, job *model.PublishingJob) (*model.PlatformConnection, *model.DispatchResult) {
	var (
		conn *model.PlatformConnection
		err  error
	)
	if job.ConnectionID != "" {
		conn, err = r.connections.GetByID(ctx, job.ConnectionID)
	} else {
		conn, err = r.connections.GetByBrandPlatform(ctx, job.BrandID, job.Platform)
	}
	if err != nil || conn == nil {
		msg := fmt.Sprintf("no %s connection for brand %s", job.Platform, job.BrandID)
		if err != nil {
			msg += ": " + err.Error()
		}
		res := model.DispatchFailed(model.DispatchCodeNoConnection, msg)
		return nil, &res
	}
	if conn.Status != model.ConnectionConnected {
		res := model.DispatchFailed(model.DispatchCodeNotConnected, fmt.Sprintf("%s connection is %s", job.Platform, conn.Status))
		return nil, &res
	}
	return conn, nil
}

// refresh swaps an expiring token in place. A failed refresh marks the
// connection expired and is not retried with backoff.
func (r *Registry) refresh(ctx context.Context, conn *model.PlatformConnection) *model.DispatchResult {
	grant, err := r.credentials.Refresh(ctx, conn)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("connection_id", conn.ID).Warn("Token refresh failed during dispatch")
		if uerr := r.connections.UpdateStatus(ctx, conn.ID, model.ConnectionExpired); uerr != nil {
			logger.GetLogger().WithField("error", uerr).Error("Failed to mark connection expired")
		}
		return &model.DispatchResult{
			ErrorCode: model.DispatchCodeTokenExpired,
			Error:     fmt.Sprintf("%s token expired and could not be refreshed: %v", conn.Platform, err),
			Retryable: false,
		}
	}
	if err := r.connections.UpdateTokens(ctx, conn.ID, grant); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to store refreshed tokens")
	}
	conn.AccessToken = grant.AccessToken
	conn.RefreshToken = grant.RefreshToken
	conn.TokenExpiresAt = grant.Expiry
	return nil
}
