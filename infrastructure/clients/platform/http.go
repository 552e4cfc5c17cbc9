package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"brand-publisher/domain/model"
)

// Adapter publishes content to one platform. Failures come back as results, never panics.
type Adapter interface {
	Platform() model.Platform
	PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult
}

// ClassifyStatus maps an HTTP status from a platform API onto a dispatch failure.
func ClassifyStatus(status int, body string) model.DispatchResult {
	msg := fmt.Sprintf("platform responded %d: %s", status, truncate(strings.TrimSpace(body), 300))
	switch {
	case status == http.StatusTooManyRequests:
		return model.DispatchFailed(model.DispatchCodeRateLimited, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.DispatchFailed(model.DispatchCodeAuthRevoked, msg)
	case status >= 400 && status < 500:
		return model.DispatchFailed(model.DispatchCodeBadRequest, msg)
	default:
		return model.DispatchFailed(model.DispatchCodePlatformError, msg)
	}
}

func networkFailure(err error) model.DispatchResult {
	return model.DispatchFailed(model.DispatchCodePlatformError, err.Error())
}

// mediaNotDelivered refuses content whose media the adapter cannot send,
// so a post never goes out with its images silently missing.
func mediaNotDelivered(p model.Platform, n int) model.DispatchResult {
	return model.DispatchResult{
		ErrorCode: model.DispatchCodeValidationRejected,
		Error:     fmt.Sprintf("%s posts are published without media; %d media items would be dropped", p, n),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type apiClient struct {
	client  *http.Client
	baseURL string
}

func (a apiClient) url(path string) string {
	return strings.TrimRight(a.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// call performs the request and decodes a 2xx JSON body into out.
// A non-nil result means the call failed.
func (a apiClient) call(req *http.Request, out interface{}) (http.Header, *model.DispatchResult) {
	resp, err := a.client.Do(req)
	if err != nil {
		r := networkFailure(err)
		return nil, &r
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r := ClassifyStatus(resp.StatusCode, string(body))
		return resp.Header, &r
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			r := model.DispatchFailed(model.DispatchCodePlatformError, "unreadable platform response: "+err.Error())
			return resp.Header, &r
		}
	}
	return resp.Header, nil
}

func (a apiClient) postForm(ctx context.Context, path string, form string, out interface{}) *model.DispatchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url(path), strings.NewReader(form))
	if err != nil {
		r := networkFailure(err)
		return &r
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, fail := a.call(req, out)
	return fail
}

func (a apiClient) postJSON(ctx context.Context, path, bearer string, headers map[string]string, payload, out interface{}) (http.Header, *model.DispatchResult) {
	b, err := json.Marshal(payload)
	if err != nil {
		r := model.DispatchFailed(model.DispatchCodeInternal, err.Error())
		return nil, &r
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url(path), strings.NewReader(string(b)))
	if err != nil {
		r := networkFailure(err)
		return nil, &r
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return a.call(req, out)
}

// composeText joins body, hashtags and an optional link the way posts read on most feeds.
func composeText(c model.PostContent, withLink bool) string {
	parts := []string{strings.TrimSpace(c.Body)}
	if tags := hashtagLine(c.Hashtags); tags != "" {
		parts = append(parts, tags)
	}
	if withLink && c.Link != "" {
		parts = append(parts, c.Link)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func hashtagLine(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

func mediaOfType(c model.PostContent, kind model.MediaType) []model.MediaItem {
	var out []model.MediaItem
	for _, m := range c.Media {
		if m.Type == kind {
			out = append(out, m)
		}
	}
	return out
}

func firstMedia(c model.PostContent, kind model.MediaType) *model.MediaItem {
	for i := range c.Media {
		if c.Media[i].Type == kind {
			return &c.Media[i]
		}
	}
	return nil
}

func metadataOr(conn *model.PlatformConnection, key, fallback string) string {
	if conn.Metadata != nil {
		if v := conn.Metadata[key]; v != "" {
			return v
		}
	}
	return fallback
}
