package platform

import (
	"context"
	"net/http"

	"brand-publisher/domain/model"
)

// TwitterAdapter posts text tweets through the v2 API.
type TwitterAdapter struct {
	api apiClient
}

func NewTwitterAdapter(client *http.Client, apiBaseURL string) *TwitterAdapter {
	return &TwitterAdapter{api: apiClient{client: client, baseURL: apiBaseURL}}
}

func (a *TwitterAdapter) Platform() model.Platform { return model.PlatformTwitter }

func (a *TwitterAdapter) PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult {
	if len(content.Media) > 0 {
		return mediaNotDelivered(model.PlatformTwitter, len(content.Media))
	}
	payload := map[string]interface{}{"text": composeText(content, true)}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if _, fail := a.api.postJSON(ctx, "tweets", conn.AccessToken, nil, payload, &resp); fail != nil {
		return *fail
	}
	if resp.Data.ID == "" {
		return model.DispatchFailed(model.DispatchCodePlatformError, "tweet response carried no id")
	}
	return model.DispatchOK(resp.Data.ID, "https://twitter.com/i/web/status/"+resp.Data.ID)
}
