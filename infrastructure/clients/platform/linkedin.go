package platform

import (
	"context"
	"net/http"

	"brand-publisher/domain/model"
)

type ugcText struct {
	Text string `json:"text"`
}

type ugcMedia struct {
	Status      string   `json:"status"`
	OriginalURL string   `json:"originalUrl"`
	Title       *ugcText `json:"title,omitempty"`
}

type ugcShareContent struct {
	ShareCommentary    ugcText    `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
	Media              []ugcMedia `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string                     `json:"author"`
	LifecycleState  string                     `json:"lifecycleState"`
	SpecificContent map[string]ugcShareContent `json:"specificContent"`
	Visibility      map[string]string          `json:"visibility"`
}

// LinkedInAdapter shares as the member that authorized the connection.
type LinkedInAdapter struct {
	api apiClient
}

func NewLinkedInAdapter(client *http.Client, apiBaseURL string) *LinkedInAdapter {
	return &LinkedInAdapter{api: apiClient{client: client, baseURL: apiBaseURL}}
}

func (a *LinkedInAdapter) Platform() model.Platform { return model.PlatformLinkedIn }

func (a *LinkedInAdapter) PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult {
	author := metadataOr(conn, "author_urn", "")
	if author == "" && conn.AccountID != "" {
		author = "urn:li:person:" + conn.AccountID
	}
	if author == "" {
		return model.DispatchFailed(model.DispatchCodeBadRequest, "linkedin connection has no author")
	}

	if len(content.Media) > 0 {
		return mediaNotDelivered(model.PlatformLinkedIn, len(content.Media))
	}

	share := ugcShareContent{
		ShareCommentary:    ugcText{Text: composeText(content, false)},
		ShareMediaCategory: "NONE",
	}
	if content.Link != "" {
		share.ShareMediaCategory = "ARTICLE"
		m := ugcMedia{Status: "READY", OriginalURL: content.Link}
		if content.Title != "" {
			m.Title = &ugcText{Text: content.Title}
		}
		share.Media = []ugcMedia{m}
	}
	post := ugcPost{
		Author:          author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]ugcShareContent{"com.linkedin.ugc.ShareContent": share},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	var resp struct {
		ID string `json:"id"`
	}
	header, fail := a.api.postJSON(ctx, "ugcPosts", conn.AccessToken, map[string]string{"X-Restli-Protocol-Version": "2.0.0"}, post, &resp)
	if fail != nil {
		return *fail
	}
	id := resp.ID
	if id == "" && header != nil {
		id = header.Get("X-RestLi-Id")
	}
	if id == "" {
		return model.DispatchFailed(model.DispatchCodePlatformError, "linkedin response carried no id")
	}
	return model.DispatchOK(id, "https://www.linkedin.com/feed/update/"+id)
}
