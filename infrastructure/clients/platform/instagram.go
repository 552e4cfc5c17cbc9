package platform

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"brand-publisher/domain/model"

	"github.com/google/go-querystring/query"
)

type containerForm struct {
	ImageURL       string `url:"image_url,omitempty"`
	VideoURL       string `url:"video_url,omitempty"`
	MediaType      string `url:"media_type,omitempty"`
	IsCarouselItem bool   `url:"is_carousel_item,omitempty"`
	Children       string `url:"children,omitempty"`
	Caption        string `url:"caption,omitempty"`
	AccessToken    string `url:"access_token"`
}

type publishForm struct {
	CreationID  string `url:"creation_id"`
	AccessToken string `url:"access_token"`
}

// InstagramAdapter publishes through the two-step container flow of the Graph API.
type InstagramAdapter struct {
	api apiClient
}

func NewInstagramAdapter(client *http.Client, graphBaseURL string) *InstagramAdapter {
	return &InstagramAdapter{api: apiClient{client: client, baseURL: graphBaseURL}}
}

func (a *InstagramAdapter) Platform() model.Platform { return model.PlatformInstagram }

func (a *InstagramAdapter) PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult {
	if conn.AccountID == "" {
		return model.DispatchFailed(model.DispatchCodeBadRequest, "instagram connection has no business account")
	}
	if len(content.Media) == 0 {
		return model.DispatchFailed(model.DispatchCodeBadRequest, "instagram posts require media")
	}

	caption := composeText(content, false)
	var (
		creationID string
		fail       *model.DispatchResult
	)
	if len(content.Media) == 1 {
		form := itemContainer(content.Media[0], false)
		form.Caption = caption
		form.AccessToken = conn.AccessToken
		creationID, fail = a.createContainer(ctx, conn.AccountID, form)
	} else {
		creationID, fail = a.createCarousel(ctx, conn, content.Media, caption)
	}
	if fail != nil {
		return *fail
	}

	values, err := query.Values(publishForm{CreationID: creationID, AccessToken: conn.AccessToken})
	if err != nil {
		return model.DispatchFailed(model.DispatchCodeInternal, err.Error())
	}
	var published struct {
		ID string `json:"id"`
	}
	if fail := a.api.postForm(ctx, conn.AccountID+"/media_publish", values.Encode(), &published); fail != nil {
		return *fail
	}
	return model.DispatchOK(published.ID, a.permalink(ctx, published.ID, conn.AccessToken))
}

func itemContainer(m model.MediaItem, carouselItem bool) containerForm {
	form := containerForm{IsCarouselItem: carouselItem}
	switch {
	case m.Type == model.MediaTypeVideo && carouselItem:
		form.VideoURL = m.URL
		form.MediaType = "VIDEO"
	case m.Type == model.MediaTypeVideo:
		form.VideoURL = m.URL
		form.MediaType = "REELS"
	default:
		form.ImageURL = m.URL
	}
	return form
}

func (a *InstagramAdapter) createContainer(ctx context.Context, accountID string, form containerForm) (string, *model.DispatchResult) {
	values, err := query.Values(form)
	if err != nil {
		r := model.DispatchFailed(model.DispatchCodeInternal, err.Error())
		return "", &r
	}
	var container struct {
		ID string `json:"id"`
	}
	if fail := a.api.postForm(ctx, accountID+"/media", values.Encode(), &container); fail != nil {
		return "", fail
	}
	if container.ID == "" {
		r := model.DispatchFailed(model.DispatchCodePlatformError, "instagram container response carried no id")
		return "", &r
	}
	return container.ID, nil
}

// createCarousel uploads every item as a child container, then the parent.
func (a *InstagramAdapter) createCarousel(ctx context.Context, conn *model.PlatformConnection, media []model.MediaItem, caption string) (string, *model.DispatchResult) {
	children := make([]string, 0, len(media))
	for _, m := range media {
		form := itemContainer(m, true)
		form.AccessToken = conn.AccessToken
		id, fail := a.createContainer(ctx, conn.AccountID, form)
		if fail != nil {
			return "", fail
		}
		children = append(children, id)
	}
	return a.createContainer(ctx, conn.AccountID, containerForm{
		MediaType:   "CAROUSEL",
		Children:    strings.Join(children, ","),
		Caption:     caption,
		AccessToken: conn.AccessToken,
	})
}

// permalink is best effort; the post is already live when it is called.
func (a *InstagramAdapter) permalink(ctx context.Context, mediaID, token string) string {
	u := a.api.url(mediaID) + "?" + url.Values{"fields": {"permalink"}, "access_token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ""
	}
	var out struct {
		Permalink string `json:"permalink"`
	}
	if _, fail := a.api.call(req, &out); fail != nil {
		return ""
	}
	return out.Permalink
}
