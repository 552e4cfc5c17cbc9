package platform

import (
	"context"
	"fmt"
	"net/http"

	"brand-publisher/domain/model"

	"github.com/google/go-querystring/query"
)

type feedForm struct {
	Message     string `url:"message,omitempty"`
	Link        string `url:"link,omitempty"`
	AccessToken string `url:"access_token"`
}

type photoForm struct {
	URL         string `url:"url"`
	Caption     string `url:"caption,omitempty"`
	Published   string `url:"published,omitempty"`
	AccessToken string `url:"access_token"`
}

type videoForm struct {
	FileURL     string `url:"file_url"`
	Title       string `url:"title,omitempty"`
	Description string `url:"description,omitempty"`
	AccessToken string `url:"access_token"`
}

// FacebookAdapter posts to the feed of the page selected at connection time.
type FacebookAdapter struct {
	api apiClient
}

func NewFacebookAdapter(client *http.Client, graphBaseURL string) *FacebookAdapter {
	return &FacebookAdapter{api: apiClient{client: client, baseURL: graphBaseURL}}
}

func (a *FacebookAdapter) Platform() model.Platform { return model.PlatformFacebook }

func (a *FacebookAdapter) PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult {
	pageID := metadataOr(conn, "page_id", conn.AccountID)
	if pageID == "" {
		return model.DispatchFailed(model.DispatchCodeBadRequest, "facebook connection has no page")
	}

	var (
		path string
		form interface{}
	)
	video := firstMedia(content, model.MediaTypeVideo)
	images := mediaOfType(content, model.MediaTypeImage)
	multiPhoto := video == nil && len(images) > 1
	switch {
	case video != nil:
		path = pageID + "/videos"
		form = videoForm{FileURL: video.URL, Title: content.Title, Description: composeText(content, true), AccessToken: conn.AccessToken}
	case len(images) == 1:
		path = pageID + "/photos"
		form = photoForm{URL: images[0].URL, Caption: composeText(content, true), AccessToken: conn.AccessToken}
	case multiPhoto:
		path = pageID + "/feed"
		form = feedForm{Message: composeText(content, true), AccessToken: conn.AccessToken}
	default:
		path = pageID + "/feed"
		form = feedForm{Message: composeText(content, false), Link: content.Link, AccessToken: conn.AccessToken}
	}

	values, err := query.Values(form)
	if err != nil {
		return model.DispatchFailed(model.DispatchCodeInternal, err.Error())
	}
	if multiPhoto {
		// multi-photo posts attach unpublished photos to one feed post
		for i, img := range images {
			id, fail := a.uploadUnpublished(ctx, pageID, img, conn.AccessToken)
			if fail != nil {
				return *fail
			}
			values.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":%q}`, id))
		}
	}
	var resp struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if fail := a.api.postForm(ctx, path, values.Encode(), &resp); fail != nil {
		return *fail
	}
	id := resp.PostID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return model.DispatchFailed(model.DispatchCodePlatformError, "facebook response carried no post id")
	}
	return model.DispatchOK(id, "https://www.facebook.com/"+id)
}

func (a *FacebookAdapter) uploadUnpublished(ctx context.Context, pageID string, img model.MediaItem, token string) (string, *model.DispatchResult) {
	values, err := query.Values(photoForm{URL: img.URL, Published: "false", AccessToken: token})
	if err != nil {
		r := model.DispatchFailed(model.DispatchCodeInternal, err.Error())
		return "", &r
	}
	var resp struct {
		ID string `json:"id"`
	}
	if fail := a.api.postForm(ctx, pageID+"/photos", values.Encode(), &resp); fail != nil {
		return "", fail
	}
	if resp.ID == "" {
		r := model.DispatchFailed(model.DispatchCodePlatformError, "facebook photo upload carried no id")
		return "", &r
	}
	return resp.ID, nil
}
