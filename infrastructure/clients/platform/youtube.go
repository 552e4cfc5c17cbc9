package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"brand-publisher/domain/model"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeAdapter uploads the post's video through videos.insert.
type YouTubeAdapter struct {
	client   *http.Client
	endpoint string
	privacy  string
}

// NewYouTubeAdapter uses the public API when endpoint is empty.
func NewYouTubeAdapter(client *http.Client, endpoint string) *YouTubeAdapter {
	return &YouTubeAdapter{client: client, endpoint: endpoint, privacy: "public"}
}

func (a *YouTubeAdapter) Platform() model.Platform { return model.PlatformYouTube }

func (a *YouTubeAdapter) PublishPost(ctx context.Context, conn *model.PlatformConnection, content model.PostContent) model.DispatchResult {
	video := firstMedia(content, model.MediaTypeVideo)
	if video == nil {
		return model.DispatchFailed(model.DispatchCodeBadRequest, "youtube posts require a video")
	}

	src, err := a.fetchMedia(ctx, video.URL)
	if err != nil {
		return networkFailure(err)
	}
	defer src.Body.Close()
	if src.StatusCode != http.StatusOK {
		return model.DispatchFailed(model.DispatchCodeBadRequest, fmt.Sprintf("video source responded %d", src.StatusCode))
	}

	svc, err := a.service(ctx, conn.AccessToken)
	if err != nil {
		return model.DispatchFailed(model.DispatchCodeInternal, err.Error())
	}
	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       content.Title,
			Description: composeText(model.PostContent{Body: content.Body, Link: content.Link}, true),
			Tags:        content.Hashtags,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: a.privacy},
	}
	res, err := svc.Videos.Insert([]string{"snippet", "status"}, upload).Media(src.Body).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return ClassifyStatus(gerr.Code, gerr.Message)
		}
		return networkFailure(err)
	}
	return model.DispatchOK(res.Id, "https://www.youtube.com/watch?v="+res.Id)
}

func (a *YouTubeAdapter) fetchMedia(ctx context.Context, mediaURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	return a.client.Do(req)
}

func (a *YouTubeAdapter) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	bctx := context.WithValue(ctx, oauth2.HTTPClient, a.client)
	httpClient := oauth2.NewClient(bctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return svc, nil
}
