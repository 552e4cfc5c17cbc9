package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"brand-publisher/domain/model"
	"brand-publisher/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusTooManyRequests, model.DispatchCodeRateLimited},
		{http.StatusUnauthorized, model.DispatchCodeAuthRevoked},
		{http.StatusForbidden, model.DispatchCodeAuthRevoked},
		{http.StatusBadRequest, model.DispatchCodeBadRequest},
		{http.StatusUnprocessableEntity, model.DispatchCodeBadRequest},
		{http.StatusInternalServerError, model.DispatchCodePlatformError},
		{http.StatusBadGateway, model.DispatchCodePlatformError},
	}
	for _, tt := range tests {
		res := ClassifyStatus(tt.status, "body")
		assert.False(t, res.Success)
		assert.True(t, res.Retryable)
		assert.Equal(t, tt.code, res.ErrorCode, "status %d", tt.status)
	}
}

func TestComposeText(t *testing.T) {
	c := model.PostContent{Body: "Spring sale ", Hashtags: []string{"sale", "#spring", " "}, Link: "https://acme.test"}
	assert.Equal(t, "Spring sale\n\n#sale #spring\n\nhttps://acme.test", composeText(c, true))
	assert.Equal(t, "Spring sale\n\n#sale #spring", composeText(c, false))
}

func TestFacebookAdapter(t *testing.T) {
	var gotPath, gotMessage, gotToken, gotLink string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPath = r.URL.Path
		gotMessage = r.PostForm.Get("message")
		gotLink = r.PostForm.Get("link")
		gotToken = r.PostForm.Get("access_token")
		_, _ = w.Write([]byte(`{"id":"page-1_99"}`))
	}))
	defer srv.Close()

	a := NewFacebookAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "page-1", AccessToken: "page-token"}
	res := a.PublishPost(context.Background(), conn, model.PostContent{Body: "Hello", Link: "https://acme.test"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "page-1_99", res.PlatformPostID)
	assert.Equal(t, "https://www.facebook.com/page-1_99", res.PlatformURL)
	assert.Equal(t, "/page-1/feed", gotPath)
	assert.Equal(t, "Hello", gotMessage)
	assert.Equal(t, "https://acme.test", gotLink)
	assert.Equal(t, "page-token", gotToken)
}

func TestFacebookAdapter_PhotoAndFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page-1/photos" {
			_, _ = w.Write([]byte(`{"id":"photo-1","post_id":"page-1_7"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"permissions"}}`))
	}))
	defer srv.Close()

	a := NewFacebookAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "page-1", Metadata: model.Metadata{"page_id": "page-1"}}

	res := a.PublishPost(context.Background(), conn, model.PostContent{
		Body:  "pic",
		Media: []model.MediaItem{{URL: "https://cdn.test/a.jpg", Type: model.MediaTypeImage}},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "page-1_7", res.PlatformPostID)

	conn.Metadata = model.Metadata{"page_id": "page-2"}
	res = a.PublishPost(context.Background(), conn, model.PostContent{Body: "text"})
	assert.False(t, res.Success)
	assert.Equal(t, model.DispatchCodeAuthRevoked, res.ErrorCode)
}

func TestInstagramAdapter(t *testing.T) {
	var steps []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		steps = append(steps, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/ig-1/media":
			_ = r.ParseForm()
			assert.Equal(t, "https://cdn.test/a.jpg", r.PostForm.Get("image_url"))
			_, _ = w.Write([]byte(`{"id":"container-1"}`))
		case "/ig-1/media_publish":
			_ = r.ParseForm()
			assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
			_, _ = w.Write([]byte(`{"id":"media-1"}`))
		case "/media-1":
			_, _ = w.Write([]byte(`{"permalink":"https://www.instagram.com/p/abc/"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewInstagramAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "ig-1", AccessToken: "tok"}

	res := a.PublishPost(context.Background(), conn, model.PostContent{
		Body:  "caption",
		Media: []model.MediaItem{{URL: "https://cdn.test/a.jpg", Type: model.MediaTypeImage}},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "media-1", res.PlatformPostID)
	assert.Equal(t, "https://www.instagram.com/p/abc/", res.PlatformURL)
	assert.Equal(t, []string{"POST /ig-1/media", "POST /ig-1/media_publish", "GET /media-1"}, steps)

	res = a.PublishPost(context.Background(), conn, model.PostContent{Body: "no media"})
	assert.Equal(t, model.DispatchCodeBadRequest, res.ErrorCode)
}

func TestTwitterAdapter(t *testing.T) {
	status := http.StatusCreated
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(status)
		if status == http.StatusCreated {
			_, _ = w.Write([]byte(`{"data":{"id":"1001","text":"hi"}}`))
		}
	}))
	defer srv.Close()

	a := NewTwitterAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccessToken: "user-token"}

	res := a.PublishPost(context.Background(), conn, model.PostContent{Body: "hi", Hashtags: []string{"go"}})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "1001", res.PlatformPostID)
	assert.Equal(t, "hi\n\n#go", body["text"])

	status = http.StatusTooManyRequests
	res = a.PublishPost(context.Background(), conn, model.PostContent{Body: "again"})
	assert.False(t, res.Success)
	assert.True(t, res.Retryable)
	assert.Equal(t, model.DispatchCodeRateLimited, res.ErrorCode)
}

func TestLinkedInAdapter(t *testing.T) {
	var post ugcPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ugcPosts", r.URL.Path)
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		_ = json.NewDecoder(r.Body).Decode(&post)
		w.Header().Set("X-RestLi-Id", "urn:li:share:1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := NewLinkedInAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "abc", AccessToken: "tok"}

	res := a.PublishPost(context.Background(), conn, model.PostContent{Body: "news", Link: "https://acme.test/post", Title: "Post"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "urn:li:share:1", res.PlatformPostID)
	assert.Equal(t, "urn:li:person:abc", post.Author)
	share := post.SpecificContent["com.linkedin.ugc.ShareContent"]
	assert.Equal(t, "ARTICLE", share.ShareMediaCategory)
	require.Len(t, share.Media, 1)
	assert.Equal(t, "https://acme.test/post", share.Media[0].OriginalURL)
}

func TestYouTubeAdapter(t *testing.T) {
	var uploadAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/media/clip.mp4" {
			_, _ = w.Write([]byte("fake-video-bytes"))
			return
		}
		uploadAuth = r.Header.Get("Authorization")
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"vid-1"}`))
	}))
	defer srv.Close()

	a := NewYouTubeAdapter(srv.Client(), srv.URL+"/")
	conn := &model.PlatformConnection{AccessToken: "yt-token"}

	res := a.PublishPost(context.Background(), conn, model.PostContent{
		Title: "Launch",
		Body:  "Our launch video",
		Media: []model.MediaItem{{URL: srv.URL + "/media/clip.mp4", Type: model.MediaTypeVideo}},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "vid-1", res.PlatformPostID)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid-1", res.PlatformURL)
	assert.True(t, strings.HasSuffix(uploadAuth, "yt-token"))

	res = a.PublishPost(context.Background(), conn, model.PostContent{Title: "No video"})
	assert.Equal(t, model.DispatchCodeBadRequest, res.ErrorCode)
}

func TestFacebookAdapter_MultiPhoto(t *testing.T) {
	var uploads []url.Values
	var feed url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.URL.Path {
		case "/page-1/photos":
			uploads = append(uploads, r.PostForm)
			_, _ = w.Write([]byte(`{"id":"photo-` + string(rune('0'+len(uploads))) + `"}`))
		case "/page-1/feed":
			feed = r.PostForm
			_, _ = w.Write([]byte(`{"id":"page-1_55"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewFacebookAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "page-1", AccessToken: "page-token"}
	res := a.PublishPost(context.Background(), conn, model.PostContent{
		Body: "album",
		Media: []model.MediaItem{
			{URL: "https://cdn.test/a.jpg", Type: model.MediaTypeImage},
			{URL: "https://cdn.test/b.jpg", Type: model.MediaTypeImage},
		},
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "page-1_55", res.PlatformPostID)
	require.Len(t, uploads, 2)
	assert.Equal(t, "https://cdn.test/a.jpg", uploads[0].Get("url"))
	assert.Equal(t, "false", uploads[0].Get("published"))
	assert.Equal(t, "https://cdn.test/b.jpg", uploads[1].Get("url"))
	require.NotNil(t, feed)
	assert.Equal(t, "album", feed.Get("message"))
	assert.Equal(t, `{"media_fbid":"photo-1"}`, feed.Get("attached_media[0]"))
	assert.Equal(t, `{"media_fbid":"photo-2"}`, feed.Get("attached_media[1]"))
}

func TestInstagramAdapter_Carousel(t *testing.T) {
	var containers []url.Values
	var published url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig-1/media":
			_ = r.ParseForm()
			containers = append(containers, r.PostForm)
			_, _ = w.Write([]byte(`{"id":"c` + string(rune('0'+len(containers))) + `"}`))
		case "/ig-1/media_publish":
			_ = r.ParseForm()
			published = r.PostForm
			_, _ = w.Write([]byte(`{"id":"media-9"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	a := NewInstagramAdapter(srv.Client(), srv.URL)
	conn := &model.PlatformConnection{AccountID: "ig-1", AccessToken: "tok"}
	res := a.PublishPost(context.Background(), conn, model.PostContent{
		Body: "carousel",
		Media: []model.MediaItem{
			{URL: "https://cdn.test/a.jpg", Type: model.MediaTypeImage},
			{URL: "https://cdn.test/v.mp4", Type: model.MediaTypeVideo},
		},
	})

	require.True(t, res.Success, res.Error)
	require.Len(t, containers, 3)
	assert.Equal(t, "https://cdn.test/a.jpg", containers[0].Get("image_url"))
	assert.Equal(t, "true", containers[0].Get("is_carousel_item"))
	assert.Empty(t, containers[0].Get("caption"))
	assert.Equal(t, "https://cdn.test/v.mp4", containers[1].Get("video_url"))
	assert.Equal(t, "VIDEO", containers[1].Get("media_type"))
	assert.Equal(t, "CAROUSEL", containers[2].Get("media_type"))
	assert.Equal(t, "c1,c2", containers[2].Get("children"))
	assert.Equal(t, "carousel", containers[2].Get("caption"))
	assert.Equal(t, "c3", published.Get("creation_id"))
}

// Content the validator accepts must reach the platform with every media item;
// content it rejects must be refused by the adapter too.
func TestAdapters_DeliverWhatValidationAccepts(t *testing.T) {
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if decoded, err := url.QueryUnescape(string(body)); err == nil {
			received = append(received, decoded)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x1","post_id":"p_1","data":{"id":"1"}}`))
	}))
	defer srv.Close()

	content := model.PostContent{
		Body: "launch",
		Media: []model.MediaItem{
			{URL: "https://cdn.test/a.jpg", Type: model.MediaTypeImage, AltText: "a"},
			{URL: "https://cdn.test/b.jpg", Type: model.MediaTypeImage, AltText: "b"},
		},
	}
	conn := &model.PlatformConnection{AccountID: "acct-1", AccessToken: "tok"}
	adapters := []Adapter{
		NewFacebookAdapter(srv.Client(), srv.URL),
		NewInstagramAdapter(srv.Client(), srv.URL),
		NewTwitterAdapter(srv.Client(), srv.URL),
		NewLinkedInAdapter(srv.Client(), srv.URL),
	}
	for _, a := range adapters {
		t.Run(string(a.Platform()), func(t *testing.T) {
			received = nil
			accepted := !usecase.HasErrors(usecase.Validate(a.Platform(), content))
			res := a.PublishPost(context.Background(), conn, content)

			if !accepted {
				assert.False(t, res.Success)
				assert.False(t, res.Retryable)
				assert.Equal(t, model.DispatchCodeValidationRejected, res.ErrorCode)
				assert.Empty(t, received)
				return
			}
			require.True(t, res.Success, res.Error)
			sent := strings.Join(received, "\n")
			for _, m := range content.Media {
				assert.Contains(t, sent, m.URL)
			}
		})
	}
}
