package usecase

import (
	"strings"
	"testing"
	"time"

	"brand-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusesByField(results []model.ValidationResult) map[string]model.ValidationStatus {
	out := make(map[string]model.ValidationStatus, len(results))
	for _, r := range results {
		out[r.Field] = r.Status
	}
	return out
}

func TestValidate_BodyLength(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status model.ValidationStatus
	}{
		{name: "short tweet", body: "hello", status: model.ValidationOK},
		{name: "close to the limit", body: strings.Repeat("a", 260), status: model.ValidationWarning},
		{name: "at the limit", body: strings.Repeat("a", 280), status: model.ValidationWarning},
		{name: "over the limit", body: strings.Repeat("a", 281), status: model.ValidationError},
		{name: "multibyte counts runes", body: strings.Repeat("é", 200), status: model.ValidationOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Validate(model.PlatformTwitter, model.PostContent{Body: tt.body})
			assert.Equal(t, tt.status, statusesByField(results)["body"])
		})
	}
}

func TestValidate_OneResultPerCheckedField(t *testing.T) {
	results := Validate(model.PlatformInstagram, model.PostContent{
		Body:     "caption",
		Link:     "https://example.com",
		Hashtags: []string{"a"},
		Media:    []model.MediaItem{{URL: "https://cdn.example.com/a.jpg", Type: model.MediaTypeImage, AltText: "a"}},
	})
	assert.Equal(t, map[string]model.ValidationStatus{
		"body":     model.ValidationOK,
		"media":    model.ValidationOK,
		"hashtags": model.ValidationOK,
		"link":     model.ValidationOK,
	}, statusesByField(results))
	assert.Len(t, results, 4)

	results = Validate(model.PlatformYouTube, model.PostContent{
		Title: "launch",
		Media: []model.MediaItem{{URL: "https://cdn.example.com/v.mp4", Type: model.MediaTypeVideo}},
	})
	assert.Equal(t, map[string]model.ValidationStatus{
		"body":  model.ValidationOK,
		"title": model.ValidationOK,
		"media": model.ValidationOK,
	}, statusesByField(results))

	results = Validate(model.PlatformTwitter, model.PostContent{Body: strings.Repeat("a", 281)})
	require.Len(t, results, 2)
	assert.Equal(t, model.ValidationError, statusesByField(results)["body"])
	assert.Equal(t, model.ValidationOK, statusesByField(results)["media"])
}

func TestValidate_EmptyPost(t *testing.T) {
	results := Validate(model.PlatformLinkedIn, model.PostContent{Body: "   "})
	assert.True(t, HasErrors(results))
	assert.Equal(t, model.ValidationError, statusesByField(results)["body"])
}

func TestValidate_MediaOnlyPostIsAccepted(t *testing.T) {
	results := Validate(model.PlatformFacebook, model.PostContent{
		Media: []model.MediaItem{{URL: "https://cdn.example.com/a.png", Type: model.MediaTypeImage, AltText: "logo"}},
	})
	assert.False(t, HasErrors(results))
}

func TestValidate_TextOnlyPlatformsRejectMedia(t *testing.T) {
	img := model.MediaItem{URL: "https://cdn.example.com/a.png", Type: model.MediaTypeImage, AltText: "a"}
	for _, p := range []model.Platform{model.PlatformTwitter, model.PlatformLinkedIn} {
		results := Validate(p, model.PostContent{Body: "x", Media: []model.MediaItem{img, img}})
		assert.Equal(t, model.ValidationError, statusesByField(results)["media"], p)
	}
}

func TestValidate_UnsupportedPlatform(t *testing.T) {
	results := Validate(model.Platform("myspace"), model.PostContent{Body: "hi"})
	require.Len(t, results, 1)
	assert.Equal(t, "platform", results[0].Field)
	assert.True(t, HasErrors(results))
}

func TestValidate_InstagramRequiresMedia(t *testing.T) {
	results := Validate(model.PlatformInstagram, model.PostContent{Body: "caption"})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media"])

	results = Validate(model.PlatformInstagram, model.PostContent{
		Body:  "caption",
		Media: []model.MediaItem{{URL: "https://cdn.example.com/a.jpg", Type: model.MediaTypeImage, AltText: "a"}},
	})
	assert.False(t, HasErrors(results))
}

func TestValidate_InstagramHashtagsWarn(t *testing.T) {
	tags := make([]string, 31)
	for i := range tags {
		tags[i] = "tag"
	}
	results := Validate(model.PlatformInstagram, model.PostContent{
		Body:     "caption",
		Hashtags: tags,
		Media:    []model.MediaItem{{URL: "https://cdn.example.com/a.jpg", Type: model.MediaTypeImage, AltText: "a"}},
	})
	assert.False(t, HasErrors(results))
	assert.Equal(t, model.ValidationWarning, statusesByField(results)["hashtags"])
}

func TestValidate_YouTube(t *testing.T) {
	video := model.MediaItem{URL: "https://cdn.example.com/v.mp4", Type: model.MediaTypeVideo}

	t.Run("missing title", func(t *testing.T) {
		results := Validate(model.PlatformYouTube, model.PostContent{Body: "desc", Media: []model.MediaItem{video}})
		assert.Equal(t, model.ValidationError, statusesByField(results)["title"])
	})

	t.Run("title too long", func(t *testing.T) {
		results := Validate(model.PlatformYouTube, model.PostContent{Title: strings.Repeat("t", 101), Media: []model.MediaItem{video}})
		assert.Equal(t, model.ValidationError, statusesByField(results)["title"])
	})

	t.Run("image instead of video", func(t *testing.T) {
		results := Validate(model.PlatformYouTube, model.PostContent{
			Title: "launch",
			Media: []model.MediaItem{{URL: "https://cdn.example.com/a.png", Type: model.MediaTypeImage, AltText: "a"}},
		})
		fields := statusesByField(results)
		assert.Equal(t, model.ValidationError, fields["media[0]"])
		assert.Equal(t, model.ValidationError, fields["media"])
	})

	t.Run("valid upload", func(t *testing.T) {
		results := Validate(model.PlatformYouTube, model.PostContent{Title: "launch", Body: "desc", Media: []model.MediaItem{video}})
		assert.False(t, HasErrors(results))
	})
}

func TestValidate_Media(t *testing.T) {
	img := model.MediaItem{URL: "https://cdn.example.com/a.png", Type: model.MediaTypeImage, AltText: "a"}
	video := model.MediaItem{URL: "https://cdn.example.com/v.mp4", Type: model.MediaTypeVideo}

	eleven := make([]model.MediaItem, 11)
	for i := range eleven {
		eleven[i] = img
	}
	results := Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: eleven})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media"])

	results = Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: []model.MediaItem{img, video}})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media"], "facebook cannot mix")

	results = Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: []model.MediaItem{video, video}})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media"], "one video per facebook post")

	results = Validate(model.PlatformInstagram, model.PostContent{Body: "x", Media: []model.MediaItem{img, video}})
	assert.False(t, HasErrors(results), "instagram carousels mix")

	results = Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: []model.MediaItem{{URL: "not a url", Type: model.MediaTypeImage}}})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media[0]"])

	results = Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: []model.MediaItem{{URL: "https://cdn.example.com/a.gif", Type: "gif"}}})
	assert.Equal(t, model.ValidationError, statusesByField(results)["media[0]"])

	results = Validate(model.PlatformFacebook, model.PostContent{Body: "x", Media: []model.MediaItem{{URL: "https://cdn.example.com/a.png", Type: model.MediaTypeImage}}})
	assert.False(t, HasErrors(results))
	assert.Equal(t, model.ValidationWarning, statusesByField(results)["media[0]"])
}

func TestValidate_Link(t *testing.T) {
	results := Validate(model.PlatformLinkedIn, model.PostContent{Body: "read more", Link: "example dot com"})
	assert.Equal(t, model.ValidationError, statusesByField(results)["link"])

	results = Validate(model.PlatformLinkedIn, model.PostContent{Body: "read more", Link: "https://example.com/post"})
	assert.False(t, HasErrors(results))
}

func TestValidate_IsDeterministic(t *testing.T) {
	content := model.PostContent{Body: strings.Repeat("a", 300)}
	assert.Equal(t, Validate(model.PlatformTwitter, content), Validate(model.PlatformTwitter, content))
}

func TestValidateScheduleTime(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		platform model.Platform
		when     time.Time
		status   model.ValidationStatus
	}{
		{name: "an hour ahead", platform: model.PlatformTwitter, when: now.Add(time.Hour), status: model.ValidationOK},
		{name: "a few seconds late", platform: model.PlatformTwitter, when: now.Add(-10 * time.Second), status: model.ValidationOK},
		{name: "in the past", platform: model.PlatformTwitter, when: now.Add(-time.Hour), status: model.ValidationError},
		{name: "beyond horizon", platform: model.PlatformFacebook, when: now.Add(76 * day), status: model.ValidationError},
		{name: "inside horizon", platform: model.PlatformFacebook, when: now.Add(74 * day), status: model.ValidationOK},
		{name: "unknown platform", platform: model.Platform("myspace"), when: now.Add(time.Hour), status: model.ValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateScheduleTime(tt.platform, tt.when, now)
			assert.Equal(t, "scheduledAt", r.Field)
			assert.Equal(t, tt.status, r.Status)
		})
	}
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]model.ValidationResult{{Status: model.ValidationOK}, {Status: model.ValidationWarning}}))
	assert.True(t, HasErrors([]model.ValidationResult{{Status: model.ValidationWarning}, {Status: model.ValidationError}}))
}

func TestLimitsFor(t *testing.T) {
	l, ok := LimitsFor(model.PlatformTwitter)
	require.True(t, ok)
	assert.Equal(t, 280, l.MaxBodyLength)
	assert.Zero(t, l.MaxMedia)

	_, ok = LimitsFor(model.Platform("myspace"))
	assert.False(t, ok)
}
