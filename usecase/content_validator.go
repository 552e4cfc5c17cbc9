package usecase

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"brand-publisher/domain/model"

	"github.com/go-playground/validator/v10"
)

// PlatformLimits are the publishing constraints of one platform, narrowed to
// what its adapter actually delivers.
type PlatformLimits struct {
	MaxBodyLength    int
	MaxMedia         int
	MaxVideos        int
	MaxHashtags      int
	AllowedMedia     []model.MediaType
	MixedMedia       bool
	MediaRequired    bool
	VideoRequired    bool
	TitleRequired    bool
	MaxTitleLength   int
	SchedulingWindow time.Duration
}

const day = 24 * time.Hour

// pastTolerance lets a "publish now" request sent a few seconds late through.
const pastTolerance = time.Minute

var platformLimits = map[model.Platform]PlatformLimits{
	// a single video, or up to 10 photos attached to one feed post
	model.PlatformFacebook: {
		MaxBodyLength:    63206,
		MaxMedia:         10,
		MaxVideos:        1,
		AllowedMedia:     []model.MediaType{model.MediaTypeImage, model.MediaTypeVideo},
		SchedulingWindow: 75 * day,
	},
	// one item, or a carousel of up to 10
	model.PlatformInstagram: {
		MaxBodyLength:    2200,
		MaxMedia:         10,
		MaxVideos:        10,
		MaxHashtags:      30,
		AllowedMedia:     []model.MediaType{model.MediaTypeImage, model.MediaTypeVideo},
		MixedMedia:       true,
		MediaRequired:    true,
		SchedulingWindow: 75 * day,
	},
	// text and link only
	model.PlatformTwitter: {
		MaxBodyLength:    280,
		SchedulingWindow: 365 * day,
	},
	// text and article link only
	model.PlatformLinkedIn: {
		MaxBodyLength:    3000,
		SchedulingWindow: 90 * day,
	},
	model.PlatformYouTube: {
		MaxBodyLength:    5000,
		MaxMedia:         1,
		MaxVideos:        1,
		AllowedMedia:     []model.MediaType{model.MediaTypeVideo},
		MediaRequired:    true,
		VideoRequired:    true,
		TitleRequired:    true,
		MaxTitleLength:   100,
		SchedulingWindow: 180 * day,
	},
}

// LimitsFor returns the limits of a platform.
func LimitsFor(p model.Platform) (PlatformLimits, bool) {
	l, ok := platformLimits[p]
	return l, ok
}

var mediaValidate = validator.New()

func result(field string, status model.ValidationStatus, format string, args ...interface{}) model.ValidationResult {
	return model.ValidationResult{Field: field, Status: status, Message: fmt.Sprintf(format, args...)}
}

// orOK appends an ok result for field unless results already judge it.
func orOK(results []model.ValidationResult, field, format string, args ...interface{}) []model.ValidationResult {
	for _, r := range results {
		if r.Field == field {
			return results
		}
	}
	return append(results, result(field, model.ValidationOK, format, args...))
}

// Validate checks content against the limits of platform. It has no side
// effects and returns one result per checked field.
func Validate(platform model.Platform, content model.PostContent) []model.ValidationResult {
	limits, ok := platformLimits[platform]
	if !ok {
		return []model.ValidationResult{result("platform", model.ValidationError, "platform %q is not supported", platform)}
	}

	out := orOK(validateBody(platform, limits, content), "body", "body fits the %d character limit", limits.MaxBodyLength)
	if limits.TitleRequired {
		out = append(out, orOK(validateTitle(platform, limits, content.Title), "title", "title is valid")...)
	}
	out = append(out, orOK(validateMedia(platform, limits, content.Media), "media", "%d media items", len(content.Media))...)
	if limits.MaxHashtags > 0 {
		out = append(out, orOK(validateHashtags(platform, limits, content.Hashtags), "hashtags", "%d hashtags", len(content.Hashtags))...)
	}
	if content.Link != "" {
		out = append(out, orOK(validateLink(content.Link), "link", "link is valid")...)
	}
	return out
}

func validateBody(platform model.Platform, limits PlatformLimits, content model.PostContent) []model.ValidationResult {
	bodyLen := utf8.RuneCountInString(content.Body)
	switch {
	case strings.TrimSpace(content.Body) == "" && len(content.Media) == 0:
		return []model.ValidationResult{result("body", model.ValidationError, "post needs text or media")}
	case bodyLen > limits.MaxBodyLength:
		return []model.ValidationResult{result("body", model.ValidationError, "body is %d characters, %s allows %d", bodyLen, platform, limits.MaxBodyLength)}
	case bodyLen > limits.MaxBodyLength*9/10:
		return []model.ValidationResult{result("body", model.ValidationWarning, "body is close to the %d character limit", limits.MaxBodyLength)}
	}
	return nil
}

func validateTitle(platform model.Platform, limits PlatformLimits, title string) []model.ValidationResult {
	title = strings.TrimSpace(title)
	if title == "" {
		return []model.ValidationResult{result("title", model.ValidationError, "%s requires a title", platform)}
	}
	if n := utf8.RuneCountInString(title); limits.MaxTitleLength > 0 && n > limits.MaxTitleLength {
		return []model.ValidationResult{result("title", model.ValidationError, "title is %d characters, %s allows %d", n, platform, limits.MaxTitleLength)}
	}
	return nil
}

func validateMedia(platform model.Platform, limits PlatformLimits, media []model.MediaItem) []model.ValidationResult {
	if len(media) == 0 {
		if limits.MediaRequired {
			return []model.ValidationResult{result("media", model.ValidationError, "%s requires media", platform)}
		}
		return nil
	}
	if limits.MaxMedia == 0 {
		return []model.ValidationResult{result("media", model.ValidationError, "%s posts are published without media; remove the %d media items", platform, len(media))}
	}

	var out []model.ValidationResult
	if len(media) > limits.MaxMedia {
		out = append(out, result("media", model.ValidationError, "%d media items, %s allows %d", len(media), platform, limits.MaxMedia))
	}
	videos, images := 0, 0
	for i, m := range media {
		field := fmt.Sprintf("media[%d]", i)
		if err := mediaValidate.Struct(m); err != nil {
			out = append(out, result(field, model.ValidationError, "media item needs a valid url and a type of image or video"))
			continue
		}
		if !mediaAllowed(limits.AllowedMedia, m.Type) {
			out = append(out, result(field, model.ValidationError, "%s media is not supported on %s", m.Type, platform))
			continue
		}
		switch m.Type {
		case model.MediaTypeVideo:
			videos++
		case model.MediaTypeImage:
			images++
			if m.AltText == "" {
				out = append(out, result(field, model.ValidationWarning, "image has no alt text"))
			}
		}
	}
	switch {
	case limits.VideoRequired && videos != 1:
		out = append(out, result("media", model.ValidationError, "%s requires exactly one video", platform))
	case videos > limits.MaxVideos:
		out = append(out, result("media", model.ValidationError, "%d videos, %s allows %d per post", videos, platform, limits.MaxVideos))
	case !limits.MixedMedia && videos > 0 && images > 0:
		out = append(out, result("media", model.ValidationError, "%s cannot mix images and videos in one post", platform))
	}
	return out
}

func mediaAllowed(allowed []model.MediaType, t model.MediaType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

func validateHashtags(platform model.Platform, limits PlatformLimits, tags []string) []model.ValidationResult {
	if len(tags) > limits.MaxHashtags {
		return []model.ValidationResult{result("hashtags", model.ValidationWarning, "%d hashtags; %s shows at most %d", len(tags), platform, limits.MaxHashtags)}
	}
	return nil
}

func validateLink(link string) []model.ValidationResult {
	if err := mediaValidate.Var(link, "url"); err != nil {
		return []model.ValidationResult{result("link", model.ValidationError, "link is not a valid URL")}
	}
	return nil
}

// ValidateScheduleTime checks that when is not in the past and within the platform horizon.
func ValidateScheduleTime(platform model.Platform, when, now time.Time) model.ValidationResult {
	limits, ok := platformLimits[platform]
	if !ok {
		return result("scheduledAt", model.ValidationError, "platform %q is not supported", platform)
	}
	if when.Before(now.Add(-pastTolerance)) {
		return result("scheduledAt", model.ValidationError, "scheduled time is in the past")
	}
	if when.After(now.Add(limits.SchedulingWindow)) {
		return result("scheduledAt", model.ValidationError, "%s allows scheduling at most %d days ahead", platform, int(limits.SchedulingWindow/day))
	}
	return result("scheduledAt", model.ValidationOK, "scheduled time is valid")
}

func HasErrors(results []model.ValidationResult) bool {
	for _, r := range results {
		if r.Status == model.ValidationError {
			return true
		}
	}
	return false
}
