// Package normalizer maps platform-native raw entries into one canonical
// post record. All platform differences live in the extraction table below:
// supporting a new platform means adding one table entry, call sites never
// branch on platform.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/model"
)

// Post is the canonical normalized record produced from one RawEntry.
//
// DedupKey is filled in by the dedup store, which prefers URL identity and
// falls back to a content fingerprint when URLUnstable is set (for example
// bridge-wrapped twitter links).
type Post struct {
	DedupKey        string
	URLUnstable     bool
	Platform        model.Platform
	Scope           model.SourceScope
	OwnerID         *string
	Title           string
	Content         string
	Category        string
	MediaUrls       []string
	ThumbnailUrl    string
	PostUrl         string
	PublishedAt     time.Time
	EngagementCount int
	Hashtags        []string
	Mentions        []string
}

// extractor declares how one platform's entries map onto the canonical
// record. Nil funcs fall back to the generic behavior.
type extractor struct {
	content    func(*collector.RawEntry) string
	media      func(*collector.RawEntry) []string
	thumbnail  func(*collector.RawEntry) string
	engagement func(*collector.RawEntry) int
	// postURL returns the canonical post link plus whether that link is
	// stable enough to key deduplication on.
	postURL func(*collector.RawEntry) (string, bool)
}

var extractors = map[model.Platform]extractor{
	model.PlatformTwitter: {
		content: func(e *collector.RawEntry) string { return stripHTML(e.Description) },
		media: func(e *collector.RawEntry) []string {
			return uniqueStrings(append(e.MediaUrls, imageUrls(e.Description)...))
		},
		postURL: twitterPostURL,
	},
	model.PlatformYouTube:   youtubeExtractor,
	model.PlatformIceage:    youtubeExtractor,
	model.PlatformInstagram: {},
	model.PlatformFacebook:  {},
	model.PlatformNote: {
		content: func(e *collector.RawEntry) string {
			if e.Content != "" {
				return stripHTML(e.Content)
			}
			return stripHTML(e.Description)
		},
	},
}

// The iceage election aggregator republishes the native YouTube Atom feed,
// so both platforms share one entry.
var youtubeExtractor = extractor{
	content: func(e *collector.RawEntry) string {
		if desc := e.Extras["media:description"]; desc != "" {
			return desc
		}
		return e.Title
	},
	thumbnail: func(e *collector.RawEntry) string {
		if url := e.Extras["media:thumbnail"]; url != "" {
			return url
		}
		if id := e.Extras["yt:videoId"]; id != "" {
			return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id)
		}
		return ""
	},
	engagement: func(e *collector.RawEntry) int {
		views, _ := strconv.Atoi(e.Extras["media:statistics:views"])
		return views
	},
	postURL: func(e *collector.RawEntry) (string, bool) {
		if id := e.Extras["yt:videoId"]; id != "" {
			return "https://www.youtube.com/watch?v=" + id, true
		}
		return e.Link, true
	},
}

// Normalize maps one raw entry onto the canonical post record, or returns
// collector.ErrSkipEntry when the entry is structurally unusable.
func Normalize(entry *collector.RawEntry, src *model.SourceConfig) (*Post, error) {
	ex, ok := extractors[entry.Platform]
	if !ok {
		return nil, errors.Wrapf(collector.ErrSkipEntry, "unsupported platform %q", entry.Platform)
	}

	postUrl, stable := entry.Link, true
	if ex.postURL != nil {
		postUrl, stable = ex.postURL(entry)
	}
	if postUrl == "" {
		return nil, errors.Wrap(collector.ErrSkipEntry, "no resolvable post url")
	}
	if entry.PublishedAt == nil {
		return nil, errors.Wrap(collector.ErrSkipEntry, "no published timestamp")
	}

	content := genericContent(entry)
	if ex.content != nil {
		content = ex.content(entry)
	}

	media := uniqueStrings(append(append([]string{}, entry.MediaUrls...), imageUrls(entry.Content+entry.Description)...))
	if ex.media != nil {
		media = ex.media(entry)
	}

	thumbnail := entry.ThumbnailUrl
	if thumbnail == "" && len(media) > 0 {
		thumbnail = media[0]
	}
	if ex.thumbnail != nil {
		thumbnail = ex.thumbnail(entry)
	}

	engagement := 0
	if ex.engagement != nil {
		engagement = ex.engagement(entry)
	}

	category := ""
	if len(entry.Categories) > 0 {
		category = entry.Categories[0]
	}

	return &Post{
		URLUnstable:     !stable,
		Platform:        entry.Platform,
		Scope:           src.Scope,
		OwnerID:         src.OwnerID,
		Title:           strings.TrimSpace(entry.Title),
		Content:         strings.TrimSpace(content),
		Category:        category,
		MediaUrls:       media,
		ThumbnailUrl:    thumbnail,
		PostUrl:         postUrl,
		PublishedAt:     entry.PublishedAt.UTC(),
		EngagementCount: engagement,
		Hashtags:        extractHashtags(content),
		Mentions:        extractMentions(content),
	}, nil
}

func genericContent(e *collector.RawEntry) string {
	if e.Content != "" {
		return stripHTML(e.Content)
	}
	return stripHTML(e.Description)
}

// twitterPostURL canonicalizes bridge links. A link already pointing at a
// status page is stable; anything else keys on the content fingerprint
// because bridges rewrite their own URLs between runs.
func twitterPostURL(e *collector.RawEntry) (string, bool) {
	for _, host := range []string{"twitter.com/", "x.com/"} {
		if strings.Contains(e.Link, host) && strings.Contains(e.Link, "/status/") {
			return e.Link, true
		}
	}
	if e.Link != "" {
		return e.Link, false
	}
	return e.GUID, false
}
