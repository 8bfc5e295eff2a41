package collector

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/extensions"

	"github.com/takumi-dev/polifeed/model"
)

// RawEntry is the platform-native record produced by one fetch. It only
// lives within a single fetch-normalize cycle and is never persisted.
//
// Extras flattens the platform extension elements the normalizer cares
// about, keyed "namespace:element" (for example "yt:videoId").
type RawEntry struct {
	Platform     model.Platform
	Title        string
	Content      string
	Description  string
	Link         string
	GUID         string
	Author       string
	Categories   []string
	PublishedAt  *time.Time
	MediaUrls    []string
	ThumbnailUrl string
	Extras       map[string]string
}

// EntryFromFeedItem converts one parsed gofeed item into a RawEntry.
func EntryFromFeedItem(platform model.Platform, item *gofeed.Item) *RawEntry {
	entry := &RawEntry{
		Platform:    platform,
		Title:       item.Title,
		Content:     item.Content,
		Description: item.Description,
		Link:        item.Link,
		GUID:        item.GUID,
		Categories:  item.Categories,
		Extras:      map[string]string{},
	}

	if item.Author != nil {
		entry.Author = item.Author.Name
	}

	entry.PublishedAt = item.PublishedParsed
	if entry.PublishedAt == nil && item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			entry.PublishedAt = &t
		}
	}
	if entry.PublishedAt == nil {
		entry.PublishedAt = item.UpdatedParsed
	}

	for _, enc := range item.Enclosures {
		if enc.URL != "" {
			entry.MediaUrls = append(entry.MediaUrls, enc.URL)
		}
	}
	if item.Image != nil {
		entry.ThumbnailUrl = item.Image.URL
	}

	flattenExtensions(item, entry.Extras)
	return entry
}

// flattenExtensions pulls the extension elements our platforms publish into
// flat Extras keys. YouTube's Atom feed nests statistics and description
// under media:group.
func flattenExtensions(item *gofeed.Item, extras map[string]string) {
	if yt, ok := item.Extensions["yt"]; ok {
		if v := firstExtensionValue(yt["videoId"]); v != "" {
			extras["yt:videoId"] = v
		}
		if v := firstExtensionValue(yt["channelId"]); v != "" {
			extras["yt:channelId"] = v
		}
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return
	}
	for _, group := range media["group"] {
		if v := firstExtensionValue(group.Children["description"]); v != "" {
			extras["media:description"] = v
		}
		for _, thumb := range group.Children["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" && extras["media:thumbnail"] == "" {
				extras["media:thumbnail"] = url
			}
		}
		for _, community := range group.Children["community"] {
			for _, stats := range community.Children["statistics"] {
				if views := stats.Attrs["views"]; views != "" {
					extras["media:statistics:views"] = views
				}
			}
		}
	}
}

func firstExtensionValue(exts []ext.Extension) string {
	if len(exts) == 0 {
		return ""
	}
	return exts[0].Value
}
