package orchestrator

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/model"
)

// EntryCollector turns one source config into platform-native raw entries.
// Tests inject a fake; production uses the feed/page implementation below.
type EntryCollector interface {
	Collect(ctx context.Context, src *model.SourceConfig) ([]*collector.RawEntry, error)
}

type feedEntryCollector struct {
	fetcher *collector.FeedFetcher
}

// NewFeedEntryCollector collects through the feed endpoint when the source
// has one and falls back to scraping its public page otherwise.
func NewFeedEntryCollector() EntryCollector {
	return &feedEntryCollector{fetcher: collector.NewFeedFetcher()}
}

func (c *feedEntryCollector) Collect(ctx context.Context, src *model.SourceConfig) ([]*collector.RawEntry, error) {
	url, isFeed, ok := src.FetchTarget()
	if !ok {
		return nil, errors.Wrapf(collector.ErrUnreachable, "source %s has neither rss_url nor scraping_url", src.Id)
	}

	if !isFeed {
		return collector.NewPageScraper(src.Platform).Scrape(url)
	}

	res, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(res.Body)
	if err != nil {
		return nil, errors.Wrap(collector.ErrInvalidFormat, err.Error())
	}

	entries := make([]*collector.RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, collector.EntryFromFeedItem(src.Platform, item))
	}
	return entries, nil
}
