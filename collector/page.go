package collector

import (
	"strings"

	"github.com/araddon/dateparse"
	"github.com/gocolly/colly"
	"github.com/pkg/errors"

	"github.com/takumi-dev/polifeed/model"
	Logger "github.com/takumi-dev/polifeed/utils/log"
)

// postSelector lists the container elements a public account page renders
// posts in. Instagram and Facebook public pages only expose scraped markup,
// so scrape-only sources go through here instead of the feed path.
var postSelectors = []string{"article", "div[role='article']", ".post", "li.note"}

// PageScraper walks a public page and synthesizes RawEntries that feed the
// same normalizer table as feed-born entries.
type PageScraper struct {
	platform model.Platform
}

func NewPageScraper(platform model.Platform) *PageScraper {
	return &PageScraper{platform: platform}
}

func (s *PageScraper) Scrape(pageUrl string) ([]*RawEntry, error) {
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(defaultFetchTimeout)

	entries := []*RawEntry{}
	var fetchErr error

	// The selectors overlap on some markups (a .post inside an article); an
	// element matching two of them must still yield one entry.
	seenLinks := map[string]bool{}
	for _, selector := range postSelectors {
		c.OnHTML(selector, func(e *colly.HTMLElement) {
			entry := s.entryFromElement(e)
			if entry == nil || seenLinks[entry.Link] {
				return
			}
			seenLinks[entry.Link] = true
			entries = append(entries, entry)
		})
	}

	c.OnError(func(res *colly.Response, err error) {
		if res != nil && res.StatusCode > 0 {
			fetchErr = &SourceError{StatusCode: res.StatusCode}
			return
		}
		fetchErr = errors.Wrap(ErrUnreachable, err.Error())
	})

	if err := c.Visit(pageUrl); err != nil && fetchErr == nil {
		fetchErr = errors.Wrap(ErrUnreachable, err.Error())
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	Logger.Log.Infof("scraped %d post elements from %s", len(entries), pageUrl)
	return entries, nil
}

func (s *PageScraper) entryFromElement(e *colly.HTMLElement) *RawEntry {
	link := e.ChildAttr("a[href]", "href")
	if link == "" {
		return nil
	}

	entry := &RawEntry{
		Platform:     s.platform,
		Content:      strings.TrimSpace(e.DOM.Text()),
		Link:         e.Request.AbsoluteURL(link),
		MediaUrls:    e.ChildAttrs("img[src]", "src"),
		ThumbnailUrl: e.ChildAttr("img[src]", "src"),
		Extras:       map[string]string{},
	}

	if ts := e.ChildAttr("time", "datetime"); ts != "" {
		if t, err := dateparse.ParseAny(ts); err == nil {
			entry.PublishedAt = &t
		}
	}

	return entry
}
