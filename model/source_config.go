package model

import (
	"time"

	"gorm.io/gorm"
)

// SourceScope is the organizational level a scrape target belongs to.
type SourceScope string

const (
	ScopePartyHQ    SourceScope = "party_hq"
	ScopePolitician SourceScope = "politician"
	ScopePrefecture SourceScope = "prefecture"
)

// SourceCategory decides which run type picks a source up.
type SourceCategory string

const (
	CategoryNews   SourceCategory = "news"
	CategoryEvents SourceCategory = "events"
	CategorySNS    SourceCategory = "sns"
)

// Platform is a closed set of supported feed platforms. Adding a platform
// means adding a constant here plus one entry in the normalizer's
// extraction table.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformNote      Platform = "note"
	PlatformIceage    Platform = "iceage"
)

/*

SourceConfig is a data model for one scrape target

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is soft-removed, a config referenced by stored
posts flips inactive instead of being hard-deleted

Scope: party_hq / politician / prefecture
Category: which run type (news / events / sns) collects this source
OwnerID: referenced politician or prefecture, nil for party_hq
Platform: platform this account lives on
AccountUrl: public account page
RssUrl: feed endpoint, nil when the source is scrape-only
ScrapingUrl: public page to scrape when no feed exists
ChannelId: platform-side channel identifier, used to derive RssUrl for
youtube/iceage sources
IsActive: inactive sources are skipped by every run
*/
type SourceConfig struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Scope       SourceScope
	Category    SourceCategory
	OwnerID     *string
	Platform    Platform
	AccountUrl  string
	RssUrl      *string
	ScrapingUrl *string
	ChannelId   *string
	IsActive    bool
}

// FetchTarget resolves the URL a run should fetch for this source, preferring
// the feed endpoint over the scraping page. The second return reports whether
// the chosen URL is a feed.
func (s *SourceConfig) FetchTarget() (url string, isFeed bool, ok bool) {
	if s.RssUrl != nil && *s.RssUrl != "" {
		return *s.RssUrl, true, true
	}
	if s.ScrapingUrl != nil && *s.ScrapingUrl != "" {
		return *s.ScrapingUrl, false, true
	}
	return "", false, false
}
