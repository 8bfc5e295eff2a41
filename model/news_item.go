package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

NewsItem is one ingested party news article

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

DedupKey: deterministic identifier derived from (platform, post url), the
unique index on it is the authoritative guard against double ingestion
SourceConfigID: config this item was collected from, "belongs-to" relation
Title: article title in plain text
Content: article body in plain text
PostUrl: canonical link to the article
ThumbnailUrl: preview image, may be empty
MediaUrls: ordered media attachment urls, serialized as JSON
Prefecture: prefecture code the article applies to, "48" means nationwide
PublishedAt: publication time reported by the feed, used as timeline
displayed_at during fan-out
*/
type NewsItem struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt
	DedupKey       string `gorm:"uniqueIndex"`
	SourceConfigID string
	Platform       Platform
	Title          string
	Content        string
	PostUrl        string
	ThumbnailUrl   string
	MediaUrls      datatypes.JSON
	Prefecture     string
	PublishedAt    time.Time
}
