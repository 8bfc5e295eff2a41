package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NationwidePrefecture is the reserved prefecture code meaning the item
// applies nationwide. It matches any user prefecture filter.
const NationwidePrefecture = "48"

/*

Event is one ingested official event

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

DedupKey: deterministic identifier, unique-indexed
SourceConfigID: config this event was collected from
Title: event title in plain text
Content: event description in plain text
Category: event category used by user filter preferences
Prefecture: prefecture code, "48" means nationwide
PostUrl: canonical link to the event page
ThumbnailUrl: preview image, may be empty
MediaUrls: ordered media attachment urls, serialized as JSON
PublishedAt: time the event was announced
*/
type Event struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt
	DedupKey       string `gorm:"uniqueIndex"`
	SourceConfigID string
	Platform       Platform
	Title          string
	Content        string
	Category       string
	Prefecture     string
	PostUrl        string
	ThumbnailUrl   string
	MediaUrls      datatypes.JSON
	PublishedAt    time.Time
}
