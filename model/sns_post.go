package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

SNSPost is one ingested SNS post

The table conceptually partitions by Scope: party_hq and politician posts
form the official timeline, prefecture posts the prefectural one.

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

DedupKey: deterministic identifier, unique-indexed
SourceConfigID: config this post was collected from
Scope: organizational level of the posting account
OwnerID: politician or prefecture the account belongs to, nil for party_hq
Platform: platform the post originates from
Content: post body in plain text
PostUrl: canonical link to the post
ThumbnailUrl: preview image, may be empty
MediaUrls: ordered media attachment urls, serialized as JSON
Hashtags: extracted hashtags, serialized as a comma separated string
Mentions: extracted mentions, serialized as a comma separated string
EngagementCount: platform-reported engagement where available, 0 otherwise
Prefecture: prefecture code for prefectural posts, "48" otherwise
PublishedAt: publication time reported by the platform
*/
type SNSPost struct {
	Id              string `gorm:"primaryKey"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt
	DedupKey        string `gorm:"uniqueIndex"`
	SourceConfigID  string
	Scope           SourceScope
	OwnerID         *string
	Platform        Platform
	Content         string
	PostUrl         string
	ThumbnailUrl    string
	MediaUrls       datatypes.JSON
	Hashtags        string
	Mentions        string
	EngagementCount int
	Prefecture      string
	PublishedAt     time.Time
}
