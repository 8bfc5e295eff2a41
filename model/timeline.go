package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Timeline rows are the per-user projection of ingested items, one table per
content domain. The composite (user, item) primary key makes fan-out
idempotent: inserting the same pair twice cannot produce two rows.

UserID: user the row belongs to
*ItemID: referenced ingested item, never mutated through the timeline
DisplayedAt: ordering timestamp, set to the item's publication time
IsRead / IsInterested: flags toggled by the consuming application, this core
only creates rows with both false

*/

type NewsTimelineItem struct {
	UserID       string `gorm:"primaryKey"`
	NewsItemID   string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	DisplayedAt  time.Time
	IsRead       bool
	IsInterested bool
}

type EventTimelineItem struct {
	UserID       string `gorm:"primaryKey"`
	EventID      string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	DisplayedAt  time.Time
	IsRead       bool
	IsInterested bool
}

type SNSTimelineItem struct {
	UserID       string `gorm:"primaryKey"`
	SNSPostID    string `gorm:"primaryKey"`
	CreatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	DisplayedAt  time.Time
	IsRead       bool
	IsInterested bool
}
