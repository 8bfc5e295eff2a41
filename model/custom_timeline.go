package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

CustomTimeline is one materialized filtered timeline view

Id: primary key
UserID: owner, the count of live rows per user is capped by the owner's
SubscriptionPlan.MaxCustomTimelines
Name: display name of the view
Filter: serialized filter the view applies, same shape as FilterPreference
*/
type CustomTimeline struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	UserID    string
	Name      string
	Filter    datatypes.JSON
}
