package model

import (
	"time"

	"gorm.io/gorm"
)

/*

SubscriptionPlan bounds what a paying tier may materialize

Id: primary key
MaxCustomTimelines: how many distinct filtered timeline views a subscribed
user may keep, not a bound on raw ingestion
IsActive: inactive plans reject new materializations
*/
type SubscriptionPlan struct {
	Id                 string `gorm:"primaryKey"`
	CreatedAt          time.Time
	DeletedAt          gorm.DeletedAt
	Name               string
	MaxCustomTimelines int
	IsActive           bool
}

type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	Name      string
	PlanID    *string
	Plan      *SubscriptionPlan `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
