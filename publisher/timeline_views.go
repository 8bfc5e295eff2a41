package publisher

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/takumi-dev/polifeed/model"
)

// ErrPlanLimitExceeded is a materialization that would exceed the user's
// subscription plan cap. It is surfaced to the caller, never silently
// dropped.
var ErrPlanLimitExceeded = errors.New("custom timeline count exceeds the subscription plan limit")

// DefaultMaxCustomTimelines applies to users without an active plan.
const DefaultMaxCustomTimelines = 1

// CreateCustomTimeline materializes one more filtered timeline view for a
// user, enforcing the plan cap on distinct views. Raw ingestion is never
// bounded by the plan; only materialized views are.
func (e *FanoutEngine) CreateCustomTimeline(userID, name string, filter datatypes.JSON) (*model.CustomTimeline, error) {
	limit, err := e.timelineLimit(userID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := e.db.Model(&model.CustomTimeline{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count >= int64(limit) {
		return nil, errors.Wrapf(ErrPlanLimitExceeded, "user %s already has %d of %d views", userID, count, limit)
	}

	view := &model.CustomTimeline{
		Id:        uuid.New().String(),
		CreatedAt: time.Now(),
		UserID:    userID,
		Name:      name,
		Filter:    filter,
	}
	if err := e.db.Create(view).Error; err != nil {
		return nil, err
	}
	return view, nil
}

func (e *FanoutEngine) timelineLimit(userID string) (int, error) {
	var user model.User
	if err := e.db.Preload("Plan").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, err
	}
	if user.Plan == nil || !user.Plan.IsActive {
		return DefaultMaxCustomTimelines, nil
	}
	return user.Plan.MaxCustomTimelines, nil
}
