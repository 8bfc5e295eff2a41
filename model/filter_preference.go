package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

/*

FilterPreference is a user's timeline filter

UserID: primary key, one preference row per user
EventCategories: JSON array of event categories the user wants, empty means
no category filter
Prefectures: JSON array of prefecture codes the user wants, empty means no
prefecture filter; items carrying the nationwide code "48" match regardless
*/
type FilterPreference struct {
	UserID          string `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	EventCategories datatypes.JSON
	Prefectures     datatypes.JSON
}

// CategorySet decodes EventCategories. A null or empty column decodes to an
// empty set.
func (p *FilterPreference) CategorySet() ([]string, error) {
	return decodeStringSet(p.EventCategories)
}

// PrefectureSet decodes Prefectures.
func (p *FilterPreference) PrefectureSet() ([]string, error) {
	return decodeStringSet(p.Prefectures)
}

func decodeStringSet(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StringSetJSON encodes a string set for storage in a JSON column.
func StringSetJSON(values []string) datatypes.JSON {
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}
