// Package publisher projects newly ingested items into per-user timeline
// rows. Matching runs per user against that user's filter preference; every
// write is idempotent on the (user, item) pair.
package publisher

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/takumi-dev/polifeed/dedup"
	"github.com/takumi-dev/polifeed/model"
	"github.com/takumi-dev/polifeed/utils"
	Logger "github.com/takumi-dev/polifeed/utils/log"
)

type FanoutEngine struct {
	db *gorm.DB
}

func NewFanoutEngine(db *gorm.DB) *FanoutEngine {
	return &FanoutEngine{db: db}
}

// FanoutResult counts the timeline rows created by one fan-out pass.
type FanoutResult struct {
	NewsEntries  int64
	EventEntries int64
	SNSEntries   int64
}

// FanoutNewItems projects the given freshly stored items into every
// matching user's timelines. IDs that were dropped by a concurrent run's
// dedup guard simply load nothing and are skipped.
func (e *FanoutEngine) FanoutNewItems(newsIDs, eventIDs, snsIDs []string) (*FanoutResult, error) {
	var prefs []model.FilterPreference
	if err := e.db.Find(&prefs).Error; err != nil {
		return nil, errors.Wrap(dedup.ErrStoreFailure, err.Error())
	}
	if len(prefs) == 0 {
		return &FanoutResult{}, nil
	}

	news, events, posts, err := e.loadItems(newsIDs, eventIDs, snsIDs)
	if err != nil {
		return nil, err
	}

	// Match users in parallel; each goroutine only appends to its own slot.
	rows := make([]timelineRows, len(prefs))
	var wg sync.WaitGroup
	for i := range prefs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows[i] = matchUser(&prefs[i], news, events, posts)
		}(i)
	}
	wg.Wait()

	merged := timelineRows{}
	for _, r := range rows {
		merged.news = append(merged.news, r.news...)
		merged.events = append(merged.events, r.events...)
		merged.sns = append(merged.sns, r.sns...)
	}

	result := &FanoutResult{}
	if result.NewsEntries, err = e.insertRows(&merged.news); err != nil {
		return nil, err
	}
	if result.EventEntries, err = e.insertRows(&merged.events); err != nil {
		return nil, err
	}
	if result.SNSEntries, err = e.insertRows(&merged.sns); err != nil {
		return nil, err
	}

	Logger.Log.Infof(
		"fan-out created %d news, %d event, %d sns timeline rows for %d users",
		result.NewsEntries, result.EventEntries, result.SNSEntries, len(prefs),
	)
	return result, nil
}

type timelineRows struct {
	news   []model.NewsTimelineItem
	events []model.EventTimelineItem
	sns    []model.SNSTimelineItem
}

func (e *FanoutEngine) loadItems(newsIDs, eventIDs, snsIDs []string) ([]model.NewsItem, []model.Event, []model.SNSPost, error) {
	var news []model.NewsItem
	var events []model.Event
	var posts []model.SNSPost

	if len(newsIDs) > 0 {
		if err := e.db.Where("id IN ?", newsIDs).Find(&news).Error; err != nil {
			return nil, nil, nil, errors.Wrap(dedup.ErrStoreFailure, err.Error())
		}
	}
	if len(eventIDs) > 0 {
		if err := e.db.Where("id IN ?", eventIDs).Find(&events).Error; err != nil {
			return nil, nil, nil, errors.Wrap(dedup.ErrStoreFailure, err.Error())
		}
	}
	if len(snsIDs) > 0 {
		if err := e.db.Where("id IN ?", snsIDs).Find(&posts).Error; err != nil {
			return nil, nil, nil, errors.Wrap(dedup.ErrStoreFailure, err.Error())
		}
	}
	return news, events, posts, nil
}

func matchUser(pref *model.FilterPreference, news []model.NewsItem, events []model.Event, posts []model.SNSPost) timelineRows {
	rows := timelineRows{}

	categories, err := pref.CategorySet()
	if err != nil {
		Logger.Log.Errorf("broken category preference for user %s: %v", pref.UserID, err)
		return rows
	}
	prefectures, err := pref.PrefectureSet()
	if err != nil {
		Logger.Log.Errorf("broken prefecture preference for user %s: %v", pref.UserID, err)
		return rows
	}

	for _, item := range news {
		if prefectureMatches(prefectures, item.Prefecture) {
			rows.news = append(rows.news, model.NewsTimelineItem{
				UserID:      pref.UserID,
				NewsItemID:  item.Id,
				DisplayedAt: displayedAt(item.PublishedAt, item.CreatedAt),
			})
		}
	}
	for _, item := range events {
		if categoryMatches(categories, item.Category) && prefectureMatches(prefectures, item.Prefecture) {
			rows.events = append(rows.events, model.EventTimelineItem{
				UserID:      pref.UserID,
				EventID:     item.Id,
				DisplayedAt: displayedAt(item.PublishedAt, item.CreatedAt),
			})
		}
	}
	for _, item := range posts {
		if prefectureMatches(prefectures, item.Prefecture) {
			rows.sns = append(rows.sns, model.SNSTimelineItem{
				UserID:      pref.UserID,
				SNSPostID:   item.Id,
				DisplayedAt: displayedAt(item.PublishedAt, item.CreatedAt),
			})
		}
	}
	return rows
}

// categoryMatches implements the category predicate: an empty preference
// set means "no filter", and items without a category never block.
func categoryMatches(categories []string, itemCategory string) bool {
	if len(categories) == 0 || itemCategory == "" {
		return true
	}
	return utils.ContainsString(categories, itemCategory)
}

// prefectureMatches implements the prefecture predicate. The nationwide
// wildcard "48" matches regardless of the user's selection, as does an item
// carrying no prefecture at all.
func prefectureMatches(prefectures []string, itemPrefecture string) bool {
	if len(prefectures) == 0 {
		return true
	}
	if itemPrefecture == "" || itemPrefecture == model.NationwidePrefecture {
		return true
	}
	return utils.ContainsString(prefectures, itemPrefecture)
}

func displayedAt(publishedAt, createdAt time.Time) time.Time {
	if !publishedAt.IsZero() {
		return publishedAt
	}
	return createdAt
}

// insertRows writes a batch of timeline rows, ignoring (user, item) pairs
// that already exist so repeated fan-out never duplicates rows.
func (e *FanoutEngine) insertRows(rows interface{}) (int64, error) {
	switch r := rows.(type) {
	case *[]model.NewsTimelineItem:
		if len(*r) == 0 {
			return 0, nil
		}
	case *[]model.EventTimelineItem:
		if len(*r) == 0 {
			return 0, nil
		}
	case *[]model.SNSTimelineItem:
		if len(*r) == 0 {
			return 0, nil
		}
	}

	res := e.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rows)
	if res.Error != nil {
		return 0, errors.Wrap(dedup.ErrStoreFailure, res.Error.Error())
	}
	return res.RowsAffected, nil
}
