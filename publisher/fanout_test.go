package publisher

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/takumi-dev/polifeed/model"
	"github.com/takumi-dev/polifeed/utils"
)

func TestPrefectureMatches(t *testing.T) {
	tests := []struct {
		name           string
		prefectures    []string
		itemPrefecture string
		want           bool
	}{
		{"empty preference matches everything", nil, "27", true},
		{"nationwide item matches any preference", []string{"13"}, model.NationwidePrefecture, true},
		{"item without prefecture matches", []string{"13"}, "", true},
		{"selected prefecture matches", []string{"13"}, "13", true},
		{"other prefecture does not match", []string{"13"}, "27", false},
		{"multi selection", []string{"13", "27"}, "27", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prefectureMatches(tt.prefectures, tt.itemPrefecture))
		})
	}
}

func TestCategoryMatches(t *testing.T) {
	assert.True(t, categoryMatches(nil, "townhall"))
	assert.True(t, categoryMatches([]string{"townhall"}, ""))
	assert.True(t, categoryMatches([]string{"townhall", "rally"}, "rally"))
	assert.False(t, categoryMatches([]string{"townhall"}, "rally"))
}

func TestDisplayedAtPrefersPublicationTime(t *testing.T) {
	published := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	created := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, published, displayedAt(published, created))
	assert.Equal(t, created, displayedAt(time.Time{}, created))
}

func seedUser(t *testing.T, db *gorm.DB, categories, prefectures []string) string {
	t.Helper()
	userID := uuid.New().String()
	require.NoError(t, db.Create(&model.User{Id: userID, Name: "user-" + userID[:8]}).Error)
	require.NoError(t, db.Create(&model.FilterPreference{
		UserID:          userID,
		EventCategories: model.StringSetJSON(categories),
		Prefectures:     model.StringSetJSON(prefectures),
	}).Error)
	return userID
}

func seedNews(t *testing.T, db *gorm.DB, prefecture string) string {
	t.Helper()
	item := &model.NewsItem{
		Id:          uuid.New().String(),
		DedupKey:    uuid.New().String(),
		Platform:    model.PlatformNote,
		Title:       "記事",
		PostUrl:     "https://note.com/hq/n/" + uuid.New().String(),
		Prefecture:  prefecture,
		PublishedAt: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(item).Error)
	return item.Id
}

func seedEvent(t *testing.T, db *gorm.DB, category, prefecture string) string {
	t.Helper()
	event := &model.Event{
		Id:          uuid.New().String(),
		DedupKey:    uuid.New().String(),
		Platform:    model.PlatformNote,
		Title:       "イベント",
		Category:    category,
		Prefecture:  prefecture,
		PostUrl:     "https://example.com/events/" + uuid.New().String(),
		PublishedAt: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(event).Error)
	return event.Id
}

func TestFanoutAppliesUserFilters(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	tokyoUser := seedUser(t, db, []string{"townhall"}, []string{"13"})
	unfiltered := seedUser(t, db, nil, nil)

	tokyoNews := seedNews(t, db, "13")
	osakaNews := seedNews(t, db, "27")
	nationwideNews := seedNews(t, db, model.NationwidePrefecture)
	townhall := seedEvent(t, db, "townhall", "13")
	rally := seedEvent(t, db, "rally", "13")

	result, err := engine.FanoutNewItems(
		[]string{tokyoNews, osakaNews, nationwideNews},
		[]string{townhall, rally},
		nil,
	)
	require.NoError(t, err)

	// Tokyo user: two news rows (13 + nationwide), one event row (townhall).
	// Unfiltered user: all three news rows and both events.
	assert.Equal(t, int64(5), result.NewsEntries)
	assert.Equal(t, int64(3), result.EventEntries)
	assert.Equal(t, int64(0), result.SNSEntries)

	var tokyoRows []model.NewsTimelineItem
	require.NoError(t, db.Where("user_id = ?", tokyoUser).Find(&tokyoRows).Error)
	got := []string{}
	for _, row := range tokyoRows {
		got = append(got, row.NewsItemID)
	}
	want := []string{tokyoNews, nationwideNews}
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokyo user news rows mismatch (-want +got):\n%s", diff)
	}

	var tokyoEvents []model.EventTimelineItem
	require.NoError(t, db.Where("user_id = ?", tokyoUser).Find(&tokyoEvents).Error)
	require.Len(t, tokyoEvents, 1)
	assert.Equal(t, townhall, tokyoEvents[0].EventID)
	assert.False(t, tokyoEvents[0].IsRead)
	assert.False(t, tokyoEvents[0].IsInterested)

	var unfilteredEvents int64
	require.NoError(t, db.Model(&model.EventTimelineItem{}).Where("user_id = ?", unfiltered).Count(&unfilteredEvents).Error)
	assert.Equal(t, int64(2), unfilteredEvents)
}

func TestFanoutSetsDisplayedAtToPublicationTime(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	userID := seedUser(t, db, nil, nil)
	newsID := seedNews(t, db, model.NationwidePrefecture)

	_, err := engine.FanoutNewItems([]string{newsID}, nil, nil)
	require.NoError(t, err)

	var row model.NewsTimelineItem
	require.NoError(t, db.Where("user_id = ?", userID).First(&row).Error)
	assert.Equal(t, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC), row.DisplayedAt.UTC())
}

func TestFanoutIsIdempotent(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	seedUser(t, db, nil, nil)
	newsID := seedNews(t, db, model.NationwidePrefecture)

	result, err := engine.FanoutNewItems([]string{newsID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.NewsEntries)

	result, err = engine.FanoutNewItems([]string{newsID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NewsEntries)

	var count int64
	require.NoError(t, db.Model(&model.NewsTimelineItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFanoutWithoutUsersIsNoop(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	newsID := seedNews(t, db, model.NationwidePrefecture)
	result, err := engine.FanoutNewItems([]string{newsID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &FanoutResult{}, result)
}

func TestCreateCustomTimelineEnforcesPlanCap(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	// No active plan falls back to the default cap of one view.
	userID := uuid.New().String()
	require.NoError(t, db.Create(&model.User{Id: userID, Name: "free user"}).Error)

	filter := model.StringSetJSON([]string{"13"})
	_, err := engine.CreateCustomTimeline(userID, "東京のニュース", filter)
	require.NoError(t, err)

	_, err = engine.CreateCustomTimeline(userID, "大阪のニュース", filter)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlanLimitExceeded)
}

func TestCreateCustomTimelineHonorsActivePlan(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	plan := &model.SubscriptionPlan{
		Id:                 uuid.New().String(),
		Name:               "premium",
		MaxCustomTimelines: 3,
		IsActive:           true,
	}
	require.NoError(t, db.Create(plan).Error)
	userID := uuid.New().String()
	require.NoError(t, db.Create(&model.User{Id: userID, Name: "premium user", PlanID: &plan.Id}).Error)

	filter := model.StringSetJSON(nil)
	for i := 0; i < 3; i++ {
		_, err := engine.CreateCustomTimeline(userID, "view", filter)
		require.NoError(t, err)
	}
	_, err := engine.CreateCustomTimeline(userID, "one too many", filter)
	assert.ErrorIs(t, err, ErrPlanLimitExceeded)
}

func TestInactivePlanFallsBackToDefaultCap(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	engine := NewFanoutEngine(db)

	plan := &model.SubscriptionPlan{
		Id:                 uuid.New().String(),
		Name:               "lapsed",
		MaxCustomTimelines: 5,
		IsActive:           false,
	}
	require.NoError(t, db.Create(plan).Error)
	userID := uuid.New().String()
	require.NoError(t, db.Create(&model.User{Id: userID, Name: "lapsed user", PlanID: &plan.Id}).Error)

	filter := model.StringSetJSON(nil)
	_, err := engine.CreateCustomTimeline(userID, "view", filter)
	require.NoError(t, err)
	_, err = engine.CreateCustomTimeline(userID, "second view", filter)
	assert.ErrorIs(t, err, ErrPlanLimitExceeded)
}
