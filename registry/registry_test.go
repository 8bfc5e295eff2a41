package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumi-dev/polifeed/model"
	"github.com/takumi-dev/polifeed/utils"
)

func strPtr(s string) *string { return &s }

func TestDeriveRssUrl(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.SourceConfig
		want *string
	}{
		{
			name: "youtube channel id derives the feed endpoint",
			cfg: model.SourceConfig{
				Platform:  model.PlatformYouTube,
				ChannelId: strPtr("UCxxxx"),
			},
			want: strPtr("https://www.youtube.com/feeds/videos.xml?channel_id=UCxxxx"),
		},
		{
			name: "iceage uses the same derivation",
			cfg: model.SourceConfig{
				Platform:  model.PlatformIceage,
				ChannelId: strPtr("UCyyyy"),
			},
			want: strPtr("https://www.youtube.com/feeds/videos.xml?channel_id=UCyyyy"),
		},
		{
			name: "explicit feed url is never overwritten",
			cfg: model.SourceConfig{
				Platform:  model.PlatformYouTube,
				ChannelId: strPtr("UCxxxx"),
				RssUrl:    strPtr("https://example.com/custom.xml"),
			},
			want: strPtr("https://example.com/custom.xml"),
		},
		{
			name: "non-video platform is untouched",
			cfg: model.SourceConfig{
				Platform:  model.PlatformTwitter,
				ChannelId: strPtr("UCxxxx"),
			},
			want: nil,
		},
		{
			name: "missing channel id leaves the url empty",
			cfg:  model.SourceConfig{Platform: model.PlatformYouTube},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			DeriveRssUrl(&tt.cfg)
			if tt.want == nil {
				assert.Nil(t, tt.cfg.RssUrl)
				return
			}
			require.NotNil(t, tt.cfg.RssUrl)
			assert.Equal(t, *tt.want, *tt.cfg.RssUrl)
		})
	}
}

func TestCreateRequiresPlatformAndAccountUrl(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	err := r.Create(&model.SourceConfig{Platform: model.PlatformNote})
	assert.ErrorIs(t, err, ErrMissingField)

	err = r.Create(&model.SourceConfig{AccountUrl: "https://note.com/party"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCreateFillsDefaults(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	cfg := &model.SourceConfig{
		Scope:      model.ScopePolitician,
		OwnerID:    strPtr("politician-7"),
		Platform:   model.PlatformYouTube,
		AccountUrl: "https://www.youtube.com/@somepolitician",
		ChannelId:  strPtr("UCxxxx"),
		IsActive:   true,
	}
	require.NoError(t, r.Create(cfg))

	assert.NotEmpty(t, cfg.Id)
	assert.Equal(t, model.CategorySNS, cfg.Category)
	require.NotNil(t, cfg.RssUrl)
	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCxxxx", *cfg.RssUrl)

	stored, err := r.Get(cfg.Id)
	require.NoError(t, err)
	assert.Equal(t, cfg.AccountUrl, stored.AccountUrl)
}

func TestListFilters(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	seed := []*model.SourceConfig{
		{Scope: model.ScopePartyHQ, Category: model.CategoryNews, Platform: model.PlatformNote, AccountUrl: "https://note.com/hq", IsActive: true},
		{Scope: model.ScopePrefecture, Category: model.CategorySNS, OwnerID: strPtr("13"), Platform: model.PlatformTwitter, AccountUrl: "https://twitter.com/tokyo", IsActive: true},
		{Scope: model.ScopePrefecture, Category: model.CategorySNS, OwnerID: strPtr("27"), Platform: model.PlatformTwitter, AccountUrl: "https://twitter.com/osaka", IsActive: false},
	}
	for _, cfg := range seed {
		require.NoError(t, r.Create(cfg))
	}

	all, err := r.List(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sns, err := r.List(ListFilter{Category: model.CategorySNS})
	require.NoError(t, err)
	assert.Len(t, sns, 2)

	activeSns, err := r.List(ListFilter{Category: model.CategorySNS, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, activeSns, 1)
	assert.Equal(t, "https://twitter.com/tokyo", activeSns[0].AccountUrl)

	pref, err := r.List(ListFilter{Scope: model.ScopePrefecture})
	require.NoError(t, err)
	assert.Len(t, pref, 2)
}

func TestUpdateLeavesUnsetFieldsUntouched(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	cfg := &model.SourceConfig{
		Scope:      model.ScopePrefecture,
		OwnerID:    strPtr("13"),
		Platform:   model.PlatformTwitter,
		AccountUrl: "https://twitter.com/tokyo",
		IsActive:   true,
	}
	require.NoError(t, r.Create(cfg))

	updated, err := r.Update(cfg.Id, &model.SourceConfig{AccountUrl: "https://x.com/tokyo"})
	require.NoError(t, err)

	assert.Equal(t, "https://x.com/tokyo", updated.AccountUrl)
	assert.Equal(t, model.PlatformTwitter, updated.Platform)
	assert.Equal(t, model.ScopePrefecture, updated.Scope)
	require.NotNil(t, updated.OwnerID)
	assert.Equal(t, "13", *updated.OwnerID)
}

func TestDeleteReferencedConfigConflicts(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	cfg := &model.SourceConfig{
		Scope:      model.ScopePartyHQ,
		Category:   model.CategoryNews,
		Platform:   model.PlatformNote,
		AccountUrl: "https://note.com/hq",
		IsActive:   true,
	}
	require.NoError(t, r.Create(cfg))

	require.NoError(t, db.Create(&model.NewsItem{
		Id:             uuid.New().String(),
		DedupKey:       uuid.New().String(),
		SourceConfigID: cfg.Id,
		Platform:       model.PlatformNote,
		Title:          "記事",
		PostUrl:        "https://note.com/hq/n/n1",
		Prefecture:     model.NationwidePrefecture,
	}).Error)

	err := r.Delete(cfg.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	// Deactivate is the sanctioned alternative.
	require.NoError(t, r.Deactivate(cfg.Id))
	stored, err := r.Get(cfg.Id)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	active, err := r.List(ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDeleteUnreferencedConfigSucceeds(t *testing.T) {
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	r := New(db)

	cfg := &model.SourceConfig{
		Scope:      model.ScopePartyHQ,
		Platform:   model.PlatformNote,
		AccountUrl: "https://note.com/hq",
	}
	require.NoError(t, r.Create(cfg))
	require.NoError(t, r.Delete(cfg.Id))

	_, err := r.Get(cfg.Id)
	assert.Error(t, err)
}
