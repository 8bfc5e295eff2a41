// Package registry owns scrape-target definitions across the three scopes
// (party HQ, politicians, prefectural branches). All operations are
// idempotent reads and writes against the store; nothing is cached across
// calls.
package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/takumi-dev/polifeed/model"
)

var (
	// ErrConflict is a mutation that would violate referential safety, for
	// example deleting a config still referenced by stored posts.
	ErrConflict = errors.New("source config is referenced by stored items")

	// ErrMissingField is a create or update without the required fields.
	ErrMissingField = errors.New("platform and account_url are required")
)

const youtubeFeedFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	Scope      model.SourceScope
	Category   model.SourceCategory
	ActiveOnly bool
}

func (r *Registry) List(filter ListFilter) ([]model.SourceConfig, error) {
	q := r.db.Model(&model.SourceConfig{})
	if filter.Scope != "" {
		q = q.Where("scope = ?", filter.Scope)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var configs []model.SourceConfig
	if err := q.Order("created_at").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *Registry) Get(id string) (*model.SourceConfig, error) {
	var cfg model.SourceConfig
	if err := r.db.Where("id = ?", id).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create validates required fields, derives the YouTube feed URL where
// applicable, and persists the config.
func (r *Registry) Create(cfg *model.SourceConfig) error {
	if err := validate(cfg); err != nil {
		return err
	}
	DeriveRssUrl(cfg)

	if cfg.Id == "" {
		cfg.Id = uuid.New().String()
	}
	if cfg.Category == "" {
		cfg.Category = model.CategorySNS
	}
	cfg.CreatedAt = time.Now()

	return r.db.Create(cfg).Error
}

// Update applies a partial-field update: zero fields in patch leave the
// stored value untouched. The same validation and derivation as Create
// apply to the merged result.
func (r *Registry) Update(id string, patch *model.SourceConfig) (*model.SourceConfig, error) {
	cfg, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	if err := copier.CopyWithOption(cfg, patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, err
	}
	cfg.Id = id

	if err := validate(cfg); err != nil {
		return nil, err
	}
	DeriveRssUrl(cfg)

	if err := r.db.Save(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

// Delete soft-removes a config. A config still referenced by stored items
// must not disappear from under them, so the delete is rejected with
// ErrConflict; callers should Deactivate instead.
func (r *Registry) Delete(id string) error {
	cfg, err := r.Get(id)
	if err != nil {
		return err
	}

	referenced, err := r.isReferenced(id)
	if err != nil {
		return err
	}
	if referenced {
		return errors.Wrapf(ErrConflict, "source %s", id)
	}

	return r.db.Delete(cfg).Error
}

// Deactivate flips a config inactive so runs skip it while historical posts
// keep a valid reference.
func (r *Registry) Deactivate(id string) error {
	return r.db.Model(&model.SourceConfig{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *Registry) isReferenced(id string) (bool, error) {
	for _, tableModel := range []interface{}{&model.NewsItem{}, &model.Event{}, &model.SNSPost{}} {
		var count int64
		if err := r.db.Model(tableModel).Where("source_config_id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func validate(cfg *model.SourceConfig) error {
	if cfg.Platform == "" || cfg.AccountUrl == "" {
		return ErrMissingField
	}
	return nil
}

// DeriveRssUrl fills the feed endpoint for youtube/iceage sources that only
// carry a channel identifier. The derivation is deterministic:
// https://www.youtube.com/feeds/videos.xml?channel_id=<id>
func DeriveRssUrl(cfg *model.SourceConfig) {
	if cfg.RssUrl != nil && *cfg.RssUrl != "" {
		return
	}
	if cfg.Platform != model.PlatformYouTube && cfg.Platform != model.PlatformIceage {
		return
	}
	if cfg.ChannelId == nil || *cfg.ChannelId == "" {
		return
	}
	derived := fmt.Sprintf(youtubeFeedFormat, *cfg.ChannelId)
	cfg.RssUrl = &derived
}
