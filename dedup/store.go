// Package dedup decides, per source, which normalized posts are new
// relative to previous runs, and persists them at most once per dedup key.
package dedup

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/takumi-dev/polifeed/collector/normalizer"
)

// ErrStoreFailure is a read or write the persistence layer rejected. The
// caller must fail that source closed instead of guessing whether the item
// was stored.
var ErrStoreFailure = errors.New("persistence layer rejected the operation")

// Store filters candidate batches against previously stored dedup keys.
//
// The in-memory seen map is an optimization only and can return false
// negatives after restarts; the unique index on dedup_key is the
// authoritative guard, including against concurrent runs touching the same
// key. Each table carries its own dedup_key index, so the cache is
// partitioned the same way: a key stored for one table says nothing about
// the others.
type Store struct {
	db *gorm.DB

	m    sync.RWMutex
	seen map[string]map[string]bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, seen: make(map[string]map[string]bool)}
}

// cacheScope names the cache partition for a table model or a row batch.
func cacheScope(tableModel interface{}) string {
	t := reflect.TypeOf(tableModel)
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Name()
}

func (s *Store) markSeen(scope string, keys []string) {
	s.m.Lock()
	if s.seen[scope] == nil {
		s.seen[scope] = make(map[string]bool)
	}
	for _, k := range keys {
		s.seen[scope][k] = true
	}
	s.m.Unlock()
}

// FilterNew computes the dedup key of every candidate and returns the
// subset not previously stored in the table selected by tableModel,
// preserving the candidates' relative order.
func (s *Store) FilterNew(tableModel interface{}, candidates []*normalizer.Post) ([]*normalizer.Post, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.DedupKey == "" {
			if c.URLUnstable {
				c.DedupKey = ContentFingerprint(c.Platform, c.Content, c.PublishedAt)
			} else {
				c.DedupKey = Key(c.Platform, c.PostUrl)
			}
		}
		keys = append(keys, c.DedupKey)
	}

	existing, err := s.existingKeys(tableModel, keys)
	if err != nil {
		return nil, err
	}

	fresh := []*normalizer.Post{}
	batchSeen := map[string]bool{}
	for _, c := range candidates {
		if existing[c.DedupKey] || batchSeen[c.DedupKey] {
			continue
		}
		batchSeen[c.DedupKey] = true
		fresh = append(fresh, c)
	}
	return fresh, nil
}

func (s *Store) existingKeys(tableModel interface{}, keys []string) (map[string]bool, error) {
	scope := cacheScope(tableModel)
	existing := map[string]bool{}
	unknown := []string{}

	s.m.RLock()
	cached := s.seen[scope]
	for _, k := range keys {
		if cached[k] {
			existing[k] = true
		} else {
			unknown = append(unknown, k)
		}
	}
	s.m.RUnlock()

	if len(unknown) == 0 {
		return existing, nil
	}

	stored := []string{}
	if err := s.db.Model(tableModel).Where("dedup_key IN ?", unknown).Pluck("dedup_key", &stored).Error; err != nil {
		return nil, errors.Wrap(ErrStoreFailure, err.Error())
	}

	s.markSeen(scope, stored)
	for _, k := range stored {
		existing[k] = true
	}

	return existing, nil
}

// InsertIgnoringDuplicates persists rows relying on the unique dedup_key
// index to drop races with concurrent runs. Returns how many rows were
// actually stored.
func (s *Store) InsertIgnoringDuplicates(rows interface{}, keys []string) (int64, error) {
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(rows)
	if res.Error != nil {
		return 0, errors.Wrap(ErrStoreFailure, res.Error.Error())
	}

	s.markSeen(cacheScope(rows), keys)

	return res.RowsAffected, nil
}
