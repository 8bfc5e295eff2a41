// Package orchestrator drives one scrape run across the active source set.
// Per-source pipelines (fetch, normalize, dedup, store) run under a bounded
// worker pool; failures are captured per source and never abort the run.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/collector/normalizer"
	"github.com/takumi-dev/polifeed/dedup"
	"github.com/takumi-dev/polifeed/model"
	"github.com/takumi-dev/polifeed/publisher"
	"github.com/takumi-dev/polifeed/registry"
	Logger "github.com/takumi-dev/polifeed/utils/log"
)

// DefaultMaxConcurrency bounds how many sources are scraped in parallel,
// to respect third-party rate limits and not overwhelm the shared store.
const DefaultMaxConcurrency = 4

// FanoutTrigger projects freshly stored items into user timelines at the
// end of a full run.
type FanoutTrigger interface {
	FanoutNewItems(newsIDs, eventIDs, snsIDs []string) (*publisher.FanoutResult, error)
}

type Orchestrator struct {
	DB       *gorm.DB
	Registry *registry.Registry
	Store    *dedup.Store
	Fanout   FanoutTrigger
	Entries  EntryCollector

	// Bus receives finished run results; nil disables publishing.
	Bus *gochannel.GoChannel

	MaxConcurrency int
}

func New(db *gorm.DB, bus *gochannel.GoChannel) *Orchestrator {
	return &Orchestrator{
		DB:             db,
		Registry:       registry.New(db),
		Store:          dedup.NewStore(db),
		Fanout:         publisher.NewFanoutEngine(db),
		Entries:        NewFeedEntryCollector(),
		Bus:            bus,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// Run executes one scrape run. It always returns a result: partial success
// is the normal mode of operation, and "success: false" means no category
// produced anything usable.
func (o *Orchestrator) Run(ctx context.Context, runType RunType) *RunResult {
	result := &RunResult{RunType: runType, StartedAt: time.Now()}

	var newNews, newEvents, newSNS []string
	summaries := []string{}
	succeeded := 0

	runCategory := func(category model.SourceCategory) *categoryOutcome {
		outcome := o.collectCategory(ctx, category)
		result.SourceErrors = append(result.SourceErrors, outcome.errors...)
		if outcome.succeeded() {
			succeeded++
		}
		return outcome
	}

	if runType == RunNews || runType == RunAll {
		outcome := runCategory(model.CategoryNews)
		result.NewsCount = outcome.newCount
		newNews = outcome.newIDs
		summaries = append(summaries, outcome.summary("news"))
	}
	if runType == RunEvents || runType == RunAll {
		outcome := runCategory(model.CategoryEvents)
		result.EventsCount = outcome.newCount
		newEvents = outcome.newIDs
		summaries = append(summaries, outcome.summary("events"))
	}
	if runType == RunSNS || runType == RunAll {
		outcome := runCategory(model.CategorySNS)
		result.OfficialSNSCount = outcome.officialCount
		result.PrefSNSCount = outcome.prefCount
		result.SNSTotal = outcome.newCount
		newSNS = outcome.newIDs
		summaries = append(summaries, outcome.snsSummary())
	}

	result.Success = succeeded > 0

	// Fan-out runs exactly once, at the end of a full run. Its failure is
	// downgraded to a warning: ingestion already succeeded.
	if runType == RunAll {
		fanoutResult, err := o.Fanout.FanoutNewItems(newNews, newEvents, newSNS)
		if err != nil {
			warning := "fan-out failed: " + err.Error()
			result.Warnings = append(result.Warnings, warning)
			Logger.Log.Error(warning)
		} else {
			result.TimelineRows = fanoutResult.NewsEntries + fanoutResult.EventEntries + fanoutResult.SNSEntries
			summaries = append(summaries, fmt.Sprintf("fan-out: %d timeline rows", result.TimelineRows))
		}
	}

	if len(result.SourceErrors) > 0 {
		summaries = append(summaries, fmt.Sprintf("%d source errors recorded", len(result.SourceErrors)))
	}
	result.Message = strings.Join(summaries, "; ")
	result.FinishedAt = time.Now()

	o.publishResult(result)
	Logger.Log.Infof("run %s finished: %s", runType, result.Message)
	return result
}

// collectCategory scrapes every active source of one category under the
// bounded worker pool and aggregates the outcomes.
func (o *Orchestrator) collectCategory(ctx context.Context, category model.SourceCategory) *categoryOutcome {
	outcome := &categoryOutcome{}

	sources, err := o.Registry.List(registry.ListFilter{Category: category, ActiveOnly: true})
	if err != nil {
		outcome.attempted = 1
		outcome.failed = 1
		outcome.errors = append(outcome.errors, string(category)+": cannot list sources: "+err.Error())
		return outcome
	}
	outcome.attempted = len(sources)
	if len(sources) == 0 {
		return outcome
	}

	results := make([]sourceOutcome, len(sources))
	sem := make(chan struct{}, o.maxConcurrency())
	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = o.processSource(ctx, category, &sources[i])
		}(i)
	}
	wg.Wait()

	for i := range results {
		r := &results[i]
		if r.err != nil {
			outcome.failed++
			outcome.errors = append(outcome.errors, r.source.Id+" ("+string(r.source.Platform)+"): "+r.err.Error())
		}
		outcome.newCount += r.newCount
		outcome.newIDs = append(outcome.newIDs, r.newIDs...)
		if r.source.Scope == model.ScopePrefecture {
			outcome.prefCount += r.newCount
		} else {
			outcome.officialCount += r.newCount
		}
	}
	return outcome
}

type sourceOutcome struct {
	source   model.SourceConfig
	newCount int64
	newIDs   []string
	err      error
}

// processSource runs one source through fetch, normalize, dedup and store.
// A store failure fails this source closed; everything it may have already
// written stays guarded by the dedup index.
func (o *Orchestrator) processSource(ctx context.Context, category model.SourceCategory, src *model.SourceConfig) sourceOutcome {
	out := sourceOutcome{source: *src}

	entries, err := o.Entries.Collect(ctx, src)
	if err != nil {
		out.err = err
		return out
	}

	candidates := make([]*normalizer.Post, 0, len(entries))
	for _, entry := range entries {
		post, err := normalizer.Normalize(entry, src)
		if err != nil {
			if errors.Is(err, collector.ErrSkipEntry) {
				Logger.Log.Debugf("skipping entry from %s: %v", src.Id, err)
				continue
			}
			out.err = err
			return out
		}
		candidates = append(candidates, post)
	}

	switch category {
	case model.CategoryNews:
		out.newCount, out.newIDs, out.err = o.storeNews(src, candidates)
	case model.CategoryEvents:
		out.newCount, out.newIDs, out.err = o.storeEvents(src, candidates)
	default:
		out.newCount, out.newIDs, out.err = o.storeSNSPosts(src, candidates)
	}
	return out
}

func (o *Orchestrator) storeNews(src *model.SourceConfig, candidates []*normalizer.Post) (int64, []string, error) {
	fresh, err := o.Store.FilterNew(&model.NewsItem{}, candidates)
	if err != nil || len(fresh) == 0 {
		return 0, nil, err
	}

	rows := make([]model.NewsItem, 0, len(fresh))
	keys := make([]string, 0, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, p := range fresh {
		id := uuid.New().String()
		rows = append(rows, model.NewsItem{
			Id:             id,
			DedupKey:       p.DedupKey,
			SourceConfigID: src.Id,
			Platform:       p.Platform,
			Title:          p.Title,
			Content:        p.Content,
			PostUrl:        p.PostUrl,
			ThumbnailUrl:   p.ThumbnailUrl,
			MediaUrls:      model.StringSetJSON(p.MediaUrls),
			Prefecture:     prefectureFor(src),
			PublishedAt:    p.PublishedAt,
		})
		keys = append(keys, p.DedupKey)
		ids = append(ids, id)
	}

	stored, err := o.Store.InsertIgnoringDuplicates(&rows, keys)
	return stored, ids, err
}

func (o *Orchestrator) storeEvents(src *model.SourceConfig, candidates []*normalizer.Post) (int64, []string, error) {
	fresh, err := o.Store.FilterNew(&model.Event{}, candidates)
	if err != nil || len(fresh) == 0 {
		return 0, nil, err
	}

	rows := make([]model.Event, 0, len(fresh))
	keys := make([]string, 0, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, p := range fresh {
		id := uuid.New().String()
		rows = append(rows, model.Event{
			Id:             id,
			DedupKey:       p.DedupKey,
			SourceConfigID: src.Id,
			Platform:       p.Platform,
			Title:          p.Title,
			Content:        p.Content,
			Category:       p.Category,
			Prefecture:     prefectureFor(src),
			PostUrl:        p.PostUrl,
			ThumbnailUrl:   p.ThumbnailUrl,
			MediaUrls:      model.StringSetJSON(p.MediaUrls),
			PublishedAt:    p.PublishedAt,
		})
		keys = append(keys, p.DedupKey)
		ids = append(ids, id)
	}

	stored, err := o.Store.InsertIgnoringDuplicates(&rows, keys)
	return stored, ids, err
}

func (o *Orchestrator) storeSNSPosts(src *model.SourceConfig, candidates []*normalizer.Post) (int64, []string, error) {
	fresh, err := o.Store.FilterNew(&model.SNSPost{}, candidates)
	if err != nil || len(fresh) == 0 {
		return 0, nil, err
	}

	rows := make([]model.SNSPost, 0, len(fresh))
	keys := make([]string, 0, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, p := range fresh {
		id := uuid.New().String()
		rows = append(rows, model.SNSPost{
			Id:              id,
			DedupKey:        p.DedupKey,
			SourceConfigID:  src.Id,
			Scope:           src.Scope,
			OwnerID:         src.OwnerID,
			Platform:        p.Platform,
			Content:         p.Content,
			PostUrl:         p.PostUrl,
			ThumbnailUrl:    p.ThumbnailUrl,
			MediaUrls:       model.StringSetJSON(p.MediaUrls),
			Hashtags:        strings.Join(p.Hashtags, ","),
			Mentions:        strings.Join(p.Mentions, ","),
			EngagementCount: p.EngagementCount,
			Prefecture:      prefectureFor(src),
			PublishedAt:     p.PublishedAt,
		})
		keys = append(keys, p.DedupKey)
		ids = append(ids, id)
	}

	stored, err := o.Store.InsertIgnoringDuplicates(&rows, keys)
	return stored, ids, err
}

// prefectureFor resolves the prefecture code items from this source carry.
// For prefectural branches the owning entity reference is the prefecture
// code; everything else applies nationwide.
func prefectureFor(src *model.SourceConfig) string {
	if src.Scope == model.ScopePrefecture && src.OwnerID != nil {
		return *src.OwnerID
	}
	return model.NationwidePrefecture
}

func (o *Orchestrator) maxConcurrency() int {
	if o.MaxConcurrency > 0 {
		return o.MaxConcurrency
	}
	return DefaultMaxConcurrency
}
