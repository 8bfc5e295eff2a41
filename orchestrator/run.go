package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// RunType selects which ingestion categories one run covers.
type RunType string

const (
	RunNews   RunType = "news"
	RunEvents RunType = "events"
	RunSNS    RunType = "sns"
	RunAll    RunType = "all"
)

// ParseRunType maps a caller-provided selector onto a run type. Unknown or
// omitted selectors default to a full run.
func ParseRunType(s string) RunType {
	switch RunType(strings.ToLower(strings.TrimSpace(s))) {
	case RunNews:
		return RunNews
	case RunEvents:
		return RunEvents
	case RunSNS:
		return RunSNS
	default:
		return RunAll
	}
}

// RunResult is the structured outcome of one scrape run. Success is true
// when at least one category succeeded; per-source failures never flip it
// on their own, and a failed fan-out only lands in Warnings because
// ingestion is the primary objective.
type RunResult struct {
	RunType          RunType   `json:"runType"`
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	NewsCount        int64     `json:"newsCount"`
	EventsCount      int64     `json:"eventsCount"`
	OfficialSNSCount int64     `json:"officialSnsCount"`
	PrefSNSCount     int64     `json:"prefSnsCount"`
	SNSTotal         int64     `json:"snsTotal"`
	TimelineRows     int64     `json:"timelineRows"`
	SourceErrors     []string  `json:"sourceErrors,omitempty"`
	Warnings         []string  `json:"warnings,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
}

// categoryOutcome aggregates one category's source outcomes within a run.
type categoryOutcome struct {
	attempted     int
	failed        int
	newCount      int64
	officialCount int64
	prefCount     int64
	newIDs        []string
	errors        []string
}

// succeeded is true when the category had nothing to do or at least one
// source contributed without error.
func (c *categoryOutcome) succeeded() bool {
	return c.attempted == 0 || c.failed < c.attempted
}

func (c *categoryOutcome) summary(name string) string {
	if c.attempted == 0 {
		return fmt.Sprintf("%s: no active sources", name)
	}
	return fmt.Sprintf("%s: %d new items from %d sources (%d failed)", name, c.newCount, c.attempted, c.failed)
}

func (c *categoryOutcome) snsSummary() string {
	if c.attempted == 0 {
		return "sns: no active sources"
	}
	return fmt.Sprintf("sns: official %d + prefectural %d = %d new posts (%d of %d sources failed)",
		c.officialCount, c.prefCount, c.newCount, c.failed, c.attempted)
}
