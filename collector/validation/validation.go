// Package validation heuristically checks a fetched payload during
// admin-time source validation. It is intentionally not part of the
// ingestion path: there the parser itself is the arbiter.
package validation

import (
	"strings"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/model"
)

const (
	FormatRSS  = "rss"
	FormatAtom = "atom"
)

// Report is the outcome of validating one feed payload.
//
// AdvisoryFlags carry platform plausibility findings. They never fail the
// validation, only inform the admin.
type Report struct {
	Format        string   `json:"format"`
	ItemCount     int      `json:"itemCount"`
	AdvisoryFlags []string `json:"advisoryFlags"`
}

// ValidatePayload classifies payload as RSS or Atom and counts its items.
// Returns collector.ErrInvalidFormat when no feed marker is present.
func ValidatePayload(payload string, platform model.Platform) (*Report, error) {
	lower := strings.ToLower(payload)

	isRSS := strings.Contains(lower, "<rss") || strings.Contains(lower, "<channel>")
	isAtom := strings.Contains(lower, "<feed") || strings.Contains(lower, "<entry")
	if !isRSS && !isAtom {
		return nil, collector.ErrInvalidFormat
	}

	report := &Report{Format: FormatRSS}
	if !isRSS {
		report.Format = FormatAtom
	}

	// "</item>" and "</entry>" do not match "<item" / "<entry", so closing
	// tags are not double counted.
	report.ItemCount = strings.Count(lower, "<item") + strings.Count(lower, "<entry")

	advisors := []func(string, model.Platform) string{
		twitterAdvisory,
		youtubeAdvisory,
	}
	for _, advisor := range advisors {
		if flag := advisor(lower, platform); flag != "" {
			report.AdvisoryFlags = append(report.AdvisoryFlags, flag)
		}
	}

	return report, nil
}

// A twitter feed is served through an RSS bridge, but its entries should
// still reference a twitter domain or the bridge itself.
func twitterAdvisory(lowerPayload string, platform model.Platform) string {
	if platform != model.PlatformTwitter {
		return ""
	}
	for _, domain := range []string{"twitter.com", "x.com", "nitter"} {
		if strings.Contains(lowerPayload, domain) {
			return ""
		}
	}
	return "payload does not reference twitter.com, x.com or a known RSS bridge"
}

func youtubeAdvisory(lowerPayload string, platform model.Platform) string {
	if platform != model.PlatformYouTube && platform != model.PlatformIceage {
		return ""
	}
	if strings.Contains(lowerPayload, "yt:videoid") ||
		strings.Contains(lowerPayload, "xmlns:media") ||
		strings.Contains(lowerPayload, "<media:group") {
		return ""
	}
	return "payload has no video id marker or media namespace"
}
