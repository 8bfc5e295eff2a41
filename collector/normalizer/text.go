package normalizer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)
)

// stripHTML renders markup down to its text. Plain text passes through
// unchanged.
func stripHTML(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.TrimSpace(doc.Text())
}

// imageUrls collects img sources embedded in an HTML fragment, in document
// order.
func imageUrls(raw string) []string {
	if !strings.Contains(raw, "<img") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	urls := []string{}
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

func extractHashtags(content string) []string {
	return uniqueMatches(hashtagPattern, content)
}

func extractMentions(content string) []string {
	return uniqueMatches(mentionPattern, content)
}

func uniqueMatches(pattern *regexp.Regexp, content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	out := []string{}
	seen := map[string]bool{}
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func uniqueStrings(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
