package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/takumi-dev/polifeed/model"
)

// Key derives the deduplication identifier from platform and post URL.
// URL identity is the primary strategy: two fetches of the same post yield
// the same key across arbitrarily repeated runs.
func Key(platform model.Platform, postUrl string) string {
	sum := sha256.Sum256([]byte(string(platform) + "|" + postUrl))
	return hex.EncodeToString(sum[:])
}

// ContentFingerprint is the fallback for platforms whose URLs are unstable,
// such as redirect-wrapped bridge links. Content plus publication time pins
// the post instead of its link.
func ContentFingerprint(platform model.Platform, content string, publishedAt time.Time) string {
	sum := sha256.Sum256([]byte(string(platform) + "|" + content + "|" + publishedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}
