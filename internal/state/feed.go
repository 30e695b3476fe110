package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"watchlog/internal/types"
)

// maxFeedSize bounds the merged feed; older records are pruned, not
// archived.
const maxFeedSize = 500

// Fingerprint derives the content-based dedup key for an activity record.
// Identity ids are useless here: the locally cached and the remotely
// fetched copy of the same event may carry different or no ids. Reviews
// ignore the timestamp entirely (one review per user per movie, and edit
// timestamps jitter between fetches); every other type rounds the
// timestamp to the nearest second.
func Fingerprint(rec types.ActivityRecord) string {
	var key string
	switch rec.Type {
	case types.ActivityReview:
		key = fmt.Sprintf("review|%s|%d|%s", rec.Action, rec.MovieID, rec.UserID)
	case types.ActivityPost:
		key = fmt.Sprintf("post|%s|%d|%s|%s|%d",
			rec.Action, rec.MovieID, rec.UserID, rec.Comment, roundedUnix(rec.CreatedAt))
	default:
		key = fmt.Sprintf("%s|%s|%d|%s|%d",
			rec.Type, rec.Action, rec.MovieID, rec.UserID, roundedUnix(rec.CreatedAt))
	}

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func roundedUnix(t time.Time) int64 {
	return t.Round(time.Second).Unix()
}

// MergeActivity combines previously known records with freshly fetched
// ones: dedup by fingerprint with the fresh side winning, strictly
// descending by creation time with stable tie order, non-renderable records
// dropped, bounded to the most recent maxFeedSize entries.
func MergeActivity(cached, fresh []types.ActivityRecord) []types.ActivityRecord {
	seen := make(map[string]int)
	merged := make([]types.ActivityRecord, 0, len(cached)+len(fresh))

	for _, rec := range cached {
		if !Meaningful(rec) {
			continue
		}
		fp := Fingerprint(rec)
		if i, dup := seen[fp]; dup {
			merged[i] = rec
			continue
		}
		seen[fp] = len(merged)
		merged = append(merged, rec)
	}

	// Fresh records replace cached ones on collision.
	for _, rec := range fresh {
		if !Meaningful(rec) {
			continue
		}
		fp := Fingerprint(rec)
		if i, dup := seen[fp]; dup {
			merged[i] = rec
			continue
		}
		seen[fp] = len(merged)
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > maxFeedSize {
		merged = merged[:maxFeedSize]
	}

	return merged
}

// Meaningful reports whether a record carries enough context to render.
// Keeps empty placeholder rows out of the feed.
func Meaningful(rec types.ActivityRecord) bool {
	if rec.Action == "" || rec.CreatedAt.IsZero() {
		return false
	}
	if rec.Type == types.ActivityList || rec.Type == types.ActivityReview {
		return rec.MovieTitle != "" || rec.MovieID != 0 || rec.MoviePoster != "" ||
			rec.Comment != "" || rec.Rating != 0
	}
	return true
}
