package state

import (
	"time"

	"watchlog/internal/authority"
	"watchlog/internal/types"
)

// The backend feed mixes record generations: snake_case and camelCase field
// names, movie data flattened or nested under "movie"/"show". This file is
// the single place those shapes are decoded; everything past NormalizeAll
// sees only the canonical ActivityRecord.

// fillerTypes are non-content padding rows some feed endpoints emit. They
// are dropped unconditionally.
var fillerTypes = map[string]bool{
	"filler":      true,
	"placeholder": true,
	"spacer":      true,
	"ad":          true,
}

// NormalizeAll decodes a batch of raw records, dropping fillers.
// defaultUserID is assumed for records that do not name their author (the
// per-user feed omits it).
func NormalizeAll(raw []authority.RawActivity, defaultUserID string) []types.ActivityRecord {
	records := make([]types.ActivityRecord, 0, len(raw))
	for _, r := range raw {
		if rec, ok := Normalize(r, defaultUserID); ok {
			records = append(records, rec)
		}
	}
	return records
}

// Normalize maps one raw record onto the canonical shape. Returns ok=false
// for filler records; unrecognized types are kept as ActivityUnknown and
// left for the meaningfulness filter to judge.
func Normalize(raw authority.RawActivity, defaultUserID string) (types.ActivityRecord, bool) {
	rawType := strField(raw, "type", "record_type", "recordType", "kind")
	if fillerTypes[rawType] {
		return types.ActivityRecord{}, false
	}

	rec := types.ActivityRecord{
		ID:        strField(raw, "id", "activity_id", "activityId"),
		Type:      normalizeType(rawType),
		Action:    strField(raw, "action", "activity_action", "activityAction", "verb"),
		UserID:    strField(raw, "userId", "user_id", "author_id", "authorId"),
		CreatedAt: timeField(raw, "createdAt", "created_at", "timestamp", "time"),
		Comment:   strField(raw, "comment", "content", "text", "body"),
		Rating:    intField(raw, "rating", "score"),
		MovieID:   intField(raw, "movieId", "movie_id", "tmdbId", "tmdb_id"),
	}

	rec.MovieTitle = strField(raw, "movieTitle", "movie_title", "title")
	rec.MoviePoster = strField(raw, "moviePoster", "movie_poster", "poster", "poster_path", "posterPath")

	// Older records nest the movie under a sub-object.
	for _, key := range []string{"movie", "show", "media"} {
		nested, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		if rec.MovieID == 0 {
			rec.MovieID = intField(nested, "id", "tmdbId", "tmdb_id", "movieId", "movie_id")
		}
		if rec.MovieTitle == "" {
			rec.MovieTitle = strField(nested, "title", "name")
		}
		if rec.MoviePoster == "" {
			rec.MoviePoster = strField(nested, "poster", "poster_path", "posterPath", "poster_url", "posterUrl")
		}
	}

	if list, ok := types.ParseListType(strField(raw, "list", "list_type", "listType")); ok {
		rec.List = list
	}
	if rec.UserID == "" {
		rec.UserID = defaultUserID
	}

	return rec, true
}

func normalizeType(rawType string) types.ActivityType {
	switch types.ActivityType(rawType) {
	case types.ActivityList, types.ActivityReview, types.ActivityPost, types.ActivityMovieShare:
		return types.ActivityType(rawType)
	}
	switch rawType {
	case "list_update", "listUpdate":
		return types.ActivityList
	case "share", "movieShare":
		return types.ActivityMovieShare
	}
	return types.ActivityUnknown
}

func strField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// intField tolerates the number encodings encoding/json produces plus
// string-typed ids from the oldest records. The first key present with a
// numeric value wins, even when that value is an explicit zero; a later
// alias must never override it.
func intField(m map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			return atoi(v)
		}
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func timeField(m map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
				if t, err := time.Parse(layout, v); err == nil {
					return t
				}
			}
		case float64:
			if v > 0 {
				// Millisecond timestamps are the JS-era legacy encoding.
				if v > 1e12 {
					return time.UnixMilli(int64(v))
				}
				return time.Unix(int64(v), 0)
			}
		}
	}
	return time.Time{}
}
