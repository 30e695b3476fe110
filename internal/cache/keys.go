package cache

import "fmt"

// Logical key names stored under each user's namespace.
const (
	KeyWatchlist         = "watchlist"
	KeyCurrentlyWatching = "currently_watching"
	KeyWatched           = "watched"
	KeyActivity          = "activity"
	KeyReviews           = "reviews"
)

// LegacyUnscopedKey predates per-user namespacing. It is purged on every
// load so data written by one account can never leak into another.
const LegacyUnscopedKey = "userData"

// Key builds the namespaced cache key for a user and logical name.
func Key(userID, name string) string {
	return fmt.Sprintf("%s_%s", userID, name)
}
