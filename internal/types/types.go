package types

import (
	"strings"
	"time"
)

// ListType identifies one of the three mutually exclusive watch lists.
// The canonical representation is underscored; the backend API speaks
// hyphenated names, converted at the client boundary.
type ListType string

const (
	ListWatchlist         ListType = "watchlist"
	ListCurrentlyWatching ListType = "currently_watching"
	ListWatched           ListType = "watched"
)

// AllLists returns the three list types in a stable order.
func AllLists() []ListType {
	return []ListType{ListWatchlist, ListCurrentlyWatching, ListWatched}
}

// ParseListType normalizes either textual convention (hyphenated or
// underscored) to the canonical form. Returns false for unknown names.
func ParseListType(s string) (ListType, bool) {
	switch ListType(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case ListWatchlist:
		return ListWatchlist, true
	case ListCurrentlyWatching:
		return ListCurrentlyWatching, true
	case ListWatched:
		return ListWatched, true
	}
	return "", false
}

// Wire returns the hyphenated form used by the backend API.
func (l ListType) Wire() string {
	return strings.ReplaceAll(string(l), "_", "-")
}

// Valid reports whether l is one of the three known lists.
func (l ListType) Valid() bool {
	_, ok := ParseListType(string(l))
	return ok
}

// MovieRef is the denormalized movie/show record carried in lists and
// activity. Keyed by TMDB id. Fields are progressively filled in by
// enrichment; a zero value means "not known yet".
type MovieRef struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
	Runtime     int     `json:"runtime,omitempty"`
}

// Incomplete reports whether the record still needs enrichment.
func (m MovieRef) Incomplete() bool {
	return m.Overview == "" || m.VoteAverage == 0 || m.PosterPath == "" ||
		m.ReleaseDate == "" || len(m.GenreIDs) == 0
}

// Review is a user's single review of a movie. A second submission for the
// same movie is an edit that replaces rating, comment and tags wholesale.
type Review struct {
	UserID     string    `json:"user_id"`
	MovieID    int       `json:"movie_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Tags       []string  `json:"tags,omitempty"`
	Rewatched  bool      `json:"rewatched"`
	Spoilers   bool      `json:"spoilers"`
	Visibility string    `json:"visibility"`
	Movie      MovieRef  `json:"movie"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ActivityType tags the canonical activity record shape.
type ActivityType string

const (
	ActivityList       ActivityType = "list"
	ActivityReview     ActivityType = "review"
	ActivityPost       ActivityType = "post"
	ActivityMovieShare ActivityType = "movie_share"
	ActivityUnknown    ActivityType = "unknown"
)

// ActivityRecord is the canonical feed entry. Records are produced locally
// after a successful mutation or normalized from heterogeneous remote
// shapes; after normalization they are never mutated, only replaced during
// deduplication or pruned from the bounded window.
type ActivityRecord struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Action      string       `json:"action"`
	MovieID     int          `json:"movie_id,omitempty"`
	MovieTitle  string       `json:"movie_title,omitempty"`
	MoviePoster string       `json:"movie_poster,omitempty"`
	UserID      string       `json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	List        ListType     `json:"list,omitempty"`
	Rating      int          `json:"rating,omitempty"`
	Comment     string       `json:"comment,omitempty"`
}

// Friend is a confirmed relationship, sourced entirely from the backend.
type Friend struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Since     time.Time `json:"since"`
}

// FriendRequest is a pending incoming request.
type FriendRequest struct {
	ID           string    `json:"id"`
	FromUserID   string    `json:"from_user_id"`
	FromUsername string    `json:"from_username"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is a direct message between two users. MovieID is set when the
// message shares a movie.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text,omitempty"`
	MovieID     int       `json:"movie_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}
