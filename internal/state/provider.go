// Package state is the application-state core: it owns the three watch
// lists, the review set, the social collections and the activity feed for
// the signed-in user. Mutations are applied optimistically, reconciled
// against the backend, and rolled back on failure; loaded state is cached
// per user so the next session starts from disk before the network answers.
package state

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"watchlog/internal/authority"
	"watchlog/internal/cache"
	"watchlog/internal/types"
)

// Authority is the backend contract the provider reconciles against.
type Authority interface {
	AddToList(ctx context.Context, movie types.MovieRef, list types.ListType) error
	RemoveFromList(ctx context.Context, movieID int, list types.ListType) error
	MoveToList(ctx context.Context, movieID int, from, to types.ListType) error
	AddReview(ctx context.Context, review types.Review) (*types.Review, error)
	GetUserList(ctx context.Context, list types.ListType) ([]types.MovieRef, error)
	GetUserReviews(ctx context.Context, userID string) ([]types.Review, error)
	GetFriends(ctx context.Context, userID string) ([]types.Friend, error)
	GetFriendRequests(ctx context.Context) ([]types.FriendRequest, error)
	GetUserActivity(ctx context.Context, userID string) ([]authority.RawActivity, error)
	GetActivity(ctx context.Context) ([]authority.RawActivity, error)
	SendFriendRequest(ctx context.Context, userID string) error
	AcceptFriendRequest(ctx context.Context, requestID string) error
	RejectFriendRequest(ctx context.Context, requestID string) error
	RemoveFriend(ctx context.Context, userID string) error
	SendMessage(ctx context.Context, recipientID, text string) (*types.Message, error)
	ShareMovie(ctx context.Context, recipientID string, movie types.MovieRef) (*types.Message, error)
	GetConversation(ctx context.Context, userID string) ([]types.Message, error)
	MarkMessagesAsRead(ctx context.Context, userID string) error
	GetUnreadCount(ctx context.Context) (int, error)
}

// Enricher fills in missing movie fields, keyed by external id.
type Enricher interface {
	GetDetails(ctx context.Context, tmdbID int) (types.MovieRef, error)
}

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseLoading         Phase = "loading"
	PhaseReady           Phase = "ready"
)

// Session is the identity the provider is scoped to. Every cache key and
// every mutation carries this user id.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// Provider holds all session state. The presentation layer reads snapshots
// and calls mutation methods; it never touches the collections directly.
type Provider struct {
	log       *zap.Logger
	authority Authority
	enricher  Enricher
	store     cache.Store
	session   Session

	mu       sync.Mutex
	phase    Phase
	lists    map[types.ListType][]types.MovieRef
	activity []types.ActivityRecord
	reviews  []types.Review
	friends  []types.Friend
	requests []types.FriendRequest
}

func NewProvider(session Session, auth Authority, enricher Enricher, store cache.Store, log *zap.Logger) *Provider {
	return &Provider{
		log:       log.Named("state"),
		authority: auth,
		enricher:  enricher,
		store:     store,
		session:   session,
		phase:     PhaseUnauthenticated,
		lists:     emptyLists(),
	}
}

func emptyLists() map[types.ListType][]types.MovieRef {
	lists := make(map[types.ListType][]types.MovieRef, 3)
	for _, l := range types.AllLists() {
		lists[l] = nil
	}
	return lists
}

// Phase returns the current lifecycle phase.
func (p *Provider) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// List returns a snapshot of one list.
func (p *Provider) List(list types.ListType) []types.MovieRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.MovieRef(nil), p.lists[list]...)
}

// Activity returns a snapshot of the merged feed.
func (p *Provider) Activity() []types.ActivityRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.ActivityRecord(nil), p.activity...)
}

// Reviews returns a snapshot of the user's reviews.
func (p *Provider) Reviews() []types.Review {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Review(nil), p.reviews...)
}

// Friends returns a snapshot of the friend list.
func (p *Provider) Friends() []types.Friend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Friend(nil), p.friends...)
}

// FriendRequests returns a snapshot of pending incoming requests.
func (p *Provider) FriendRequests() []types.FriendRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.FriendRequest(nil), p.requests...)
}

// Load runs the full load sequence: cached snapshot first for instant data,
// then concurrent canonical fetches where each category fails independently,
// then enrichment, then a cache write-back. Safe to call again while a
// previous load is in flight; the later completion wins.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	p.phase = PhaseLoading
	p.mu.Unlock()

	// The pre-namespacing key must never survive a load, whoever wrote it.
	if err := p.store.Remove(ctx, cache.LegacyUnscopedKey); err != nil {
		p.log.Warn("failed to purge legacy cache key", zap.Error(err))
	}

	p.loadFromCache(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.fetchLists(gctx)
		return nil
	})
	g.Go(func() error {
		p.fetchReviews(gctx)
		return nil
	})
	g.Go(func() error {
		p.fetchSocial(gctx)
		return nil
	})
	g.Go(func() error {
		p.fetchActivity(gctx)
		return nil
	})

	// Category goroutines swallow their own errors; partial data is fine.
	_ = g.Wait()

	p.enrichLists(ctx)
	p.persist(ctx)

	p.mu.Lock()
	p.phase = PhaseReady
	p.mu.Unlock()

	return nil
}

// Refresh re-runs the full load sequence.
func (p *Provider) Refresh(ctx context.Context) error {
	return p.Load(ctx)
}

// SignOut clears in-memory state. The persisted cache for this user is left
// intact so a later sign-in fast-loads before the network responds.
func (p *Provider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseUnauthenticated
	p.lists = emptyLists()
	p.activity = nil
	p.reviews = nil
	p.friends = nil
	p.requests = nil
}

// loadFromCache restores the last persisted snapshot. Reads happen once per
// load; in-memory state is authoritative afterwards.
func (p *Provider) loadFromCache(ctx context.Context) {
	lists := emptyLists()
	for list, name := range listCacheNames() {
		var movies []types.MovieRef
		if p.readCached(ctx, name, &movies) {
			lists[list] = movies
		}
	}

	var activity []types.ActivityRecord
	p.readCached(ctx, cache.KeyActivity, &activity)

	var reviews []types.Review
	p.readCached(ctx, cache.KeyReviews, &reviews)

	p.mu.Lock()
	p.lists = lists
	if activity != nil {
		p.activity = activity
	}
	if reviews != nil {
		p.reviews = reviews
	}
	p.mu.Unlock()
}

func (p *Provider) readCached(ctx context.Context, name string, out any) bool {
	raw, ok, err := p.store.Get(ctx, cache.Key(p.session.UserID, name))
	if err != nil {
		p.log.Warn("cache read failed", zap.String("key", name), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		p.log.Warn("cache entry corrupt, ignoring", zap.String("key", name), zap.Error(err))
		return false
	}
	return true
}

func (p *Provider) fetchLists(ctx context.Context) {
	for _, list := range types.AllLists() {
		movies, err := p.authority.GetUserList(ctx, list)
		if err != nil {
			p.log.Warn("list fetch failed, keeping cached data",
				zap.String("list", string(list)), zap.Error(err))
			continue
		}
		p.mu.Lock()
		p.lists[list] = movies
		p.mu.Unlock()
	}
}

func (p *Provider) fetchReviews(ctx context.Context) {
	reviews, err := p.authority.GetUserReviews(ctx, p.session.UserID)
	if err != nil {
		p.log.Warn("review fetch failed", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.reviews = reviews
	p.mu.Unlock()
}

func (p *Provider) fetchSocial(ctx context.Context) {
	friends, err := p.authority.GetFriends(ctx, p.session.UserID)
	if err != nil {
		p.log.Warn("friend fetch failed", zap.Error(err))
	} else {
		p.mu.Lock()
		p.friends = friends
		p.mu.Unlock()
	}

	requests, err := p.authority.GetFriendRequests(ctx)
	if err != nil {
		p.log.Warn("friend request fetch failed", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.requests = requests
	p.mu.Unlock()
}

func (p *Provider) fetchActivity(ctx context.Context) {
	raw, err := p.authority.GetUserActivity(ctx, p.session.UserID)
	if err != nil {
		p.log.Warn("user activity fetch failed, trying friends feed", zap.Error(err))
		raw, err = p.authority.GetActivity(ctx)
		if err != nil {
			p.log.Warn("activity fetch failed, keeping cached feed", zap.Error(err))
			return
		}
	}

	remote := NormalizeAll(raw, p.session.UserID)

	p.mu.Lock()
	p.activity = MergeActivity(p.activity, remote)
	p.mu.Unlock()
}

func listCacheNames() map[types.ListType]string {
	return map[types.ListType]string{
		types.ListWatchlist:         cache.KeyWatchlist,
		types.ListCurrentlyWatching: cache.KeyCurrentlyWatching,
		types.ListWatched:           cache.KeyWatched,
	}
}

// persist writes the full snapshot back to the cache store. Full overwrite,
// not an append log.
func (p *Provider) persist(ctx context.Context) {
	p.mu.Lock()
	pairs := make([][2]string, 0, 5)
	for list, name := range listCacheNames() {
		pairs = appendCachePair(pairs, p.session.UserID, name, p.lists[list], p.log)
	}
	pairs = appendCachePair(pairs, p.session.UserID, cache.KeyActivity, p.activity, p.log)
	pairs = appendCachePair(pairs, p.session.UserID, cache.KeyReviews, p.reviews, p.log)
	p.mu.Unlock()

	if err := p.store.MultiSet(ctx, pairs); err != nil {
		p.log.Warn("cache write failed", zap.Error(err))
	}
}

func appendCachePair(pairs [][2]string, userID, name string, value any, log *zap.Logger) [][2]string {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn("failed to serialize cache entry", zap.String("key", name), zap.Error(err))
		return pairs
	}
	return append(pairs, [2]string{cache.Key(userID, name), string(raw)})
}
