package state

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchlog/internal/authority"
	"watchlog/internal/cache"
	"watchlog/internal/types"
)

// fakeAuthority is a programmable backend double. Zero value accepts every
// operation.
type fakeAuthority struct {
	mu sync.Mutex

	addErr    error
	removeErr error
	moveErr   error
	reviewErr error

	serverLists map[types.ListType][]types.MovieRef
	listErr     error
	reviews     []types.Review
	reviewsErr  error
	friends     []types.Friend
	friendsErr  error
	requests    []types.FriendRequest
	rawActivity []authority.RawActivity
	activityErr error
	feedRaw     []authority.RawActivity
	feedErr     error

	calls []string
}

func (f *fakeAuthority) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAuthority) AddToList(ctx context.Context, movie types.MovieRef, list types.ListType) error {
	f.record("add %d %s", movie.ID, list)
	return f.addErr
}

func (f *fakeAuthority) RemoveFromList(ctx context.Context, movieID int, list types.ListType) error {
	f.record("remove %d %s", movieID, list)
	return f.removeErr
}

func (f *fakeAuthority) MoveToList(ctx context.Context, movieID int, from, to types.ListType) error {
	f.record("move %d %s %s", movieID, from, to)
	return f.moveErr
}

func (f *fakeAuthority) AddReview(ctx context.Context, review types.Review) (*types.Review, error) {
	f.record("review %d", review.MovieID)
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	return &review, nil
}

func (f *fakeAuthority) GetUserList(ctx context.Context, list types.ListType) ([]types.MovieRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.serverLists[list], nil
}

func (f *fakeAuthority) GetUserReviews(ctx context.Context, userID string) ([]types.Review, error) {
	return f.reviews, f.reviewsErr
}

func (f *fakeAuthority) GetFriends(ctx context.Context, userID string) ([]types.Friend, error) {
	return f.friends, f.friendsErr
}

func (f *fakeAuthority) GetFriendRequests(ctx context.Context) ([]types.FriendRequest, error) {
	return f.requests, nil
}

func (f *fakeAuthority) GetUserActivity(ctx context.Context, userID string) ([]authority.RawActivity, error) {
	return f.rawActivity, f.activityErr
}

func (f *fakeAuthority) GetActivity(ctx context.Context) ([]authority.RawActivity, error) {
	return f.feedRaw, f.feedErr
}

func (f *fakeAuthority) SendFriendRequest(ctx context.Context, userID string) error  { return nil }
func (f *fakeAuthority) AcceptFriendRequest(ctx context.Context, id string) error    { return nil }
func (f *fakeAuthority) RejectFriendRequest(ctx context.Context, id string) error    { return nil }
func (f *fakeAuthority) RemoveFriend(ctx context.Context, userID string) error       { return nil }
func (f *fakeAuthority) MarkMessagesAsRead(ctx context.Context, userID string) error { return nil }
func (f *fakeAuthority) GetUnreadCount(ctx context.Context) (int, error)             { return 0, nil }

func (f *fakeAuthority) SendMessage(ctx context.Context, recipientID, text string) (*types.Message, error) {
	return &types.Message{ID: "m1", RecipientID: recipientID, Text: text}, nil
}

func (f *fakeAuthority) GetConversation(ctx context.Context, userID string) ([]types.Message, error) {
	return nil, nil
}

func (f *fakeAuthority) ShareMovie(ctx context.Context, recipientID string, movie types.MovieRef) (*types.Message, error) {
	f.record("share %d", movie.ID)
	return &types.Message{ID: "m2", RecipientID: recipientID, MovieID: movie.ID}, nil
}

// fakeEnricher serves canned details per movie id.
type fakeEnricher struct {
	mu      sync.Mutex
	details map[int]types.MovieRef
	errs    map[int]error
	fetched []int
}

func (f *fakeEnricher) GetDetails(ctx context.Context, tmdbID int) (types.MovieRef, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, tmdbID)
	f.mu.Unlock()
	if err := f.errs[tmdbID]; err != nil {
		return types.MovieRef{}, err
	}
	if ref, ok := f.details[tmdbID]; ok {
		return ref, nil
	}
	return types.MovieRef{}, fmt.Errorf("no details for %d", tmdbID)
}

const testUserID = "auth0|tester"

func newTestProvider(t *testing.T, auth *fakeAuthority) *Provider {
	t.Helper()
	store, err := cache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := NewProvider(Session{UserID: testUserID}, auth, &fakeEnricher{}, store, zap.NewNop())
	p.phase = PhaseReady
	return p
}

func seedList(p *Provider, list types.ListType, movies ...types.MovieRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists[list] = movies
}

func listIDs(p *Provider, list types.ListType) []int {
	var ids []int
	for _, m := range p.List(list) {
		ids = append(ids, m.ID)
	}
	return ids
}
