package authority

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchlog/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", 2*time.Second, zap.NewNop())
}

func TestAddToListSendsWireListName(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	err := client.AddToList(context.Background(), types.MovieRef{ID: 7, Title: "Heat"}, types.ListCurrentlyWatching)
	require.NoError(t, err)
	assert.Equal(t, "/api/lists/currently-watching/movies", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestAddToListConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":         "movie already in a list",
			"existing_list": "watched",
		})
	})

	err := client.AddToList(context.Background(), types.MovieRef{ID: 7}, types.ListWatchlist)
	require.Error(t, err)

	conflict, ok := IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, types.ListWatched, conflict.ExistingList)
}

func TestConflictWithHyphenatedListName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"existing_list": "currently-watching"})
	})

	err := client.AddToList(context.Background(), types.MovieRef{ID: 7}, types.ListWatchlist)
	conflict, ok := IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, types.ListCurrentlyWatching, conflict.ExistingList)
}

func TestRejectedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	})

	err := client.RemoveFromList(context.Background(), 7, types.ListWatched)
	require.Error(t, err)

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusInternalServerError, rejected.StatusCode)
	assert.Equal(t, "boom", rejected.Message)
}

func TestTimeoutClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "t", 20*time.Millisecond, zap.NewNop())
	err := client.AddToList(context.Background(), types.MovieRef{ID: 1}, types.ListWatchlist)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestNetworkClassification(t *testing.T) {
	// Nothing listens on this port.
	client := NewClient("http://127.0.0.1:1", "t", time.Second, zap.NewNop())
	_, err := client.GetUserList(context.Background(), types.ListWatched)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestGetUserList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lists/watched", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"movies": []types.MovieRef{{ID: 3, Title: "Ran"}, {ID: 9, Title: "Alien"}},
		})
	})

	movies, err := client.GetUserList(context.Background(), types.ListWatched)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Ran", movies[0].Title)
}

func TestGetUserActivityKeepsRawShapes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"activity": []map[string]any{
				{"type": "list", "action": "added_to_watchlist", "movieId": 7},
				{"record_type": "review", "movie": map[string]any{"tmdb_id": 5}},
			},
		})
	})

	raw, err := client.GetUserActivity(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "added_to_watchlist", raw[0]["action"])
	_, hasNested := raw[1]["movie"]
	assert.True(t, hasNested)
}

func TestMoveToList(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	err := client.MoveToList(context.Background(), 7, types.ListWatched, types.ListCurrentlyWatching)
	require.NoError(t, err)
	assert.Equal(t, "/api/lists/watched/movies/7/move", gotPath)
	assert.Equal(t, "currently-watching", gotBody["to"])
}

func TestGetUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"count": 4})
	})

	count, err := client.GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
