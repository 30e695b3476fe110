package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDetailsMapsGenreObjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":           603,
			"title":        "The Matrix",
			"overview":     "A hacker learns the truth.",
			"release_date": "1999-03-31",
			"poster_path":  "/matrix.jpg",
			"vote_average": 8.2,
			"runtime":      136,
			"genres": []map[string]any{
				{"id": 28, "name": "Action"},
				{"id": 878, "name": "Science Fiction"},
			},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL("key", server.URL)
	ref, err := client.GetDetails(context.Background(), 603)
	require.NoError(t, err)

	assert.Equal(t, 603, ref.ID)
	assert.Equal(t, "The Matrix", ref.Title)
	assert.Equal(t, "/matrix.jpg", ref.PosterPath)
	assert.Equal(t, 136, ref.Runtime)
	assert.Equal(t, []int{28, 878}, ref.GenreIDs)
	assert.False(t, ref.Incomplete())
}

func TestSearchMoviesWithYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "heat", r.URL.Query().Get("query"))
		assert.Equal(t, "1995", r.URL.Query().Get("year"))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 949, "title": "Heat", "release_date": "1995-12-15"},
			},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL("key", server.URL)
	refs, err := client.SearchMovies(context.Background(), "heat", 1995)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, 949, refs[0].ID)
}

func TestFindByExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/find/tt0113277", r.URL.Path)
		assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
		json.NewEncoder(w).Encode(map[string]any{
			"movie_results": []map[string]any{{"id": 949, "title": "Heat"}},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClientWithBaseURL("key", server.URL)
	refs, err := client.FindByExternalID(context.Background(), "tt0113277", "imdb_id")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, 949, refs[0].ID)
}

func TestPosterURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/matrix.jpg", PosterURL("/matrix.jpg", ""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/matrix.jpg", PosterURL("/matrix.jpg", "w185"))
	assert.Empty(t, PosterURL("", "w500"))
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, 1995, ExtractYear("1995-12-15"))
	assert.Equal(t, 0, ExtractYear(""))
	assert.Equal(t, 0, ExtractYear("not-a-date"))
}
