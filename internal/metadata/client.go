// Package metadata is the client for the TMDB API, the enrichment provider
// that fills in descriptive movie fields. Lookups are idempotent and keyed
// by the external numeric id.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"watchlog/internal/types"
)

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type searchResponse struct {
	Page         int           `json:"page"`
	Results      []movieRecord `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type movieRecord struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

type movieDetails struct {
	movieRecord
	Runtime int `json:"runtime"`
	Genres  []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type findResponse struct {
	MovieResults []movieRecord `json:"movie_results"`
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.themoviedb.org/3",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params map[string]string) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	query := u.Query()
	query.Set("api_key", c.apiKey)
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}

// GetDetails fetches the full record for a movie by TMDB id.
func (c *Client) GetDetails(ctx context.Context, tmdbID int) (types.MovieRef, error) {
	resp, err := c.makeRequest(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil)
	if err != nil {
		return types.MovieRef{}, fmt.Errorf("movie details request failed: %w", err)
	}
	defer resp.Body.Close()

	var details movieDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return types.MovieRef{}, fmt.Errorf("failed to decode movie details: %w", err)
	}

	ref := toMovieRef(details.movieRecord)
	ref.Runtime = details.Runtime
	// Detail responses carry expanded genre objects instead of genre_ids.
	if len(ref.GenreIDs) == 0 && len(details.Genres) > 0 {
		ids := make([]int, len(details.Genres))
		for i, g := range details.Genres {
			ids[i] = g.ID
		}
		ref.GenreIDs = ids
	}

	return ref, nil
}

// SearchMovies searches by title, optionally constrained to a release year.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]types.MovieRef, error) {
	params := map[string]string{"query": query}
	if year > 0 {
		params["year"] = strconv.Itoa(year)
	}

	resp, err := c.makeRequest(ctx, "/search/movie", params)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	refs := make([]types.MovieRef, 0, len(searchResp.Results))
	for _, rec := range searchResp.Results {
		refs = append(refs, toMovieRef(rec))
	}
	return refs, nil
}

// FindByExternalID resolves an external id (e.g. an IMDb tt id) to TMDB
// movie records via the find API.
func (c *Client) FindByExternalID(ctx context.Context, externalID, source string) ([]types.MovieRef, error) {
	params := map[string]string{"external_source": source}

	resp, err := c.makeRequest(ctx, "/find/"+url.PathEscape(externalID), params)
	if err != nil {
		return nil, fmt.Errorf("find request failed: %w", err)
	}
	defer resp.Body.Close()

	var findResp findResponse
	if err := json.NewDecoder(resp.Body).Decode(&findResp); err != nil {
		return nil, fmt.Errorf("failed to decode find response: %w", err)
	}

	refs := make([]types.MovieRef, 0, len(findResp.MovieResults))
	for _, rec := range findResp.MovieResults {
		refs = append(refs, toMovieRef(rec))
	}
	return refs, nil
}

func toMovieRef(rec movieRecord) types.MovieRef {
	ref := types.MovieRef{
		ID:          rec.ID,
		Title:       rec.Title,
		Overview:    rec.Overview,
		ReleaseDate: rec.ReleaseDate,
		VoteAverage: rec.VoteAverage,
		GenreIDs:    rec.GenreIDs,
	}
	if rec.PosterPath != nil {
		ref.PosterPath = *rec.PosterPath
	}
	return ref
}

// PosterURL generates the full URL for a poster path.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("https://image.tmdb.org/t/p/%s%s", size, posterPath)
}

// ExtractYear pulls the year out of a TMDB release date (YYYY-MM-DD).
func ExtractYear(releaseDate string) int {
	parts := strings.Split(releaseDate, "-")
	if len(parts) == 0 {
		return 0
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return year
}
