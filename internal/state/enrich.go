package state

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"watchlog/internal/types"
)

// enrichConcurrency caps parallel metadata-provider requests.
const enrichConcurrency = 4

// enrichLists backfills incomplete movie records across all three lists
// from the metadata provider. Fetches run in parallel and are isolated: a
// failed lookup leaves that movie as it was and never aborts the rest.
// Lists are rewritten in place afterwards, same membership, same positions.
func (p *Provider) enrichLists(ctx context.Context) {
	p.mu.Lock()
	pending := make(map[int]bool)
	for _, list := range types.AllLists() {
		for _, movie := range p.lists[list] {
			if movie.ID != 0 && movie.Incomplete() {
				pending[movie.ID] = true
			}
		}
	}
	p.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	var fetchedMu sync.Mutex
	fetched := make(map[int]types.MovieRef, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for id := range pending {
		id := id
		g.Go(func() error {
			details, err := p.enricher.GetDetails(gctx, id)
			if err != nil {
				p.log.Warn("enrichment failed, keeping existing record",
					zap.Int("movie_id", id), zap.Error(err))
				return nil
			}
			fetchedMu.Lock()
			fetched[id] = details
			fetchedMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(fetched) == 0 {
		return
	}

	p.mu.Lock()
	next := copyLists(p.lists)
	for _, list := range types.AllLists() {
		for i, movie := range next[list] {
			if details, ok := fetched[movie.ID]; ok {
				next[list][i] = mergeMovie(movie, details)
			}
		}
	}
	p.lists = next
	p.mu.Unlock()
}

// mergeMovie prefers freshly fetched values but never replaces a known
// field with an absent one.
func mergeMovie(prev, fresh types.MovieRef) types.MovieRef {
	merged := prev
	if fresh.Title != "" {
		merged.Title = fresh.Title
	}
	if fresh.Overview != "" {
		merged.Overview = fresh.Overview
	}
	if fresh.PosterPath != "" {
		merged.PosterPath = fresh.PosterPath
	}
	if fresh.ReleaseDate != "" {
		merged.ReleaseDate = fresh.ReleaseDate
	}
	if fresh.VoteAverage != 0 {
		merged.VoteAverage = fresh.VoteAverage
	}
	if len(fresh.GenreIDs) != 0 {
		merged.GenreIDs = fresh.GenreIDs
	}
	if fresh.Runtime != 0 {
		merged.Runtime = fresh.Runtime
	}
	return merged
}
