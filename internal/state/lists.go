package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchlog/internal/types"
)

// AddToList assigns movie to target. Adding a movie already on the target
// list is a no-op success; adding one assigned to a different list degrades
// to a move. A backend conflict (a race with another device) rolls the
// optimistic append back and surfaces the conflicting list so the caller
// can offer a move.
func (p *Provider) AddToList(ctx context.Context, movie types.MovieRef, target types.ListType) MutationResult {
	if movie.ID == 0 {
		return validationFailure(fmt.Errorf("movie is missing an id"))
	}
	if !target.Valid() {
		return validationFailure(fmt.Errorf("unknown list %q", target))
	}

	p.mu.Lock()
	current, _ := findMovie(p.lists, movie.ID)
	p.mu.Unlock()

	if current == target {
		return MutationResult{Success: true}
	}
	if current != "" {
		return p.MoveToList(ctx, movie.ID, current, target)
	}

	return p.runListMutation(ctx, listMutation{
		name: "add_to_" + string(target),
		apply: func(lists map[types.ListType][]types.MovieRef) {
			lists[target] = append(lists[target], movie)
		},
		call: func(ctx context.Context) error {
			return p.authority.AddToList(ctx, movie, target)
		},
		onCommit: func() {
			p.appendActivityLocked(types.ActivityRecord{
				ID:          uuid.NewString(),
				Type:        types.ActivityList,
				Action:      "added_to_" + string(target),
				MovieID:     movie.ID,
				MovieTitle:  movie.Title,
				MoviePoster: movie.PosterPath,
				UserID:      p.session.UserID,
				CreatedAt:   time.Now(),
				List:        target,
			})
		},
	})
}

// RemoveFromList takes movieID off list. The optimistic filter-out is
// restored if the authority refuses.
func (p *Provider) RemoveFromList(ctx context.Context, movieID int, list types.ListType) MutationResult {
	if movieID == 0 {
		return validationFailure(fmt.Errorf("movie is missing an id"))
	}
	if !list.Valid() {
		return validationFailure(fmt.Errorf("unknown list %q", list))
	}

	p.mu.Lock()
	movie, present := movieOnList(p.lists[list], movieID)
	p.mu.Unlock()
	if !present {
		return MutationResult{Success: true}
	}

	return p.runListMutation(ctx, listMutation{
		name: "remove_from_" + string(list),
		apply: func(lists map[types.ListType][]types.MovieRef) {
			lists[list] = withoutMovie(lists[list], movieID)
		},
		call: func(ctx context.Context) error {
			return p.authority.RemoveFromList(ctx, movieID, list)
		},
		onCommit: func() {
			p.appendActivityLocked(types.ActivityRecord{
				ID:          uuid.NewString(),
				Type:        types.ActivityList,
				Action:      "removed_from_" + string(list),
				MovieID:     movieID,
				MovieTitle:  movie.Title,
				MoviePoster: movie.PosterPath,
				UserID:      p.session.UserID,
				CreatedAt:   time.Now(),
				List:        list,
			})
		},
	})
}

// MoveToList reassigns movieID from one list to another. The removal and
// the append happen in the same critical section, so no reader ever sees
// the movie on neither or both lists. The movie must be resolvable from
// some in-memory list; otherwise the move fails before any mutation. The
// caller's from may be stale (a conflict response names the server's view
// of membership); actual in-memory membership decides which list the movie
// leaves, so the at-most-one-list invariant holds either way.
func (p *Provider) MoveToList(ctx context.Context, movieID int, from, to types.ListType) MutationResult {
	if !from.Valid() || !to.Valid() {
		return validationFailure(fmt.Errorf("unknown list in move %q -> %q", from, to))
	}

	p.mu.Lock()
	source, movie := findMovie(p.lists, movieID)
	p.mu.Unlock()
	if movie == nil {
		return validationFailure(fmt.Errorf("movie %d not found in any list", movieID))
	}
	if source == to {
		return MutationResult{Success: true}
	}
	moved := *movie

	return p.runListMutation(ctx, listMutation{
		name: fmt.Sprintf("move_%s_to_%s", source, to),
		apply: func(lists map[types.ListType][]types.MovieRef) {
			for _, list := range types.AllLists() {
				lists[list] = withoutMovie(lists[list], movieID)
			}
			lists[to] = append(lists[to], moved)
		},
		call: func(ctx context.Context) error {
			return p.authority.MoveToList(ctx, movieID, source, to)
		},
		onCommit: func() {
			p.appendActivityLocked(types.ActivityRecord{
				ID:          uuid.NewString(),
				Type:        types.ActivityList,
				Action:      "moved_to_" + string(to),
				MovieID:     movieID,
				MovieTitle:  moved.Title,
				MoviePoster: moved.PosterPath,
				UserID:      p.session.UserID,
				CreatedAt:   time.Now(),
				List:        to,
			})
		},
	})
}

// findMovie locates a movie across the three lists.
func findMovie(lists map[types.ListType][]types.MovieRef, movieID int) (types.ListType, *types.MovieRef) {
	for _, list := range types.AllLists() {
		for i := range lists[list] {
			if lists[list][i].ID == movieID {
				return list, &lists[list][i]
			}
		}
	}
	return "", nil
}

func movieOnList(movies []types.MovieRef, movieID int) (types.MovieRef, bool) {
	for _, m := range movies {
		if m.ID == movieID {
			return m, true
		}
	}
	return types.MovieRef{}, false
}

func withoutMovie(movies []types.MovieRef, movieID int) []types.MovieRef {
	filtered := make([]types.MovieRef, 0, len(movies))
	for _, m := range movies {
		if m.ID != movieID {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// appendActivityLocked records a local activity entry and re-applies the
// feed bound. Caller holds p.mu.
func (p *Provider) appendActivityLocked(rec types.ActivityRecord) {
	p.activity = MergeActivity(p.activity, []types.ActivityRecord{rec})
}
