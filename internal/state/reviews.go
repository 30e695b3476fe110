package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchlog/internal/types"
)

// AddReview submits a review. A second submission for the same movie is an
// edit: the stored review's rating, comment and tags are replaced wholesale,
// never merged field by field. Reviews have no optimistic phase — the local
// collection is only updated once the authority accepts.
func (p *Provider) AddReview(ctx context.Context, review types.Review) MutationResult {
	if review.MovieID == 0 {
		return validationFailure(fmt.Errorf("review is missing a movie id"))
	}
	if review.Rating < 1 || review.Rating > 10 {
		return validationFailure(fmt.Errorf("rating %d out of range 1-10", review.Rating))
	}

	p.mu.Lock()
	if p.phase == PhaseUnauthenticated {
		p.mu.Unlock()
		return validationFailure(errors.New("not authenticated"))
	}
	p.mu.Unlock()

	review.UserID = p.session.UserID
	if review.UpdatedAt.IsZero() {
		review.UpdatedAt = time.Now()
	}

	accepted, err := p.authority.AddReview(ctx, review)
	if err != nil {
		return classifyMutationError(err)
	}
	if accepted != nil {
		review = *accepted
	}

	p.mu.Lock()
	replaced := false
	next := append([]types.Review(nil), p.reviews...)
	for i := range next {
		if next[i].MovieID == review.MovieID {
			next[i] = review
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, review)
	}
	p.reviews = next

	p.appendActivityLocked(types.ActivityRecord{
		ID:          uuid.NewString(),
		Type:        types.ActivityReview,
		Action:      "reviewed",
		MovieID:     review.MovieID,
		MovieTitle:  review.Movie.Title,
		MoviePoster: review.Movie.PosterPath,
		UserID:      p.session.UserID,
		CreatedAt:   time.Now(),
		Rating:      review.Rating,
		Comment:     review.Comment,
	})
	p.mu.Unlock()

	p.persist(ctx)
	return MutationResult{Success: true}
}
