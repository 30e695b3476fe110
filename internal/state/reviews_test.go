package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlog/internal/authority"
	"watchlog/internal/types"
)

func TestAddReviewSuccess(t *testing.T) {
	auth := &fakeAuthority{}
	p := newTestProvider(t, auth)

	res := p.AddReview(context.Background(), types.Review{
		MovieID: 7,
		Rating:  8,
		Comment: "tight",
		Movie:   types.MovieRef{ID: 7, Title: "Heat"},
	})

	require.True(t, res.Success)
	reviews := p.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, 8, reviews[0].Rating)
	assert.Equal(t, testUserID, reviews[0].UserID, "review is stamped with the session identity")

	feed := p.Activity()
	require.Len(t, feed, 1)
	assert.Equal(t, types.ActivityReview, feed[0].Type)
	assert.Equal(t, 8, feed[0].Rating)
}

func TestAddReviewEditReplacesWholesale(t *testing.T) {
	auth := &fakeAuthority{}
	p := newTestProvider(t, auth)
	ctx := context.Background()

	require.True(t, p.AddReview(ctx, types.Review{
		MovieID: 7, Rating: 8, Comment: "tight", Tags: []string{"crime", "heist"},
	}).Success)
	require.True(t, p.AddReview(ctx, types.Review{
		MovieID: 7, Rating: 6,
	}).Success)

	reviews := p.Reviews()
	require.Len(t, reviews, 1, "edit replaces, never duplicates")
	assert.Equal(t, 6, reviews[0].Rating)
	assert.Empty(t, reviews[0].Comment, "old comment does not survive the edit")
	assert.Empty(t, reviews[0].Tags, "old tags do not survive the edit")
}

func TestAddReviewValidation(t *testing.T) {
	auth := &fakeAuthority{}
	p := newTestProvider(t, auth)
	ctx := context.Background()

	for name, review := range map[string]types.Review{
		"missing movie id": {Rating: 8},
		"rating too low":   {MovieID: 7, Rating: 0},
		"rating too high":  {MovieID: 7, Rating: 11},
	} {
		res := p.AddReview(ctx, review)
		assert.False(t, res.Success, name)
		assert.Equal(t, KindValidation, res.Kind, name)
	}
	assert.Empty(t, auth.calls, "validation failures never reach the authority")
	assert.Empty(t, p.Reviews())
}

func TestAddReviewRejectedLeavesStateUntouched(t *testing.T) {
	auth := &fakeAuthority{reviewErr: &authority.RejectedError{StatusCode: 422, Message: "bad payload"}}
	p := newTestProvider(t, auth)

	res := p.AddReview(context.Background(), types.Review{MovieID: 7, Rating: 8})

	assert.False(t, res.Success)
	assert.Equal(t, KindRejected, res.Kind)
	assert.Equal(t, 422, res.Status)
	assert.Empty(t, p.Reviews(), "no optimistic phase for reviews")
	assert.Empty(t, p.Activity())
}

func TestAddReviewTimeout(t *testing.T) {
	auth := &fakeAuthority{reviewErr: authority.ErrTimeout}
	p := newTestProvider(t, auth)

	res := p.AddReview(context.Background(), types.Review{MovieID: 7, Rating: 8})

	assert.False(t, res.Success)
	assert.Equal(t, KindTimeout, res.Kind)
	assert.Empty(t, p.Reviews())
}

func TestAddReviewWhileUnauthenticated(t *testing.T) {
	auth := &fakeAuthority{}
	p := newTestProvider(t, auth)
	p.SignOut()

	res := p.AddReview(context.Background(), types.Review{MovieID: 7, Rating: 8})

	assert.False(t, res.Success)
	assert.Equal(t, KindValidation, res.Kind)
	assert.Empty(t, auth.calls)
}
