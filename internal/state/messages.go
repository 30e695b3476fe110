package state

import (
	"context"
	"time"

	"github.com/google/uuid"

	"watchlog/internal/types"
)

// Messaging is a pass-through to the authority. The only piece of local
// state it touches is the activity feed: a successful movie share emits a
// movie_share record so the share shows up without waiting for the next
// feed fetch.

func (p *Provider) SendMessage(ctx context.Context, recipientID, text string) (*types.Message, error) {
	return p.authority.SendMessage(ctx, recipientID, text)
}

func (p *Provider) ShareMovie(ctx context.Context, recipientID string, movie types.MovieRef) (*types.Message, error) {
	msg, err := p.authority.ShareMovie(ctx, recipientID, movie)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.appendActivityLocked(types.ActivityRecord{
		ID:          uuid.NewString(),
		Type:        types.ActivityMovieShare,
		Action:      "shared",
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		MoviePoster: movie.PosterPath,
		UserID:      p.session.UserID,
		CreatedAt:   time.Now(),
	})
	p.mu.Unlock()
	p.persist(ctx)

	return msg, nil
}

func (p *Provider) GetConversation(ctx context.Context, userID string) ([]types.Message, error) {
	return p.authority.GetConversation(ctx, userID)
}

func (p *Provider) MarkMessagesAsRead(ctx context.Context, userID string) error {
	return p.authority.MarkMessagesAsRead(ctx, userID)
}

func (p *Provider) UnreadCount(ctx context.Context) (int, error) {
	return p.authority.GetUnreadCount(ctx)
}
