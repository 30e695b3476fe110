package state

import (
	"context"

	"go.uber.org/zap"
)

// Friend relationships are read-through: the backend owns them outright and
// there is nothing to mutate optimistically. Each lifecycle call refreshes
// the affected collection on success.

func (p *Provider) SendFriendRequest(ctx context.Context, userID string) error {
	return p.authority.SendFriendRequest(ctx, userID)
}

func (p *Provider) AcceptFriendRequest(ctx context.Context, requestID string) error {
	if err := p.authority.AcceptFriendRequest(ctx, requestID); err != nil {
		return err
	}
	p.refreshSocial(ctx)
	return nil
}

func (p *Provider) RejectFriendRequest(ctx context.Context, requestID string) error {
	if err := p.authority.RejectFriendRequest(ctx, requestID); err != nil {
		return err
	}
	p.refreshSocial(ctx)
	return nil
}

func (p *Provider) RemoveFriend(ctx context.Context, userID string) error {
	if err := p.authority.RemoveFriend(ctx, userID); err != nil {
		return err
	}
	p.refreshSocial(ctx)
	return nil
}

func (p *Provider) refreshSocial(ctx context.Context) {
	friends, err := p.authority.GetFriends(ctx, p.session.UserID)
	if err != nil {
		p.log.Warn("friend refresh failed", zap.Error(err))
		return
	}
	requests, err := p.authority.GetFriendRequests(ctx)
	if err != nil {
		p.log.Warn("friend request refresh failed", zap.Error(err))
		requests = nil
	}

	p.mu.Lock()
	p.friends = friends
	if requests != nil {
		p.requests = requests
	}
	p.mu.Unlock()
}
