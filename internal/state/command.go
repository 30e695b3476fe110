package state

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"watchlog/internal/authority"
	"watchlog/internal/types"
)

// ErrorKind classifies a failed mutation for the caller.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
	KindRejected   ErrorKind = "rejected"
)

// MutationResult is what every public mutation returns. Expected failures
// come back classified here instead of as a bare error, so callers can react
// (offer a move on conflict, show a connectivity message on timeout) while
// the visible lists are guaranteed untouched.
type MutationResult struct {
	Success      bool
	Status       int
	ExistingList types.ListType
	Kind         ErrorKind
	Err          error
}

func validationFailure(err error) MutationResult {
	return MutationResult{Kind: KindValidation, Err: err}
}

// listMutation is one optimistic list mutation. apply runs synchronously
// under the state lock before the first suspension point; call talks to the
// authority; onCommit runs under the lock only after the authority accepted
// the mutation. The runner owns the snapshot and the rollback.
type listMutation struct {
	name     string
	apply    func(lists map[types.ListType][]types.MovieRef)
	call     func(ctx context.Context) error
	onCommit func()
}

// runListMutation executes the snapshot → optimistic apply → authority →
// commit-or-rollback sequence. All three lists are snapshotted and restored
// together: the mutation either fully commits or leaves no trace.
func (p *Provider) runListMutation(ctx context.Context, m listMutation) MutationResult {
	p.mu.Lock()
	if p.phase == PhaseUnauthenticated {
		p.mu.Unlock()
		return validationFailure(errors.New("not authenticated"))
	}
	snapshot := p.lists
	next := copyLists(snapshot)
	m.apply(next)
	p.lists = next
	p.mu.Unlock()

	err := m.call(ctx)
	if err != nil {
		p.mu.Lock()
		p.lists = snapshot
		p.mu.Unlock()
		p.log.Warn("mutation rolled back", zap.String("mutation", m.name), zap.Error(err))
		return classifyMutationError(err)
	}

	p.mu.Lock()
	if m.onCommit != nil {
		m.onCommit()
	}
	p.mu.Unlock()

	p.persist(ctx)
	return MutationResult{Success: true}
}

// copyLists clones the collection map with fresh slices so the snapshot
// stays valid whatever apply does to the copy.
func copyLists(lists map[types.ListType][]types.MovieRef) map[types.ListType][]types.MovieRef {
	next := make(map[types.ListType][]types.MovieRef, len(lists))
	for list, movies := range lists {
		next[list] = append([]types.MovieRef(nil), movies...)
	}
	return next
}

func classifyMutationError(err error) MutationResult {
	if conflict, ok := authority.IsConflict(err); ok {
		return MutationResult{
			Status:       http.StatusConflict,
			ExistingList: conflict.ExistingList,
			Kind:         KindConflict,
			Err:          err,
		}
	}
	if errors.Is(err, authority.ErrTimeout) {
		return MutationResult{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, authority.ErrNetwork) {
		return MutationResult{Kind: KindNetwork, Err: err}
	}
	var rejected *authority.RejectedError
	if errors.As(err, &rejected) {
		return MutationResult{Status: rejected.StatusCode, Kind: KindRejected, Err: err}
	}
	return MutationResult{Kind: KindRejected, Err: err}
}
