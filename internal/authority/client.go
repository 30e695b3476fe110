// Package authority is the client for the backend service that owns the
// source of truth for list membership, reviews and social data. The local
// state provider mutates optimistically and reconciles against the
// responses produced here.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"watchlog/internal/types"
)

// RawActivity is an activity record as the backend sends it. Shapes vary by
// record age and producing service, so decoding to the canonical form is
// deferred to the feed normalizer.
type RawActivity map[string]any

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log.Named("authority"),
	}
}

// do performs a JSON request and decodes the response into out (when out is
// non-nil). Transport failures are classified into ErrTimeout / ErrNetwork;
// non-2xx responses become RejectedError, except 409 with an existing_list
// payload which becomes ConflictError.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classifyTransportError(method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var conflictBody struct {
			Error        string `json:"error"`
			ExistingList string `json:"existing_list"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&conflictBody); decodeErr == nil && conflictBody.ExistingList != "" {
			if list, ok := types.ParseListType(conflictBody.ExistingList); ok {
				return &ConflictError{ExistingList: list}
			}
		}
		return &RejectedError{StatusCode: resp.StatusCode, Message: conflictBody.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		c.log.Warn("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &RejectedError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}

func (c *Client) classifyTransportError(method, path string, err error) error {
	var urlErr *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		timedOut = true
	}

	if timedOut {
		c.log.Warn("request timed out", zap.String("method", method), zap.String("path", path))
		return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
	}

	c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// --- list operations ---

func (c *Client) AddToList(ctx context.Context, movie types.MovieRef, list types.ListType) error {
	path := fmt.Sprintf("/api/lists/%s/movies", list.Wire())
	return c.do(ctx, http.MethodPost, path, movie, nil)
}

func (c *Client) RemoveFromList(ctx context.Context, movieID int, list types.ListType) error {
	path := fmt.Sprintf("/api/lists/%s/movies/%d", list.Wire(), movieID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) MoveToList(ctx context.Context, movieID int, from, to types.ListType) error {
	path := fmt.Sprintf("/api/lists/%s/movies/%d/move", from.Wire(), movieID)
	body := map[string]string{"to": to.Wire()}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) GetUserList(ctx context.Context, list types.ListType) ([]types.MovieRef, error) {
	var resp struct {
		Movies []types.MovieRef `json:"movies"`
	}
	path := fmt.Sprintf("/api/lists/%s", list.Wire())
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Movies, nil
}

// --- reviews ---

func (c *Client) AddReview(ctx context.Context, review types.Review) (*types.Review, error) {
	var resp struct {
		Review types.Review `json:"review"`
	}
	path := fmt.Sprintf("/api/movies/%d/review", review.MovieID)
	if err := c.do(ctx, http.MethodPost, path, review, &resp); err != nil {
		return nil, err
	}
	return &resp.Review, nil
}

func (c *Client) GetUserReviews(ctx context.Context, userID string) ([]types.Review, error) {
	var resp struct {
		Reviews []types.Review `json:"reviews"`
	}
	path := fmt.Sprintf("/api/users/%s/reviews", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

// --- friends ---

func (c *Client) GetFriends(ctx context.Context, userID string) ([]types.Friend, error) {
	var resp struct {
		Friends []types.Friend `json:"friends"`
	}
	path := fmt.Sprintf("/api/users/%s/friends", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Friends, nil
}

func (c *Client) GetFriendRequests(ctx context.Context) ([]types.FriendRequest, error) {
	var resp struct {
		Requests []types.FriendRequest `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/friends/requests", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, userID string) error {
	body := map[string]string{"user_id": userID}
	return c.do(ctx, http.MethodPost, "/api/friends/requests", body, nil)
}

func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) error {
	path := fmt.Sprintf("/api/friends/requests/%s/accept", url.PathEscape(requestID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) RejectFriendRequest(ctx context.Context, requestID string) error {
	path := fmt.Sprintf("/api/friends/requests/%s/reject", url.PathEscape(requestID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) RemoveFriend(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/friends/%s", url.PathEscape(userID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// --- activity ---

func (c *Client) GetUserActivity(ctx context.Context, userID string) ([]RawActivity, error) {
	var resp struct {
		Activity []RawActivity `json:"activity"`
	}
	path := fmt.Sprintf("/api/users/%s/activity", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Activity, nil
}

// GetActivity is the friends'-feed fallback used when the per-user feed is
// unavailable.
func (c *Client) GetActivity(ctx context.Context) ([]RawActivity, error) {
	var resp struct {
		Activity []RawActivity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/feed/friends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Activity, nil
}

// --- messaging ---

func (c *Client) SendMessage(ctx context.Context, recipientID, text string) (*types.Message, error) {
	var resp struct {
		Message types.Message `json:"message"`
	}
	body := map[string]string{"recipient_id": recipientID, "text": text}
	if err := c.do(ctx, http.MethodPost, "/api/messages", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) ShareMovie(ctx context.Context, recipientID string, movie types.MovieRef) (*types.Message, error) {
	var resp struct {
		Message types.Message `json:"message"`
	}
	body := map[string]any{"recipient_id": recipientID, "movie": movie}
	if err := c.do(ctx, http.MethodPost, "/api/messages/share", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) GetConversation(ctx context.Context, userID string) ([]types.Message, error) {
	var resp struct {
		Messages []types.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/messages/%s", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) MarkMessagesAsRead(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/messages/%s/read", url.PathEscape(userID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/unread", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}
