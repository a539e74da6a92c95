// Package statsclient talks to the meeting statistics service over REST and
// keeps a live view of the caller's statistics.
package statsclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/johnquangdev/meeting-stats/internal/adapter/dto/common"
	statsDTO "github.com/johnquangdev/meeting-stats/internal/adapter/dto/stats"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// APIError is a non-2xx answer from the service
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("meeting-stats: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("meeting-stats: %d: %s", e.Status, e.Message)
}

// Client is a REST client for one authenticated user
type Client struct {
	baseURL string
	token   string
	http    *resty.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

// New creates a client for the service at baseURL authenticating with token
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    resty.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")
	return c
}

// Stats fetches the formatted statistics view
func (c *Client) Stats(ctx context.Context) (*statsUsecase.FormattedStats, error) {
	var out statsDTO.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/meeting-stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

// RecentMeetings lists the caller's meetings, newest first. A non-positive
// limit leaves the choice to the server.
func (c *Client) RecentMeetings(ctx context.Context, limit int) ([]*statsDTO.MeetingResponse, error) {
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var out statsDTO.RecentMeetingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/recent-meetings", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Meetings, nil
}

// Update sends a start, end or cancel action
func (c *Client) Update(ctx context.Context, req statsDTO.UpdateStatsRequest) (*statsDTO.UpdateStatsResponse, error) {
	var out statsDTO.UpdateStatsResponse
	if err := c.do(ctx, http.MethodPost, "/api/meeting-stats/update", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ticket obtains a one-time ticket for the real-time channel
func (c *Client) Ticket(ctx context.Context) (string, error) {
	var out statsDTO.TicketResponse
	if err := c.do(ctx, http.MethodPost, "/api/realtime/ticket", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Ticket, nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, result interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&common.ErrorResponse{})
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("meeting-stats: %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
		if e, ok := resp.Error().(*common.ErrorResponse); ok && e.Error != "" {
			apiErr.Code = e.Code
			apiErr.Message = e.Error
		}
		return apiErr
	}
	return nil
}
