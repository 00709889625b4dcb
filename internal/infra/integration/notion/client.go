package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	pageSize       = 100
	maxAttempts    = 3
)

var ErrNotConfigured = errors.New("notion: token or database id not configured")

// APIError is the error object returned by the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound || e.Code == "object_not_found" {
		return entity.ErrNotFound
	}
	return nil
}

type page struct {
	ID          string              `json:"id"`
	CreatedTime string              `json:"created_time"`
	Archived    bool                `json:"archived"`
	URL         string              `json:"url"`
	Cover       *fileItem           `json:"cover"`
	Properties  map[string]property `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type pageRequest struct {
	Parent     *parent             `json:"parent,omitempty"`
	Properties map[string]property `json:"properties"`
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type Client struct {
	http    fastshot.ClientHttpMethods
	token   string
	backoff time.Duration
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := fastshot.NewClient(strings.TrimRight(baseURL, "/"))
	if token != "" {
		c.Auth().BearerToken(token)
	}

	return &Client{
		token:   token,
		backoff: 500 * time.Millisecond,
		http: c.Config().SetTimeout(30*time.Second).
			Header().Add("Content-Type", "application/json").
			Header().Add("Notion-Version", apiVersion).
			Build(),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

func (c *Client) createPage(ctx context.Context, databaseID string, props map[string]property) (*page, error) {
	resp, err := c.http.POST("/pages").
		Context().Set(ctx).
		Body().AsJSON(pageRequest{Parent: &parent{DatabaseID: databaseID}, Properties: props}).
		Send()
	if err != nil {
		return nil, fmt.Errorf("notion create page: %w", err)
	}
	defer resp.Body().Close()

	var p page
	if err := parseResponse(*resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) updatePage(ctx context.Context, id string, props map[string]property) error {
	resp, err := c.http.PATCH("/pages/" + id).
		Context().Set(ctx).
		Body().AsJSON(pageRequest{Properties: props}).
		Send()
	if err != nil {
		return fmt.Errorf("notion update page: %w", err)
	}
	defer resp.Body().Close()

	var p page
	return parseResponse(*resp, &p)
}

func (c *Client) getPage(ctx context.Context, id string) (*page, error) {
	resp, err := c.http.GET("/pages/" + id).
		Context().Set(ctx).
		Retry().SetExponentialBackoff(c.backoff, maxAttempts, 2.0).
		Retry().WithRetryCondition(retryable).
		Send()
	if err != nil {
		return nil, fmt.Errorf("notion get page: %w", err)
	}
	defer resp.Body().Close()

	var p page
	if err := parseResponse(*resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// queryDatabase follows the cursor until every page of the collection has
// been read.
func (c *Client) queryDatabase(ctx context.Context, databaseID string) ([]page, error) {
	var all []page
	cursor := ""
	for {
		q, err := c.queryOnce(ctx, databaseID, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, q.Results...)
		if !q.HasMore || q.NextCursor == "" {
			return all, nil
		}
		cursor = q.NextCursor
	}
}

// queryOnce reads one page of results. The request is rebuilt for every
// attempt because a sent body cannot be replayed.
func (c *Client) queryOnce(ctx context.Context, databaseID, cursor string) (*queryResponse, error) {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		resp, err := c.http.POST("/databases/" + databaseID + "/query").
			Context().Set(ctx).
			Body().AsJSON(queryRequest{PageSize: pageSize, StartCursor: cursor}).
			Send()
		if err == nil && (attempt == maxAttempts || !retryable(resp)) {
			var q queryResponse
			err = parseResponse(*resp, &q)
			resp.Body().Close()
			if err != nil {
				return nil, err
			}
			return &q, nil
		}
		if err == nil {
			resp.Body().Close()
		} else if attempt == maxAttempts || ctx.Err() != nil {
			return nil, fmt.Errorf("notion query database: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("notion query database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// retryable reports whether a response is worth another attempt. Client
// errors other than rate limiting are final.
func retryable(resp *fastshot.Response) bool {
	return resp.Status().Code() == http.StatusTooManyRequests || resp.Status().Is5xxServerError()
}

func parseResponse[T any](resp fastshot.Response, result *T) error {
	if resp.Status().IsError() {
		msg, err := resp.Body().AsString()
		if err != nil {
			return fmt.Errorf("notion: failed to read error response: %w", err)
		}
		var apiErr APIError
		if json.Unmarshal([]byte(msg), &apiErr) == nil && apiErr.Code != "" {
			return &apiErr
		}
		return errors.New("notion: " + msg)
	}

	if err := resp.Body().AsJSON(result); err != nil {
		return fmt.Errorf("notion: failed to parse response: %w", err)
	}
	return nil
}
