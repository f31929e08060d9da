// Package client is a typed HTTP client for the query API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/httpapi"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Response carries the decoded body plus the raw bytes for Print.
type Response[T any] struct {
	StatusCode int
	Body       T
	raw        []byte
}

// ResultsQuery holds the optional filters of the result endpoints. Zero values are omitted.
type ResultsQuery struct {
	Since time.Time
	Until time.Time
	Limit int
}

func (q ResultsQuery) values() url.Values {
	v := url.Values{}
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		v.Set("until", q.Until.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) Health(ctx context.Context) (*Response[httpapi.HealthResponse], error) {
	return get[httpapi.HealthResponse](ctx, c, "/health", nil)
}

func (c *Client) Targets(ctx context.Context, status string) (*Response[httpapi.TargetListResponse], error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	return get[httpapi.TargetListResponse](ctx, c, "/targets", v)
}

func (c *Client) Target(ctx context.Context, id domain.TargetID) (*Response[domain.Target], error) {
	return get[domain.Target](ctx, c, "/targets/"+url.PathEscape(string(id)), nil)
}

func (c *Client) Results(ctx context.Context, id domain.TargetID, q ResultsQuery) (*Response[httpapi.TargetResultsResponse], error) {
	return get[httpapi.TargetResultsResponse](ctx, c, "/targets/"+url.PathEscape(string(id))+"/results", q.values())
}

func (c *Client) Latest(ctx context.Context, q ResultsQuery) (*Response[httpapi.LatestResultsResponse], error) {
	return get[httpapi.LatestResultsResponse](ctx, c, "/results/latest", q.values())
}

func (c *Client) LatestByTarget(ctx context.Context) (*Response[httpapi.LatestByTargetResponse], error) {
	return get[httpapi.LatestByTargetResponse](ctx, c, "/results/latest-by-target", nil)
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (*Response[T], error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read body of %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message = body.Error
		}
		return nil, apiErr
	}

	out := &Response[T]{StatusCode: resp.StatusCode, raw: raw}
	if err := json.Unmarshal(raw, &out.Body); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s body as JSON", path)
	}
	return out, nil
}
