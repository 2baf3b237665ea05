package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	roerrors "roparse/pkg/errors"
	"roparse/pkg/logger"
	"roparse/pkg/metrics"
	"roparse/pkg/models"
)

// DefaultTimeout is the per-request timeout used when none is configured
const DefaultTimeout = 10 * time.Second

// Client fetches pages of a group's member listing
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new groups API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "roparse/1.0",
		},
		baseURL: BaseURL,
		logger:  log,
	}
}

// SetBaseURL points the client at another host, e.g. a test server
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchGroupMembers fetches one page of members of groupID starting at
// cursor. An empty cursor requests the first page.
func (c *Client) FetchGroupMembers(ctx context.Context, groupID, cursor string) (*models.Page, error) {
	url := GroupMembersURL(c.baseURL, groupID, cursor)

	var response GroupMembersResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	page := response.ToPage()
	c.logger.DebugWithFields("fetched group members page", map[string]interface{}{
		"group_id":    groupID,
		"cursor":      cursor,
		"entries":     len(page.Members),
		"next_cursor": page.NextCursor,
	})

	return page, nil
}

// getJSON performs a GET request and decodes the JSON response into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return roerrors.Wrap(roerrors.ErrorTypeNetwork, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveRequest(0, duration)
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return classifyTransportError(err, "request failed")
	}
	defer resp.Body.Close()

	metrics.ObserveRequest(resp.StatusCode, duration)
	logger.LogRequest(c.logger, url, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return roerrors.HTTPStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err, "failed to read response body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return roerrors.Wrap(roerrors.ErrorTypeDecode, err, "failed to parse JSON")
	}

	return nil
}

// classifyTransportError separates timeouts from other transport failures
func classifyTransportError(err error, message string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return roerrors.Wrap(roerrors.ErrorTypeTimeout, err, message)
	}
	return roerrors.Wrap(roerrors.ErrorTypeNetwork, err, message)
}
