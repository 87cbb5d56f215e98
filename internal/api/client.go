// Package api is a thin client for the Taskodex REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ldi/taskake/internal/config"
)

// ErrInvalidRequest is wrapped by every error returned for input that failed
// validation before any request was sent.
var ErrInvalidRequest = errors.New("invalid request")

// APIError is returned for non-2xx responses.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	// Message is the server's error message, if the body carried one.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Status)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to one organization's Taskodex endpoints.
type Client struct {
	baseURL    string
	orgID      string
	token      string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *slog.Logger
}

// New builds a client from the resolved configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		orgID:      cfg.OrgID,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// OrgID returns the organization the client is scoped to.
func (c *Client) OrgID() string {
	return c.orgID
}

func (c *Client) taskodexPath(format string, args ...any) string {
	return "/organizations/" + url.PathEscape(c.orgID) + "/taskodex" + fmt.Sprintf(format, args...)
}

func (c *Client) checkStruct(op string, v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRequest, op, err)
	}
	return nil
}

func (c *Client) checkVar(op, field string, v any, tag string) error {
	if err := c.validate.Var(v, tag); err != nil {
		return fmt.Errorf("%w: %s: %s: %v", ErrInvalidRequest, op, field, err)
	}
	return nil
}

// do sends one request and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to %s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "op", op, "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to %s: failed to decode response: %w", op, err)
	}
	return nil
}

func newAPIError(op string, resp *http.Response) *APIError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Status: status}

	var payload struct {
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}
