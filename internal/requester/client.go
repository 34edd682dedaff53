package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/dealhunt/dealhunt-go/internal/models"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Client executes storefront API requests with the current session's bearer
// credential attached. A 401 triggers exactly one refresh-and-retry.
type Client struct {
	http    *http.Client
	baseURL string
	authMgr AuthManager
}

type ClientParams struct {
	fx.In

	Config      *config.APIConfig
	AuthManager AuthManager
}

// NewClient creates an API client with the configured timeout
func NewClient(params ClientParams) *Client {
	timeout := params.Config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(params.Config.BaseURL, "/"),
		authMgr: params.AuthManager,
	}
}

// Response is the raw outcome of an executed request.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes a JSON request against the API and decodes the envelope's
// data into out when it is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	resp, err := c.execute(ctx, method, path, payload, "")
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		token, refreshErr := c.authMgr.HandleUnauthorized(ctx)
		if refreshErr != nil {
			logger.Warn("request unauthorized and refresh failed", zap.String("path", path))
			return &models.APIError{
				Message: "authentication required",
				Status:  http.StatusUnauthorized,
				Code:    models.CodeHTTPError,
			}
		}
		resp, err = c.execute(ctx, method, path, payload, token)
		if err != nil {
			return err
		}
	}

	return decodeEnvelope(resp, out)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) execute(ctx context.Context, method, path string, payload []byte, overrideToken string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if overrideToken != "" {
		req.Header.Set("Authorization", "Bearer "+overrideToken)
	} else if err := c.authMgr.ApplyAuth(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}

func decodeEnvelope(resp *Response, out any) error {
	var envelope models.APIResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &envelope); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := envelope.Error
		if apiErr == nil {
			apiErr = &models.APIError{
				Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			}
		}
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		if apiErr.Code == "" {
			apiErr.Code = models.CodeHTTPError
		}
		return apiErr
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// transportError maps a failed round trip onto the transport taxonomy.
func transportError(err error) *models.APIError {
	code := models.CodeNetworkError

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = models.CodeTimeout
	}

	return &models.APIError{Message: err.Error(), Code: code}
}
