package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/domain"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 4 << 20

// HTTPClient implements Client against the prediction backend's JSON API.
type HTTPClient struct {
	config     *config.BackendConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a new prediction backend client.
func NewHTTPClient(cfg *config.BackendConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("backend_client"),
	}
}

// Predict posts req to the endpoint of its mode. There are no retries.
func (c *HTTPClient) Predict(ctx context.Context, req domain.AnalysisRequest) (*Response, error) {
	startTime := time.Now()

	path, ok := Endpoint(req.Mode())
	if !ok {
		return nil, domain.WrapTransport("resolve_endpoint", 0, fmt.Errorf("no endpoint for mode %q", req.Mode()))
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, domain.WrapTransport("marshal_request", 0, err)
	}

	url := c.config.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, domain.WrapTransport("create_request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("sending prediction request",
		zap.String("mode", string(req.Mode())),
		zap.String("url", url),
		zap.Int("payload_bytes", len(jsonBody)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.WrapTransport("http_request", 0, ctx.Err())
		}
		return nil, domain.WrapTransport("http_request", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.WrapTransport("read_response", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("prediction backend returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", errorDetail(body)),
		)
		return nil, domain.WrapTransport("backend_status", resp.StatusCode,
			fmt.Errorf("backend returned status %d: %s", resp.StatusCode, errorDetail(body)))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Warn("failed to decode prediction response",
			zap.Error(err),
			zap.String("body_preview", truncate(string(body), 200)),
		)
		return nil, domain.WrapTransport("decode_response", resp.StatusCode, err)
	}

	c.logger.Debug("prediction request completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("status", resp.StatusCode),
	)

	return &out, nil
}

// HealthCheck verifies the backend root answers with 2xx.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return domain.WrapTransport("health_check", 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapTransport("health_check", 0, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.WrapTransport("health_check", resp.StatusCode, errors.New("backend not ready"))
	}

	return nil
}

// errorDetail extracts the "detail" message error bodies usually carry.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return truncate(s, 200)
		}
		return truncate(string(payload.Detail), 200)
	}
	return truncate(string(body), 200)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
