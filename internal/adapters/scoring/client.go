package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Client calls the XGBoost scoring service
type Client struct {
	predictURL string
	healthURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

type predictRequest struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type predictResponse struct {
	Score *float64 `json:"score"`
}

// NewClient creates a scoring client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid scoring base URL %q: scheme and host are required", baseURL)
	}

	return &Client{
		predictURL: base.JoinPath("/predict").String(),
		healthURL:  base.JoinPath("/health").String(),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Endpoint returns the predict URL
func (c *Client) Endpoint() string {
	return c.predictURL
}

// Score sends the email to the scoring service and returns the phishing probability
func (c *Client) Score(ctx context.Context, email *core.EmailData) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Sender:  email.Sender,
		Subject: email.Subject,
		Content: email.Content,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Requesting phishing score", zap.String("url", c.predictURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call scoring service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &core.ServiceError{Service: "Backend", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var parsed predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode predict response: %w", err)
	}
	if parsed.Score == nil {
		return 0, fmt.Errorf("predict response has no score")
	}
	score := *parsed.Score
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("predict response score %v outside [0, 1]", score)
	}

	c.logger.Debug("Received phishing score", zap.Float64("score", score))
	return score, nil
}

// Health checks that the scoring service is up
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call scoring health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &core.ServiceError{Service: "Backend", StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
