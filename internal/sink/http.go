package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go-jobboard-scraper/internal/scraper"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// APIResponse is the optional summary an endpoint returns on success.
type APIResponse struct {
	TotalCreated int   `json:"total_created"`
	TotalUpdated int   `json:"total_updated"`
	TotalErrors  int   `json:"total_errors"`
	Errors       []any `json:"errors"`
}

// HTTPSink POSTs the whole collection as one JSON array.
type HTTPSink struct {
	URL    string
	client *resty.Client
	log    *zap.Logger
}

func NewHTTPSink(url string, timeout time.Duration, log *zap.Logger) *HTTPSink {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPSink{
		URL:    url,
		client: resty.New().SetTimeout(timeout),
		log:    log,
	}
}

func (s *HTTPSink) Name() string { return "api" }

func (s *HTTPSink) Write(ctx context.Context, c scraper.Collection) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}

	s.log.Info("📡 Sending data to API", zap.String("url", s.URL), zap.Int("jobs", c.Len()))
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.URL)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return "", fmt.Errorf("API request timed out (>%s): %w", s.client.GetClient().Timeout, err)
		}
		return "", fmt.Errorf("cannot reach API: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	default:
		return "", fmt.Errorf("API error: HTTP %d: %s", resp.StatusCode(), snippet(resp.String(), 200))
	}

	var summary APIResponse
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return fmt.Sprintf("HTTP %d", resp.StatusCode()), nil
	}
	for i, e := range summary.Errors {
		if i == 3 {
			break
		}
		s.log.Warn("⚠ API reported error", zap.Any("error", e))
	}
	return fmt.Sprintf("HTTP %d: created %d, updated %d, errors %d",
		resp.StatusCode(), summary.TotalCreated, summary.TotalUpdated, summary.TotalErrors), nil
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
