package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMetricsNotFound maps the backend's 404: no submission or platform
// connection exists for the requested video.
var ErrMetricsNotFound = errors.New("verifier: no metrics available for video")

// ErrUnauthorized maps the backend's 401: the service credential was
// missing or wrong.
var ErrUnauthorized = errors.New("verifier: metrics backend rejected service credential")

// MetricsClient fetches raw metrics payloads from the backend API.
type MetricsClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewMetricsClient(baseURL, token string) *MetricsClient {
	return &MetricsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchRaw returns the raw response body of the metrics endpoint. Bytes,
// not a decoded struct: the agreement cache stores and replays the exact
// payload so every replica decodes identical input.
func (c *MetricsClient) FetchRaw(ctx context.Context, platform, videoID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/metrics/%s/%s", c.baseURL, url.PathEscape(platform), url.PathEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("verifier: build metrics request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier: metrics request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("verifier: read metrics response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrMetricsNotFound
	default:
		return nil, fmt.Errorf("verifier: metrics backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
