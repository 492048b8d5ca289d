package youtube

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

	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
)

const (
	defaultAPIBaseURL = "https://www.googleapis.com"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
)

type Config struct {
	ClientID     string
	ClientSecret string

	// APIBaseURL and TokenURL are overridable for tests.
	APIBaseURL string
	TokenURL   string

	HTTPClient *http.Client
}

// Connector fetches video statistics from the YouTube Data API v3 and
// refreshes credentials against the Google OAuth 2.0 token endpoint.
type Connector struct {
	clientID     string
	clientSecret string
	apiBaseURL   string
	tokenURL     string
	httpClient   *http.Client
}

func New(cfg Config) *Connector {
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Connector{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiBaseURL:   apiBase,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
}

func (c *Connector) Platform() platformdomain.Platform {
	return platformdomain.PlatformYouTube
}

type videoListResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (c *Connector) FetchVideoMetrics(ctx context.Context, videoID, accessToken string) (platformdomain.VideoMetrics, error) {
	endpoint := fmt.Sprintf("%s/youtube/v3/videos?part=statistics&id=%s", c.apiBaseURL, url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return platformdomain.VideoMetrics{}, &platformdomain.ProviderError{
			Platform: platformdomain.PlatformYouTube,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var payload videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return platformdomain.VideoMetrics{}, fmt.Errorf("decode youtube response: %w", err)
	}
	if len(payload.Items) == 0 {
		return platformdomain.VideoMetrics{}, platformdomain.ErrVideoNotFound
	}

	stats := payload.Items[0].Statistics
	return platformdomain.VideoMetrics{
		ViewCount:    parseCount(stats.ViewCount),
		LikeCount:    parseCount(stats.LikeCount),
		CommentCount: parseCount(stats.CommentCount),
		// YouTube does not expose share counts.
		ShareCount: 0,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Connector) RefreshToken(ctx context.Context, refreshToken string) (platformdomain.OAuthToken, error) {
	form := url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return platformdomain.OAuthToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return platformdomain.OAuthToken{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return platformdomain.OAuthToken{}, &platformdomain.ProviderError{
			Platform: platformdomain.PlatformYouTube,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return platformdomain.OAuthToken{}, fmt.Errorf("decode token response: %w", err)
	}

	token := platformdomain.OAuthToken{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	// Google omits the refresh token when it has not rotated.
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func parseCount(raw string) int64 {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
