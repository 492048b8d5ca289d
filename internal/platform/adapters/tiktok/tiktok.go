package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
)

const defaultAPIBaseURL = "https://open.tiktokapis.com"

type Config struct {
	ClientKey    string
	ClientSecret string

	// APIBaseURL is overridable for tests.
	APIBaseURL string

	HTTPClient *http.Client
}

// Connector fetches video statistics from the TikTok Display API v2 and
// refreshes credentials against its OAuth token endpoint.
type Connector struct {
	clientKey    string
	clientSecret string
	apiBaseURL   string
	httpClient   *http.Client
}

func New(cfg Config) *Connector {
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Connector{
		clientKey:    cfg.ClientKey,
		clientSecret: cfg.ClientSecret,
		apiBaseURL:   apiBase,
		httpClient:   httpClient,
	}
}

func (c *Connector) Platform() platformdomain.Platform {
	return platformdomain.PlatformTikTok
}

type videoQueryRequest struct {
	Filters struct {
		VideoIDs []string `json:"video_ids"`
	} `json:"filters"`
	Fields []string `json:"fields"`
}

type videoQueryResponse struct {
	Data struct {
		Videos []struct {
			ViewCount    int64 `json:"view_count"`
			LikeCount    int64 `json:"like_count"`
			CommentCount int64 `json:"comment_count"`
			ShareCount   int64 `json:"share_count"`
		} `json:"videos"`
	} `json:"data"`
}

func (c *Connector) FetchVideoMetrics(ctx context.Context, videoID, accessToken string) (platformdomain.VideoMetrics, error) {
	var query videoQueryRequest
	query.Filters.VideoIDs = []string{videoID}
	query.Fields = []string{"view_count", "like_count", "comment_count", "share_count"}

	body, err := json.Marshal(query)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/v2/video/query/", bytes.NewReader(body))
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return platformdomain.VideoMetrics{}, &platformdomain.ProviderError{
			Platform: platformdomain.PlatformTikTok,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(raw)),
		}
	}

	var payload videoQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return platformdomain.VideoMetrics{}, fmt.Errorf("decode tiktok response: %w", err)
	}
	if len(payload.Data.Videos) == 0 {
		return platformdomain.VideoMetrics{}, platformdomain.ErrVideoNotFound
	}

	video := payload.Data.Videos[0]
	return platformdomain.VideoMetrics{
		ViewCount:    video.ViewCount,
		LikeCount:    video.LikeCount,
		CommentCount: video.CommentCount,
		ShareCount:   video.ShareCount,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Connector) RefreshToken(ctx context.Context, refreshToken string) (platformdomain.OAuthToken, error) {
	form := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
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
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return platformdomain.OAuthToken{}, &platformdomain.ProviderError{
			Platform: platformdomain.PlatformTikTok,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(raw)),
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
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}
