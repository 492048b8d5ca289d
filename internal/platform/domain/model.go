package domain

import (
	"context"
	"strings"
	"time"
)

// Platform identifies a supported social-media provider.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
)

func ParsePlatform(raw string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(raw))) {
	case PlatformYouTube:
		return PlatformYouTube, nil
	case PlatformTikTok:
		return PlatformTikTok, nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

func (p Platform) String() string { return string(p) }

// VideoMetrics is the normalized, platform-agnostic measurement unit. A
// connector either returns a complete record or fails; fields the provider
// does not expose are zero, never absent.
type VideoMetrics struct {
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	ShareCount   int64     `json:"shareCount"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// OAuthToken is a freshly issued credential set from a provider token
// endpoint, in plaintext. Persisting it encrypted is the caller's job.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Connector adapts one provider's video and token APIs.
type Connector interface {
	Platform() Platform

	// FetchVideoMetrics resolves a video id into normalized metrics using a
	// valid access token. No retries, no caching.
	FetchVideoMetrics(ctx context.Context, videoID, accessToken string) (VideoMetrics, error)

	// RefreshToken exchanges a refresh token for a new credential set.
	RefreshToken(ctx context.Context, refreshToken string) (OAuthToken, error)
}
