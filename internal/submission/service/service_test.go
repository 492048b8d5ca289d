package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	"github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/brookejlacey/flowback/internal/submission/repository"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Submission{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	return NewService(Param{
		Repo:  repository.Provide(gdb),
		GenID: node,
		Log:   zap.NewNop(),
	})
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		platform platformdomain.Platform
		url      string
		want     string
	}{
		{"youtube watch", platformdomain.PlatformYouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtube short link", platformdomain.PlatformYouTube, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtube watch extra params", platformdomain.PlatformYouTube, "https://www.youtube.com/watch?v=abc123&t=42s", "abc123"},
		{"youtube wrong host", platformdomain.PlatformYouTube, "https://example.com/watch?v=abc", ""},
		{"tiktok", platformdomain.PlatformTikTok, "https://www.tiktok.com/@creator/video/7345678901234567890", "7345678901234567890"},
		{"tiktok without video path", platformdomain.PlatformTikTok, "https://www.tiktok.com/@creator", ""},
		{"tiktok url on youtube platform", platformdomain.PlatformYouTube, "https://www.tiktok.com/@creator/video/1", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractVideoID(tc.platform, tc.url))
		})
	}
}

func TestCreateRejectsDuplicateTuple(t *testing.T) {
	svc := newTestService(t)

	input := CreateInput{
		CampaignID: "42",
		CreatorID:  snowflake.ID(1234567890),
		Platform:   "youtube",
		VideoURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}

	first, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusPending, first.Status)
	assert.Equal(t, "dQw4w9WgXcQ", first.VideoID)

	_, err = svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)

	// Same video in another campaign is allowed.
	other := input
	other.CampaignID = "43"
	_, err = svc.Create(context.Background(), other)
	assert.NoError(t, err)
}

func TestCreateRejectsUnparseableURL(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		CampaignID: "42",
		CreatorID:  snowflake.ID(1),
		Platform:   "youtube",
		VideoURL:   "https://example.com/not-a-video",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidVideoURL)
}

func TestCreateRejectsUnknownPlatform(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		CampaignID: "42",
		CreatorID:  snowflake.ID(1),
		Platform:   "vimeo",
		VideoURL:   "https://vimeo.com/12345",
	})
	assert.ErrorIs(t, err, platformdomain.ErrUnsupportedPlatform)
}

func TestRecordVerification(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		CampaignID: "42",
		CreatorID:  snowflake.ID(1234567890),
		Platform:   "youtube",
		VideoURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecordVerification(context.Background(), "youtube", "dQw4w9WgXcQ", domain.SubmissionStatusVerified))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusVerified, got.Status)
}

func TestRecordVerificationUnknownVideo(t *testing.T) {
	svc := newTestService(t)

	err := svc.RecordVerification(context.Background(), "youtube", "missing", domain.SubmissionStatusVerified)
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}
