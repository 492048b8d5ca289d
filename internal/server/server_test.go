package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brookejlacey/flowback/internal/config"
	engagementdomain "github.com/brookejlacey/flowback/internal/engagement/domain"
	"github.com/brookejlacey/flowback/internal/observability"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
	submissionrepo "github.com/brookejlacey/flowback/internal/submission/repository"
	submissionservice "github.com/brookejlacey/flowback/internal/submission/service"
)

type stubEngagement struct {
	metrics platformdomain.VideoMetrics
	err     error
}

func (s *stubEngagement) VideoMetrics(context.Context, platformdomain.Platform, string) (platformdomain.VideoMetrics, error) {
	return s.metrics, s.err
}

func newTestServer(t *testing.T, engagement engagementdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&submissiondomain.Submission{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	opsCfg, err := config.NewOpsConfigHolder()
	require.NoError(t, err)

	return NewServer(ServerParams{
		Gin:    NewEngine(observability.Config{}),
		Cfg:    config.Config{ServiceToken: "secret-token"},
		OpsCfg: opsCfg,
		EngagementSvc: engagement,
		SubmissionSvc: submissionservice.NewService(submissionservice.Param{
			Repo:  submissionrepo.Provide(gdb),
			GenID: node,
			Log:   zap.NewNop(),
		}),
		Log: zap.NewNop(),
	})
}

func do(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpointRequiresServiceToken(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/metrics/youtube/vid", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/metrics/youtube/vid", "wrong", nil).Code)
}

func TestMetricsEndpointReturnsMetrics(t *testing.T) {
	s := newTestServer(t, &stubEngagement{metrics: platformdomain.VideoMetrics{
		ViewCount: 15234,
		LikeCount: 892,
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}})

	rec := do(s, http.MethodGet, "/api/metrics/youtube/dQw4w9WgXcQ", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got platformdomain.VideoMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(15234), got.ViewCount)
	assert.Equal(t, int64(892), got.LikeCount)
}

func TestMetricsEndpointNotFound(t *testing.T) {
	s := newTestServer(t, &stubEngagement{err: engagementdomain.ErrSubmissionNotFound})

	rec := do(s, http.MethodGet, "/api/metrics/youtube/unknown", "secret-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointProviderFailure(t *testing.T) {
	s := newTestServer(t, &stubEngagement{err: &platformdomain.ProviderError{
		Platform: platformdomain.PlatformYouTube,
		Status:   http.StatusForbidden,
		Message:  "quota exceeded",
	}})

	rec := do(s, http.MethodGet, "/api/metrics/youtube/vid", "secret-token", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpointUnknownPlatform(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	rec := do(s, http.MethodGet, "/api/metrics/vimeo/vid", "secret-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSubmission(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	body := map[string]string{
		"campaign_id": "42",
		"creator_id":  "1234567890",
		"platform":    "youtube",
		"video_url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	rec := do(s, http.MethodPost, "/api/submissions", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created submissiondomain.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "dQw4w9WgXcQ", created.VideoID)
	assert.Equal(t, submissiondomain.SubmissionStatusPending, created.Status)

	// Same tuple again conflicts.
	assert.Equal(t, http.StatusConflict, do(s, http.MethodPost, "/api/submissions", "", body).Code)
}

func TestCreateSubmissionBadVideoURL(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	rec := do(s, http.MethodPost, "/api/submissions", "", map[string]string{
		"campaign_id": "42",
		"creator_id":  "1234567890",
		"platform":    "youtube",
		"video_url":   "https://example.com/nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSubmission(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	rec := do(s, http.MethodPost, "/api/submissions", "", map[string]string{
		"campaign_id": "42",
		"creator_id":  "1234567890",
		"platform":    "youtube",
		"video_url":   "https://youtu.be/dQw4w9WgXcQ",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created submissiondomain.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	got := do(s, http.MethodGet, "/api/submissions/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, got.Code)

	missing := do(s, http.MethodGet, "/api/submissions/999999999", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListSubmissionsByCreator(t *testing.T) {
	s := newTestServer(t, &stubEngagement{})

	for _, u := range []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
	} {
		rec := do(s, http.MethodPost, "/api/submissions", "", map[string]string{
			"campaign_id": "42",
			"creator_id":  "1234567890",
			"platform":    "youtube",
			"video_url":   u,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(s, http.MethodGet, "/api/submissions?creator_id=1234567890", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Submissions []submissiondomain.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Submissions, 2)
}
