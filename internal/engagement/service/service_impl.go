package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brookejlacey/flowback/internal/clock"
	"github.com/brookejlacey/flowback/internal/config"
	connectiondomain "github.com/brookejlacey/flowback/internal/connection/domain"
	"github.com/brookejlacey/flowback/internal/engagement/domain"
	obsmetrics "github.com/brookejlacey/flowback/internal/observability/metrics"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/brookejlacey/flowback/internal/token"
	"github.com/brookejlacey/flowback/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	submissions submissiondomain.Repository
	connections connectiondomain.Repository
	connectors  *platformdomain.Registry
	tokens      *token.Service
	snapshots   repository.Repository[domain.MetricSnapshot]
	genID       *snowflake.Node
	clock       clock.Clock
	log         *zap.Logger
	metrics     *obsmetrics.Metrics
	mockMetrics bool
}

type Param struct {
	fx.In

	DB          *gorm.DB
	Cfg         config.Config
	Submissions submissiondomain.Repository
	Connections connectiondomain.Repository
	Connectors  *platformdomain.Registry
	Tokens      *token.Service
	GenID       *snowflake.Node
	Clock       clock.Clock
	Log         *zap.Logger
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

func NewService(p Param) domain.Service {
	return &Service{
		submissions: p.Submissions,
		connections: p.Connections,
		connectors:  p.Connectors,
		tokens:      p.Tokens,
		snapshots:   repository.ProvideStore[domain.MetricSnapshot](p.DB),
		genID:       p.GenID,
		clock:       p.Clock,
		log:         p.Log.Named("engagement.service"),
		metrics:     p.Metrics,
		mockMetrics: p.Cfg.MockMetrics,
	}
}

// VideoMetrics resolves a (platform, videoId) pair to normalized engagement
// metrics: submission → creator's platform connection → valid access token →
// connector fetch, then appends one audit snapshot.
func (s *Service) VideoMetrics(ctx context.Context, platform platformdomain.Platform, videoID string) (platformdomain.VideoMetrics, error) {
	if s.mockMetrics {
		return mockResponse(s.clock.Now()), nil
	}

	submission, err := s.submissions.FindByVideo(ctx, platform.String(), videoID)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	if submission == nil {
		return platformdomain.VideoMetrics{}, domain.ErrSubmissionNotFound
	}

	connection, err := s.connections.FindByUserAndPlatform(ctx, submission.CreatorID, platform)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}
	if connection == nil {
		return platformdomain.VideoMetrics{}, domain.ErrConnectionNotFound
	}

	accessToken, err := s.tokens.ValidAccessToken(ctx, connection)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}

	connector, err := s.connectors.Connector(platform)
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}

	metrics, err := connector.FetchVideoMetrics(ctx, videoID, accessToken)
	if err != nil {
		s.metrics.RecordMetricFetch(ctx, platform.String(), "error")
		return platformdomain.VideoMetrics{}, err
	}
	s.metrics.RecordMetricFetch(ctx, platform.String(), "ok")

	if err := s.appendSnapshot(ctx, submission.ID, metrics); err != nil {
		// The fetch itself succeeded; a failed audit write is a hard error
		// because replay depends on the trail being complete.
		return platformdomain.VideoMetrics{}, fmt.Errorf("append metric snapshot: %w", err)
	}

	s.log.Info("metrics fetched",
		zap.String("platform", platform.String()),
		zap.String("video_id", videoID),
		zap.Int64("view_count", metrics.ViewCount),
	)
	return metrics, nil
}

func (s *Service) appendSnapshot(ctx context.Context, submissionID snowflake.ID, metrics platformdomain.VideoMetrics) error {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return s.snapshots.Create(ctx, &domain.MetricSnapshot{
		ID:           s.genID.Generate(),
		SubmissionID: submissionID,
		RawMetrics:   raw,
		CapturedAt:   s.clock.Now(),
	})
}

func mockResponse(now time.Time) platformdomain.VideoMetrics {
	return platformdomain.VideoMetrics{
		ViewCount:    15234,
		LikeCount:    892,
		CommentCount: 45,
		ShareCount:   12,
		FetchedAt:    now,
	}
}
