package domain

import (
	"context"
	"errors"
	"time"

	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrSubmissionNotFound = errors.New("no submission found for video")
	ErrConnectionNotFound = errors.New("no platform connection found for creator")
)

// MetricSnapshot is one append-only audit row per successful fetch. The
// pipeline never mutates or deletes snapshots.
type MetricSnapshot struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	SubmissionID snowflake.ID   `json:"submission_id" gorm:"not null;index"`
	RawMetrics   datatypes.JSON `json:"raw_metrics" gorm:"type:jsonb;not null"`
	CapturedAt   time.Time      `json:"captured_at" gorm:"not null"`
}

func (MetricSnapshot) TableName() string { return "metric_snapshots" }

// Service is the single read path for engagement metrics. It performs no
// caching of its own: replicas of the verification workflow are responsible
// for converging on one observed response.
type Service interface {
	VideoMetrics(ctx context.Context, platform platformdomain.Platform, videoID string) (platformdomain.VideoMetrics, error)
}
