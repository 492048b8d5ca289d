package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusVerifying SubmissionStatus = "verifying"
	SubmissionStatusVerified  SubmissionStatus = "verified"
	SubmissionStatusPaid      SubmissionStatus = "paid"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// Submission is one creator video entered into one campaign. At most one row
// may exist per (campaign, creator, video) tuple; duplicates are rejected,
// never merged.
type Submission struct {
	ID         snowflake.ID     `json:"id" gorm:"primaryKey"`
	CampaignID string           `json:"campaign_id" gorm:"type:text;not null;uniqueIndex:idx_submissions_campaign_creator_video"`
	CreatorID  snowflake.ID     `json:"creator_id" gorm:"not null;uniqueIndex:idx_submissions_campaign_creator_video;index"`
	Platform   string           `json:"platform" gorm:"type:text;not null;index:idx_submissions_platform_video"`
	VideoID    string           `json:"video_id" gorm:"type:text;not null;uniqueIndex:idx_submissions_campaign_creator_video;index:idx_submissions_platform_video"`
	VideoURL   string           `json:"video_url" gorm:"type:text;not null"`
	Status     SubmissionStatus `json:"status" gorm:"type:text;not null"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (Submission) TableName() string { return "submissions" }

func (s Submission) ValidateCreate() bool {
	return strings.TrimSpace(s.CampaignID) != "" &&
		s.CreatorID != 0 &&
		strings.TrimSpace(s.Platform) != "" &&
		strings.TrimSpace(s.VideoURL) != ""
}

type Repository interface {
	Create(ctx context.Context, submission *Submission) error
	FindByID(ctx context.Context, id snowflake.ID) (*Submission, error)
	FindByTuple(ctx context.Context, campaignID string, creatorID snowflake.ID, videoID string) (*Submission, error)
	FindByVideo(ctx context.Context, platform, videoID string) (*Submission, error)
	ListByCreator(ctx context.Context, creatorID snowflake.ID) ([]*Submission, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status SubmissionStatus) error
}
