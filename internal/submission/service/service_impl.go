package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/bwmarrin/snowflake"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	repo  domain.Repository
	genID *snowflake.Node
	log   *zap.Logger
}

type Param struct {
	fx.In

	Repo  domain.Repository
	GenID *snowflake.Node
	Log   *zap.Logger
}

func NewService(p Param) *Service {
	return &Service{
		repo:  p.Repo,
		genID: p.GenID,
		log:   p.Log.Named("submission.service"),
	}
}

type CreateInput struct {
	CampaignID string
	CreatorID  snowflake.ID
	Platform   string
	VideoURL   string
}

// Create registers a video for a campaign. The same (campaign, creator,
// video) tuple is rejected with ErrDuplicateSubmission on any later attempt.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Submission, error) {
	platform, err := platformdomain.ParsePlatform(input.Platform)
	if err != nil {
		return nil, err
	}

	videoID := ExtractVideoID(platform, input.VideoURL)
	if videoID == "" {
		return nil, domain.ErrInvalidVideoURL
	}

	submission := &domain.Submission{
		ID:         s.genID.Generate(),
		CampaignID: strings.TrimSpace(input.CampaignID),
		CreatorID:  input.CreatorID,
		Platform:   platform.String(),
		VideoID:    videoID,
		VideoURL:   input.VideoURL,
		Status:     domain.SubmissionStatusPending,
	}
	if !submission.ValidateCreate() {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.repo.FindByTuple(ctx, submission.CampaignID, submission.CreatorID, submission.VideoID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateSubmission
	}

	// The unique index backs this up if two requests race past the lookup.
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.log.Info("submission created",
		zap.String("submission_id", submission.ID.String()),
		zap.String("campaign_id", submission.CampaignID),
		zap.String("platform", submission.Platform),
		zap.String("video_id", submission.VideoID),
	)
	return submission, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, domain.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *Service) ListByCreator(ctx context.Context, creatorID snowflake.ID) ([]*domain.Submission, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

// RecordVerification moves a submission to its terminal pipeline status.
func (s *Service) RecordVerification(ctx context.Context, platform, videoID string, status domain.SubmissionStatus) error {
	submission, err := s.repo.FindByVideo(ctx, platform, videoID)
	if err != nil {
		return err
	}
	if submission == nil {
		return domain.ErrSubmissionNotFound
	}
	return s.repo.UpdateStatus(ctx, submission.ID, status)
}

var tiktokVideoPattern = regexp.MustCompile(`video/(\d+)`)

// ExtractVideoID pulls the provider video id out of a share URL. Empty means
// the URL does not belong to the platform.
func ExtractVideoID(platform platformdomain.Platform, rawURL string) string {
	switch platform {
	case platformdomain.PlatformYouTube:
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		if strings.Contains(parsed.Hostname(), "youtube.com") {
			return parsed.Query().Get("v")
		}
		if parsed.Hostname() == "youtu.be" {
			return strings.TrimPrefix(parsed.Path, "/")
		}
		return ""
	case platformdomain.PlatformTikTok:
		match := tiktokVideoPattern.FindStringSubmatch(rawURL)
		if len(match) == 2 {
			return match[1]
		}
		return ""
	default:
		return ""
	}
}
