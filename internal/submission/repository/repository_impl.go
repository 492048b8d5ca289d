package repository

import (
	"context"

	"github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/brookejlacey/flowback/pkg/db"
	"github.com/brookejlacey/flowback/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repositoryImpl struct {
	db    *gorm.DB
	store repository.Repository[domain.Submission]
}

func Provide(gdb *gorm.DB) domain.Repository {
	return &repositoryImpl{
		db:    gdb,
		store: repository.ProvideStore[domain.Submission](gdb),
	}
}

func (r *repositoryImpl) Create(ctx context.Context, submission *domain.Submission) error {
	if err := r.store.Create(ctx, submission); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicateSubmission
		}
		return err
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id snowflake.ID) (*domain.Submission, error) {
	return r.store.FindOne(ctx, &domain.Submission{ID: id})
}

func (r *repositoryImpl) FindByTuple(ctx context.Context, campaignID string, creatorID snowflake.ID, videoID string) (*domain.Submission, error) {
	return r.store.FindOne(ctx, &domain.Submission{
		CampaignID: campaignID,
		CreatorID:  creatorID,
		VideoID:    videoID,
	})
}

func (r *repositoryImpl) FindByVideo(ctx context.Context, platform, videoID string) (*domain.Submission, error) {
	return r.store.FindOne(ctx, &domain.Submission{
		Platform: platform,
		VideoID:  videoID,
	})
}

func (r *repositoryImpl) ListByCreator(ctx context.Context, creatorID snowflake.ID) ([]*domain.Submission, error) {
	return r.store.Find(ctx, &domain.Submission{CreatorID: creatorID},
		repository.OrderBy("created_at DESC"),
	)
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.SubmissionStatus) error {
	return r.store.Update(ctx, id.String(), map[string]any{"status": status})
}
