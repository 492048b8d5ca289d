package repository

import (
	"context"
	"time"

	"github.com/brookejlacey/flowback/internal/connection/domain"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	"github.com/brookejlacey/flowback/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repositoryImpl struct {
	db    *gorm.DB
	store repository.Repository[domain.PlatformConnection]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repositoryImpl{
		db:    db,
		store: repository.ProvideStore[domain.PlatformConnection](db),
	}
}

func (r *repositoryImpl) FindByUserAndPlatform(ctx context.Context, userID snowflake.ID, platform platformdomain.Platform) (*domain.PlatformConnection, error) {
	return r.store.FindOne(ctx, &domain.PlatformConnection{
		UserID:   userID,
		Platform: platform.String(),
	})
}

func (r *repositoryImpl) UpdateTokens(ctx context.Context, id snowflake.ID, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.store.Update(ctx, id.String(), map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    expiresAt,
	})
}
