package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
)

// PlatformConnection links a creator to one provider account. Token columns
// hold vault ciphertext; rows created before encryption hold plaintext and
// pass through the vault unchanged.
type PlatformConnection struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID         snowflake.ID `json:"user_id" gorm:"not null;uniqueIndex:idx_platform_connections_user_platform"`
	Platform       string       `json:"platform" gorm:"type:text;not null;uniqueIndex:idx_platform_connections_user_platform"`
	PlatformUserID string       `json:"platform_user_id" gorm:"type:text;not null"`
	AccessToken    string       `json:"-" gorm:"type:text;not null"`
	RefreshToken   string       `json:"-" gorm:"type:text"`
	ExpiresAt      *time.Time   `json:"expires_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (PlatformConnection) TableName() string { return "platform_connections" }

type Repository interface {
	FindByUserAndPlatform(ctx context.Context, userID snowflake.ID, platform platformdomain.Platform) (*PlatformConnection, error)

	// UpdateTokens persists a refreshed credential set. Concurrent refreshes
	// race; the last writer wins and callers must not assume their refresh is
	// still current on a later read.
	UpdateTokens(ctx context.Context, id snowflake.ID, accessToken, refreshToken string, expiresAt time.Time) error
}
