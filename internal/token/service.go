package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	connectiondomain "github.com/brookejlacey/flowback/internal/connection/domain"
	"github.com/brookejlacey/flowback/internal/clock"
	obsmetrics "github.com/brookejlacey/flowback/internal/observability/metrics"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	"github.com/brookejlacey/flowback/internal/vault"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// refreshBuffer is how far before the recorded expiry a credential is
// already treated as expired.
const refreshBuffer = 5 * time.Minute

// ErrCredentialExpired means the access credential is expired and no refresh
// credential is stored. Terminal: the creator must reconnect the platform.
var ErrCredentialExpired = errors.New("credential expired and no refresh credential available")

// Service guarantees callers a currently-valid plaintext access token for a
// platform connection, refreshing and persisting renewed credentials as
// needed. Refreshes are never retried; a failure terminates the caller's run.
type Service struct {
	vault       *vault.Vault
	connections connectiondomain.Repository
	connectors  *platformdomain.Registry
	clock       clock.Clock
	log         *zap.Logger
	metrics     *obsmetrics.Metrics
}

type Param struct {
	fx.In

	Vault       *vault.Vault
	Connections connectiondomain.Repository
	Connectors  *platformdomain.Registry
	Clock       clock.Clock
	Log         *zap.Logger
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

func NewService(p Param) *Service {
	return &Service{
		vault:       p.Vault,
		connections: p.Connections,
		connectors:  p.Connectors,
		clock:       p.Clock,
		log:         p.Log.Named("token.service"),
		metrics:     p.Metrics,
	}
}

// ValidAccessToken returns a plaintext access token that is valid for at
// least the refresh buffer. When a refresh happens, the renewed credentials
// are persisted before the token is returned. Concurrent calls for the same
// connection may both refresh; the last persisted write wins.
func (s *Service) ValidAccessToken(ctx context.Context, conn *connectiondomain.PlatformConnection) (string, error) {
	accessToken, err := s.vault.Decrypt(conn.AccessToken)
	if err != nil {
		return "", fmt.Errorf("decrypt access token: %w", err)
	}

	if conn.ExpiresAt == nil || conn.ExpiresAt.After(s.clock.Now().Add(refreshBuffer)) {
		return accessToken, nil
	}

	if conn.RefreshToken == "" {
		return "", ErrCredentialExpired
	}

	refreshToken, err := s.vault.Decrypt(conn.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	platform, err := platformdomain.ParsePlatform(conn.Platform)
	if err != nil {
		return "", err
	}
	connector, err := s.connectors.Connector(platform)
	if err != nil {
		return "", err
	}

	s.log.Info("refreshing access token",
		zap.String("platform", conn.Platform),
		zap.String("connection_id", conn.ID.String()),
	)

	renewed, err := connector.RefreshToken(ctx, refreshToken)
	if err != nil {
		s.metrics.RecordTokenRefresh(ctx, conn.Platform, "error")
		return "", fmt.Errorf("refresh %s token: %w", conn.Platform, err)
	}

	encryptedAccess, err := s.vault.Encrypt(renewed.AccessToken)
	if err != nil {
		return "", err
	}
	encryptedRefresh, err := s.vault.Encrypt(renewed.RefreshToken)
	if err != nil {
		return "", err
	}

	if err := s.connections.UpdateTokens(ctx, conn.ID, encryptedAccess, encryptedRefresh, renewed.ExpiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	s.metrics.RecordTokenRefresh(ctx, conn.Platform, "ok")
	return renewed.AccessToken, nil
}
