package platform

import (
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/platform/adapters/tiktok"
	"github.com/brookejlacey/flowback/internal/platform/adapters/youtube"
	"github.com/brookejlacey/flowback/internal/platform/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("platform",
	fx.Provide(func(cfg config.Config) *domain.Registry {
		return domain.NewRegistry(
			youtube.New(youtube.Config{
				ClientID:     cfg.YouTubeClientID,
				ClientSecret: cfg.YouTubeClientSecret,
			}),
			tiktok.New(tiktok.Config{
				ClientKey:    cfg.TikTokClientKey,
				ClientSecret: cfg.TikTokClientSecret,
			}),
		)
	}),
)
