package engagement

import (
	"github.com/brookejlacey/flowback/internal/engagement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("engagement",
	fx.Provide(service.NewService),
)
