package submission

import (
	"github.com/brookejlacey/flowback/internal/submission/repository"
	"github.com/brookejlacey/flowback/internal/submission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("submission",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
