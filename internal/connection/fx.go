package connection

import (
	"github.com/brookejlacey/flowback/internal/connection/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("connection",
	fx.Provide(repository.Provide),
)
