package status

import (
	"github.com/smallbiznis/chirp/internal/status/repository"
	"github.com/smallbiznis/chirp/internal/status/service"
	"go.uber.org/fx"
)

var Module = fx.Module("status.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
