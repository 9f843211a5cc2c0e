package grouppost

import (
	"github.com/smallbiznis/chirp/internal/grouppost/repository"
	"github.com/smallbiznis/chirp/internal/grouppost/service"
	"go.uber.org/fx"
)

var Module = fx.Module("grouppost.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
