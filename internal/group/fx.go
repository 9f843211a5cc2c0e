package group

import (
	"github.com/smallbiznis/chirp/internal/group/repository"
	"github.com/smallbiznis/chirp/internal/group/service"
	"go.uber.org/fx"
)

var Module = fx.Module("group.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
