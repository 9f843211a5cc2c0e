package directmessage

import (
	"github.com/smallbiznis/chirp/internal/directmessage/repository"
	"github.com/smallbiznis/chirp/internal/directmessage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("directmessage.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
