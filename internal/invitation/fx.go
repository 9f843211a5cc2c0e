package invitation

import (
	"github.com/smallbiznis/chirp/internal/invitation/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.store",
	fx.Provide(repository.NewRepository),
)
