package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/auth/jwt"
	"github.com/smallbiznis/chirp/internal/authorization"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/content"
	"github.com/smallbiznis/chirp/internal/directmessage"
	"github.com/smallbiznis/chirp/internal/events"
	"github.com/smallbiznis/chirp/internal/group"
	"github.com/smallbiznis/chirp/internal/grouppost"
	"github.com/smallbiznis/chirp/internal/invitation"
	"github.com/smallbiznis/chirp/internal/migration"
	"github.com/smallbiznis/chirp/internal/observability"
	"github.com/smallbiznis/chirp/internal/ratelimit"
	"github.com/smallbiznis/chirp/internal/server"
	"github.com/smallbiznis/chirp/internal/status"
	"github.com/smallbiznis/chirp/internal/user"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/smallbiznis/chirp/pkg/redisconn"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		redisconn.Module,
		clock.Module,
		ratelimit.Module,
		events.Module,

		// Domain
		content.Module,
		authorization.Module,
		jwt.Module,
		user.Module,
		invitation.Module,
		group.Module,
		grouppost.Module,
		directmessage.Module,
		status.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
