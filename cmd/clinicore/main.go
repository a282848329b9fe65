package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/careloop/clinicore/internal/clock"
	"github.com/careloop/clinicore/internal/config"
	"github.com/careloop/clinicore/internal/migration"
	"github.com/careloop/clinicore/internal/observability"
	"github.com/careloop/clinicore/internal/server"
	"github.com/careloop/clinicore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
