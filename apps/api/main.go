package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/migration"
	"github.com/reclaimhq/reclaim/internal/observability"
	"github.com/reclaimhq/reclaim/internal/server"
	"github.com/reclaimhq/reclaim/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

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
