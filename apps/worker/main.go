package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/billing"
	"github.com/reclaimhq/reclaim/internal/claim"
	"github.com/reclaimhq/reclaim/internal/clock"
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/journal"
	"github.com/reclaimhq/reclaim/internal/lock"
	"github.com/reclaimhq/reclaim/internal/observability"
	"github.com/reclaimhq/reclaim/internal/submission"
	"github.com/reclaimhq/reclaim/internal/submission/worker"
	"github.com/reclaimhq/reclaim/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// Domain services required by the worker
		claim.Module,
		journal.Module,
		billing.Module,
		submission.Module,

		// No server module!
		worker.Module,
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
