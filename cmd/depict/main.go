package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/depictapp/depict/internal/clock"
	"github.com/depictapp/depict/internal/config"
	"github.com/depictapp/depict/internal/logger"
	"github.com/depictapp/depict/internal/migration"
	"github.com/depictapp/depict/internal/server"
	"github.com/depictapp/depict/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional Domains
		server.Module,
		migration.Module,
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
