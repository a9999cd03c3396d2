package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"github.com/uaesivakumar/upr-os-sub012/internal/lease"
	"github.com/uaesivakumar/upr-os-sub012/internal/migration"
	"github.com/uaesivakumar/upr-os-sub012/internal/observability"
	"github.com/uaesivakumar/upr-os-sub012/internal/server"
	"github.com/uaesivakumar/upr-os-sub012/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lease.Module,
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
