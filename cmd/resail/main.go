package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/resailhq/resail/internal/accountlink"
	"github.com/resailhq/resail/internal/audit"
	"github.com/resailhq/resail/internal/clock"
	"github.com/resailhq/resail/internal/config"
	"github.com/resailhq/resail/internal/customer"
	"github.com/resailhq/resail/internal/events"
	"github.com/resailhq/resail/internal/migration"
	"github.com/resailhq/resail/internal/observability"
	"github.com/resailhq/resail/internal/observability/logger"
	"github.com/resailhq/resail/internal/plan"
	"github.com/resailhq/resail/internal/pricing"
	"github.com/resailhq/resail/internal/seed"
	"github.com/resailhq/resail/internal/server"
	"github.com/resailhq/resail/internal/usage"
	"github.com/resailhq/resail/internal/usage/rollup"
	"github.com/resailhq/resail/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			return seed.EnsurePlans(conn)
		}),
		observability.Module,
		fx.Provide(events.NewOutbox),
		audit.Module,
		plan.Module,
		pricing.Module,
		customer.Module,
		accountlink.Module,
		usage.Module,
		rollup.Module,
		server.Module,
	)
	app.Run()
}
