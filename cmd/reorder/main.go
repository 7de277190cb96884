package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/atk-reorder/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	// Initialize database connection
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(c.Context); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Store the database connection in the context
	c.Context = context.WithValue(c.Context, dbKey, postgres.Wrap(sqlx.NewDb(db, "pgx"), 0))
	return nil
}

func closeDB(c *cli.Context) error {
	// Close the database connection when done
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return db, nil
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Server.LogLevel)

	app := &cli.App{
		Name:  "reorder",
		Usage: "Recompute and inspect ATK usage health and reorder recommendations",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "recompute",
				Usage: "Recompute analytics and recommendations for every active item",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Concurrent item workers (overrides ENGINE_WORKERS)",
						EnvVars: []string{"ENGINE_WORKERS"},
						Value:   cfg.Engine.Workers,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Abort the run after this long; persisted rows stay and a rerun is safe",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runRecompute(c, cfg)
				},
			},
			{
				Name:  "fetch",
				Usage: "Print the latest analytics or recommendations as JSON",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "analytics or recommendations",
						Value: "recommendations",
					},
					&cli.StringFlag{Name: "status", Usage: "Filter analytics by health status"},
					&cli.StringFlag{Name: "priority", Usage: "Filter recommendations by priority"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum rows to print"},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runFetch(c, cfg)
				},
			},
			{
				Name:  "export",
				Usage: "Write the latest results to an XLSX workbook",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "analytics or recommendations",
						Value: "recommendations",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file (defaults to a timestamped name in APP_EXPORT_DIR)",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Also upload the workbook to object storage",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runExport(c, cfg)
				},
			},
			{
				Name:   "uploads",
				Usage:  "List workbooks uploaded to object storage",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runUploads(c, cfg)
				},
			},
			{
				Name:  "seed",
				Usage: "Load ATK items and stock movements from CSV files",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "items",
						Usage:   "CSV with name,unit,stock_quantity,min_stock,price,lead_time_days",
						Value:   "./data/seeds/atk_items.csv",
						EnvVars: []string{"SEED_ITEMS_FILE"},
					},
					&cli.StringFlag{
						Name:    "movements",
						Usage:   "CSV with item_name,type,quantity,created_at,note",
						Value:   "./data/seeds/atk_stock_movements.csv",
						EnvVars: []string{"SEED_MOVEMENTS_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSeed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("reorder command failed")
	}
}
