package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/app"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	return postgres.Migrate(db.DB.DB)
}

func runRecompute(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	cfg.Engine.Workers = c.Int("workers")
	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := c.Context
	if timeout := c.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summary, runErr := a.Service.Recompute(ctx, pipeline.TriggerCLI)
	if err := printJSON(c, summary); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("recompute failed: %w", runErr)
	}

	if summary.Failed > 0 {
		log.Warn().Int("failed", summary.Failed).Msg("some items were skipped; see warnings above")
	}
	return nil
}

func runFetch(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	kind, err := service.ParseResultKind(c.String("kind"))
	if err != nil {
		return err
	}
	filter, err := filterFromFlags(c)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	switch kind {
	case service.KindAnalytics:
		rows, err := a.Service.FetchAnalytics(c.Context, filter)
		if err != nil {
			return err
		}
		return printJSON(c, rows)
	default:
		rows, err := a.Service.FetchRecommendations(c.Context, filter)
		if err != nil {
			return err
		}
		return printJSON(c, rows)
	}
}

func runExport(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	kind, err := service.ParseResultKind(c.String("kind"))
	if err != nil {
		return err
	}

	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.Service.Export(c.Context, kind, domain.ResultFilter{})
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = filepath.Join(cfg.App.ExportDir, service.ExportFileName(kind, time.Now()))
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info().Str("file", out).Int("bytes", len(data)).Msg("export written")

	if c.Bool("upload") {
		if err := a.Service.Upload(c.Context, filepath.Base(out), data); err != nil {
			return fmt.Errorf("upload %s: %w", out, err)
		}
	}
	return nil
}

func filterFromFlags(c *cli.Context) (domain.ResultFilter, error) {
	var filter domain.ResultFilter

	if raw := c.String("status"); raw != "" {
		status, ok := domain.ParseHealthStatus(raw)
		if !ok {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = status
	}
	if raw := c.String("priority"); raw != "" {
		priority, ok := domain.ParsePriority(raw)
		if !ok {
			return filter, fmt.Errorf("invalid priority %q", raw)
		}
		filter.Priority = priority
	}
	if limit := c.Int("limit"); limit > 0 {
		filter.Limit = limit
	}

	return filter, nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runUploads(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	objects, err := a.Service.ListUploads(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, objects)
}
