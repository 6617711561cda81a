// Command plannerctl inspects and maintains the persisted collection directly in the configured store.
//
//	plannerctl show
//	plannerctl reset [-courses 7]
//	plannerctl export -course 3 [-format csv|pdf] [-out file]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/repository"
	"github.com/MrTune/Sem-Planner/internal/service"
	"github.com/MrTune/Sem-Planner/pkg/clock"
	"github.com/MrTune/Sem-Planner/pkg/config"
	"github.com/MrTune/Sem-Planner/pkg/logger"
)

const commandTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	origin := "plannerctl-" + uuid.NewString()
	store, err := repository.OpenBlobStore(ctx, cfg, origin, logr)
	if err != nil {
		logr.Fatal("failed to open blob store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	gateway := service.NewCollectionGateway(store, service.GatewayConfig{
		Key:         cfg.Store.Key,
		SeedCourses: cfg.Planner.SeedCourses,
	}, nil, metrics, logr)
	planner := service.NewPlanner(gateway, clock.System{}, service.PlannerConfig{
		Location:      cfg.Planner.Location(),
		UpcomingLimit: cfg.Planner.UpcomingLimit,
		Origin:        origin,
		StoreDriver:   cfg.Store.Driver,
		StoreKey:      cfg.Store.Key,
	}, nil, metrics, logr)

	switch os.Args[1] {
	case "show":
		err = show(ctx, planner)
	case "reset":
		err = reset(ctx, planner, cfg.Planner.SeedCourses, os.Args[2:])
	case "export":
		err = exportCourse(ctx, planner, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: plannerctl show | reset [-courses N] | export -course ID [-format csv|pdf] [-out FILE]")
}

func show(ctx context.Context, planner *service.Planner) error {
	result, err := planner.Load(ctx)
	if err != nil {
		return err
	}
	overview, err := planner.Overview(ctx)
	if err != nil {
		return err
	}
	load := map[string]interface{}{
		"status":    result.Status,
		"seeded":    result.Seeded,
		"loaded_at": result.LoadedAt,
	}
	if result.Err != nil {
		load["error"] = result.Err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"load":     load,
		"overview": overview,
	})
}

func reset(ctx context.Context, planner *service.Planner, defaultCount int, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	count := fs.Int("courses", defaultCount, "number of placeholder courses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	col, err := planner.Reset(ctx, *count)
	if err != nil {
		return err
	}
	fmt.Printf("reset collection to %d courses\n", len(col.Courses))
	return nil
}

func exportCourse(ctx context.Context, planner *service.Planner, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	courseID := fs.Int("course", 0, "course id")
	format := fs.String("format", string(service.ExportFormatCSV), "csv or pdf")
	out := fs.String("out", "", "output file, defaults to the generated filename")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *courseID <= 0 {
		return fmt.Errorf("-course is required")
	}

	exporter := service.NewExportService(planner, nil, nil, nil)
	result, err := exporter.ExportCourse(ctx, *courseID, service.ExportFormat(*format))
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = result.Filename
	}
	if err := os.WriteFile(path, result.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", path, len(result.Body))
	return nil
}
