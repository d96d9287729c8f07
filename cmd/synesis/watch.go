package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"synesis-hq/synesis/pkg/adapter"
	"synesis-hq/synesis/pkg/cli"
	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/export"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/telemetry/metrics"
)

var watchFlags struct {
	export  string
	metrics string
}

var watchCmd = &cobra.Command{
	Use:   "watch [project]",
	Short: "Recompile a project whenever its files change",
	Long: `Compile a project, then recompile it after every change to a project,
template, annotation, ontology or bibliography file below the project
directory. Templates and bibliographies are cached between compilations and
rebuilt only when their files change.

With metrics enabled (metrics.enabled in synesis.yaml, or --metrics) a
Prometheus endpoint is served while watching. With export.retention.days set,
stored runs are pruned on the export.retention.prune_schedule cron schedule.

Examples:
  # Watch the project in the current directory
  synesis watch

  # Export JSON after every successful compilation
  synesis watch --export json

  # Serve metrics on port 9464
  synesis watch --metrics 127.0.0.1:9464`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: watchProject,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.export, "export", "", "comma-separated formats exported after each successful compilation")
	watchCmd.Flags().StringVar(&watchFlags.metrics, "metrics", "", "serve Prometheus metrics on this address")
}

func watchProject(cmd *cobra.Command, args []string) error {
	cfg := *config.GetConfig()
	if watchFlags.metrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = watchFlags.metrics
	}
	formats, err := parseFormats(watchFlags.export)
	if err != nil {
		return cli.UsageError(err)
	}
	path, err := resolveProject(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var recorder compiler.Recorder
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
		recorder = collector
		stop := serveMetrics(collector, cfg.Metrics.Address)
		defer stop()
	}

	a := adapter.New(newCompiler(&cfg, recorder)).WithLogger(appLogger)
	exporter := export.NewExporter(&cfg.Export).WithLogger(appLogger)
	if collector != nil {
		a.WithMetrics(collector)
		exporter.WithMetrics(collector)
	}

	if cfg.Export.Retention.Days > 0 {
		store, err := export.OpenStore(ctx, &cfg.Export.SQLite, appLogger)
		if err != nil {
			return err
		}
		defer store.Close()

		pruner := export.NewPruner(store, &cfg.Export.Retention).WithLogger(appLogger)
		if collector != nil {
			pruner.WithMetrics(collector)
		}
		scheduler := export.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewConfigError("export.retention.prune_schedule", err.Error())
		}
		defer scheduler.Stop()
	}

	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)\n", filepath.Dir(path))
	return a.Watch(ctx, path, &cfg.Adapter, func(res *compiler.Result, err error) {
		if err != nil {
			if loadErr := loadError(err, out); !cli.Reported(loadErr) {
				fmt.Fprintf(out, "✗ %v\n", loadErr)
			}
			return
		}
		_ = cli.WriteDiagnostics(out, res, cli.FormatText, contextLines)
		if len(formats) == 0 || res.Failed() {
			return
		}
		outputs, err := exporter.Export(ctx, res, formats, false)
		if err != nil {
			fmt.Fprintf(out, "✗ export failed: %v\n", err)
			return
		}
		for _, o := range outputs {
			fmt.Fprintf(out, "  wrote %s (%s)\n", o.Path, o.Format)
		}
	})
}

// serveMetrics serves the collector's endpoint in the background and
// returns a function shutting the server down.
func serveMetrics(collector *metrics.Collector, address string) func() {
	srv := collector.NewServer()
	go func() {
		appLogger.Info("metrics endpoint listening", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
