package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/siphon-data/siphon/internal/runner"
	"github.com/siphon-data/siphon/pkg/config"
	"github.com/siphon-data/siphon/pkg/connector/registry"
	"github.com/siphon-data/siphon/pkg/logger"

	// Import available source connectors to register them
	_ "github.com/siphon-data/siphon/pkg/connector/sources/http"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "siphon",
		Short:   "Siphon polls HTTP APIs into record streams",
		Version: version,
	}

	var (
		configPath     string
		sourceName     string
		checkpointPath string
		outputPath     string
		logLevel       string
		metricsAddr    string
		once           bool
		traceStdout    bool
	)

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the poll loop for a configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Config{Level: logLevel, Encoding: "json"}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if traceStdout {
				exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
				if err != nil {
					return fmt.Errorf("failed to create trace exporter: %w", err)
				}
				tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
				otel.SetTracerProvider(tp)
				defer func() { _ = tp.Shutdown(context.Background()) }()
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			source, err := registry.CreateSource(sourceName, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = source.Close() }()

			out := os.Stdout
			if outputPath != "" {
				f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) //nolint:gosec
				if err != nil {
					return fmt.Errorf("failed to open output file: %w", err)
				}
				out = f
			}
			sink := runner.NewJSONLinesSink(out)
			defer func() { _ = sink.Close() }()

			if metricsAddr != "" {
				go serveMetrics(metricsAddr)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r := runner.New(cfg, source, sink, runner.NewCheckpointStore(checkpointPath))
			r.Once = once

			logger.Info("starting poll loop",
				zap.String("source", cfg.Name),
				zap.String("server_uri", cfg.ServerURI),
				zap.String("endpoint", cfg.Endpoint))
			return r.Run(ctx)
		},
	}

	run.Flags().StringVarP(&configPath, "config", "c", "siphon.yaml", "path to the source configuration file")
	run.Flags().StringVar(&sourceName, "source", "http", "registered source connector to run")
	run.Flags().StringVar(&checkpointPath, "checkpoints", "", "path to the offset checkpoint file (empty disables persistence)")
	run.Flags().StringVarP(&outputPath, "output", "o", "", "deliver records to this file instead of stdout")
	run.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	run.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	run.Flags().BoolVar(&once, "once", false, "poll each partition once and exit")
	run.Flags().BoolVar(&traceStdout, "trace", false, "emit poll spans to stdout")

	list := &cobra.Command{
		Use:   "sources",
		Short: "List registered source connectors",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range registry.ListSources() {
				fmt.Println(name)
			}
		},
	}

	root.AddCommand(run, list)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // G114: operator-facing metrics listener
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
