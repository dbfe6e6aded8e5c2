package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/qipc-go/internal/infra/buildinfo"
	"github.com/yndnr/qipc-go/internal/infra/confloader"
	"github.com/yndnr/qipc-go/internal/infra/shutdown"
	"github.com/yndnr/qipc-go/internal/server/config"
	"github.com/yndnr/qipc-go/internal/server/qserver"
	"github.com/yndnr/qipc-go/internal/telemetry/logger"
	"github.com/yndnr/qipc-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		check       = flag.Bool("check", false, "Verify the configuration, print it and exit")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("qipc-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *check {
		out, err := yaml.Marshal(config.Sanitize(cfg))
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting qipc-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	srv := qserver.New(cfg,
		qserver.WithLogger(log.Slog()),
		qserver.WithMetrics(metric.Global()),
	)
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Limits.ShutdownTimeout, log.Slog())
	shutdownHandler.OnShutdown("ipc server", func(ctx context.Context) error {
		log.Info("shutting down IPC server", "sessions", srv.Sessions().Len())
		return srv.Shutdown(ctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger installs the redacting logger as the process default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}
