package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/serverless-otel/ingestd/internal/clock"
	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/api"
	"github.com/serverless-otel/ingestd/pkg/config"
	"github.com/serverless-otel/ingestd/pkg/ingest"
	"github.com/serverless-otel/ingestd/pkg/lease"
	"github.com/serverless-otel/ingestd/pkg/metrics"
	"github.com/serverless-otel/ingestd/pkg/writer"

	// Import prometheus metrics to register init() functions
	_ "github.com/serverless-otel/ingestd/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingest HTTP server",
	Long: `Run the ingest HTTP server.

Use --config to specify a configuration file, or rely on built-in defaults
overridden by INGEST_ environment variables.

Examples:
  # Start with defaults and environment overrides
  INGEST_LEASE_USE_S3_MUTEX=true ingestd serve

  # Start with a config file
  ingestd serve --config /etc/ingestd/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("ingestd starting", "version", Version, "config_source", getConfigSource(GetConfigFile()))

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled")
	} else {
		logger.Info("metrics disabled")
	}

	leaseMetrics := metrics.NewLeaseMetrics()

	leaseManager, leaseKind, err := buildLeaseManager(ctx, cfg, leaseMetrics)
	if err != nil {
		return fmt.Errorf("failed to build lease manager: %w", err)
	}
	logger.Info("lease backend configured", "kind", leaseKind)

	segmentWriter, writerKind := buildWriter(cfg)
	logger.Info("writer backend configured", "kind", writerKind)

	instanceID := uuid.NewString()
	logger.Info("instance id assigned", "instance_id", instanceID)

	handler := &ingest.Handler{
		InstanceID:    instanceID,
		Lease:         leaseManager,
		LeaseKind:     leaseKind,
		Writer:        segmentWriter,
		WriterKind:    writerKind,
		Now:           clock.Now,
		BucketMinutes: cfg.Storage.SegmentBucketSizeMinutes,
		LeaseMetrics:  leaseMetrics,
		WriterMetrics: metrics.NewWriterMetrics(),
	}

	apiConfig := api.APIConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	server := api.NewServer(apiConfig, handler, leaseManager)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("ingestd is running. Press Ctrl+C to stop.", "port", server.Port())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}

// buildLeaseManager constructs the lease manager selected by configuration
// and attaches lease instrumentation so conflict/timeout counters observed
// inside its Acquire retry loop are recorded. Validate already guarantees
// exactly one of the two modes is set.
func buildLeaseManager(ctx context.Context, cfg *config.Config, leaseMetrics metrics.LeaseMetrics) (lease.Manager, lease.Kind, error) {
	if cfg.Lease.UseS3Mutex {
		objCfg := lease.ObjectStoreConfig{
			Bucket:      cfg.Lease.SegmentLockBucket,
			ProfileName: cfg.Lease.ProfileName,
			TTL:         time.Duration(cfg.Lease.SegmentLockTTL) * time.Second,
			Timeout:     time.Duration(cfg.Lease.S3LockTimeoutSeconds) * time.Second,
			Delay:       time.Duration(cfg.Lease.S3LockDelaySeconds) * time.Second,
		}
		mgr, err := lease.NewObjectStoreManagerFromConfig(ctx, objCfg)
		if err != nil {
			return nil, "", err
		}
		mgr.SetMetrics(leaseMetrics)
		return mgr, lease.KindObjectStore, nil
	}

	fsCfg := lease.FilesystemConfig{
		BaseDir: cfg.Storage.SharedStorageBaseDir,
		Timeout: time.Duration(cfg.Lease.LockTimeoutMinutes) * time.Minute,
		Delay:   time.Duration(cfg.Lease.LockDelaySeconds) * time.Second,
	}
	mgr := lease.NewFilesystemManager(fsCfg)
	mgr.SetMetrics(leaseMetrics)
	return mgr, lease.KindFilesystem, nil
}

// buildWriter constructs the segment writer selected by configuration.
// Validate already guarantees exactly one of the two modes is set.
func buildWriter(cfg *config.Config) (writer.SegmentWriter, writer.Kind) {
	if cfg.Writer.UseSQLiteStorage {
		return writer.NewSQLiteWriter(cfg.Storage.SharedStorageBaseDir), writer.KindSQLite
	}
	return writer.NewColumnFileWriter(cfg.Storage.SharedStorageBaseDir), writer.KindColumnFile
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return "defaults"
}
