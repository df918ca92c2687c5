package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apiserver "github.com/lingualab/curator/internal/api_server"
	"github.com/lingualab/curator/internal/client"
	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/events"
	"github.com/lingualab/curator/internal/service"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/worker"
	"github.com/lingualab/curator/pkg/log"
	"github.com/lingualab/curator/pkg/migrations"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the curation pipeline service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting curation pipeline service")
		defer zap.S().Info("Curation pipeline service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
				zap.S().Fatalw("running db migrations", "error", err)
			}
		} else if err := s.Migrate(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		producerOpts := []events.ProducerOptions{}
		if cfg.Service.EventTopic != "" {
			producerOpts = append(producerOpts, events.WithOutputTopic(cfg.Service.EventTopic))
		}
		producer := events.NewEventProducer(&events.StdoutWriter{}, producerOpts...)
		defer func() { _ = producer.Close() }()

		leases := service.NewLeaseService(s)
		transitions := service.NewTransitionService(s, producer)
		transformer := client.NewTransformerClient(cfg.Service.TransformerURL, 0)
		retries := service.NewRetryService(s, leases, transitions, transformer, cfg.Pipeline.MaxRetries, cfg.Pipeline.RetryBaseBackoff)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.HealthAddress)
			if err != nil {
				zap.S().Fatalw("creating health listener", "error", err)
			}

			server := apiserver.NewHealthServer(cfg, s, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running health server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			server := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			retryWorker := worker.NewRetryWorker(retries, cfg.Pipeline.RetryPollInterval)
			if err := retryWorker.Run(ctx); err != nil {
				zap.S().Errorw("retry worker stopped", "error", err)
			}
		}()

		go func() {
			defer cancel()
			reclaimer := worker.NewLeaseReclaimer(leases, cfg.Pipeline.ReclaimInterval, cfg.Pipeline.LeaseMaxAge)
			if err := reclaimer.Run(ctx); err != nil {
				zap.S().Errorw("lease reclaimer stopped", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
