package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/ingest"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/pkg/log"
)

var (
	ingestName     string
	ingestLanguage string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [object-key]",
	Short: "Ingest an uploaded vocabulary workbook into documents and chunks",
	Args:  cobra.ExactArgs(1),
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

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		fetcher, err := ingest.NewMinioFetcher(
			ingest.WithEndpoint(cfg.Objects.Endpoint),
			ingest.WithBucket(cfg.Objects.Bucket),
			ingest.WithAccessKey(cfg.Objects.AccessKey),
			ingest.WithSecretKey(cfg.Objects.SecretKey),
			ingest.WithSSL(cfg.Objects.UseSSL),
		)
		if err != nil {
			zap.S().Fatalw("creating object store client", "error", err)
		}

		document, err := ingest.NewService(s, fetcher).IngestVocabulary(cmd.Context(), ingestName, ingestLanguage, args[0])
		if err != nil {
			zap.S().Fatalw("ingesting workbook", "error", err)
		}

		zap.S().Infow("workbook ingested", "document_id", document.ID, "status", document.Status)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "display name for the ingested document")
	ingestCmd.Flags().StringVar(&ingestLanguage, "language", "", "language code of the workbook content")
	_ = ingestCmd.MarkFlagRequired("name")
	_ = ingestCmd.MarkFlagRequired("language")
}
