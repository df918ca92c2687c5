package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
)

// Service turns uploaded source files into documents with ordered chunks,
// ready for candidate extraction.
type Service struct {
	store   store.Store
	fetcher Fetcher
	logger  *log.StructuredLogger
}

func NewService(store store.Store, fetcher Fetcher) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		logger:  log.NewDebugLogger("ingest_service"),
	}
}

// IngestVocabulary fetches an uploaded workbook by object key, parses its
// vocabulary sheet and persists one chunk per valid row. The document and
// its chunks land in a single transaction.
func (s *Service) IngestVocabulary(ctx context.Context, name, language, objectKey string) (*model.Document, error) {
	tracer := s.logger.WithContext(ctx).Operation("ingest_vocabulary").
		WithString("name", name).
		WithString("language", language).
		WithString("object_key", objectKey).
		Build()

	content, err := s.fetcher.Fetch(ctx, objectKey)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	if !IsExcelFile(content) {
		err := errors.Errorf("object %q is not an xlsx workbook", objectKey)
		tracer.Error(err).Log()
		return nil, err
	}

	rows, err := ParseVocabularyWorkbook(content)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	document := model.Document{
		ID:        uuid.New(),
		Name:      name,
		Language:  language,
		SourceURI: fmt.Sprintf("%s://%s", s.fetcher.Type(), objectKey),
		Status:    model.DocumentStatusUploaded,
	}

	chunks := make([]model.DocumentChunk, 0, len(rows))
	for i, row := range rows {
		chunks = append(chunks, model.DocumentChunk{
			ID:         uuid.New(),
			DocumentID: document.ID,
			Position:   i,
			Text:       chunkText(row),
			Metadata: model.MakeJSONField(map[string]any{
				"headword":    row.Headword,
				"translation": row.Translation,
				"level":       row.Level,
			}),
		})
	}

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Document().Create(ctx, document)
	if err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}
	if err := s.store.Document().CreateChunks(ctx, chunks); err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}
	if err := s.store.Document().UpdateStatus(ctx, created.ID, model.DocumentStatusChunked); err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	created.Status = model.DocumentStatusChunked
	tracer.Success().WithParam("document_id", created.ID).WithInt("chunks", len(chunks)).Log()
	return created, nil
}

func chunkText(row VocabularyRow) string {
	text := fmt.Sprintf("%s - %s", row.Headword, row.Translation)
	if row.Example != "" {
		text = fmt.Sprintf("%s. %s", text, row.Example)
	}
	return text
}
