package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingualab/curator/pkg/requestid"
)

// StructuredLogger is the per-component operation logger used by the service
// layer. An operation is opened with Operation(...).Build() and closed with
// tracer.Success()/tracer.Error(err) followed by Log().
type StructuredLogger struct {
	logger *zap.SugaredLogger
	debug  bool
}

func NewStructuredLogger(component string) *StructuredLogger {
	return &StructuredLogger{logger: zap.S().Named(component)}
}

// NewDebugLogger logs operation starts at debug level as well as completions.
func NewDebugLogger(component string) *StructuredLogger {
	return &StructuredLogger{logger: zap.S().Named(component), debug: true}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	if id := requestid.FromContext(ctx); id != "" {
		return &StructuredLogger{logger: l.logger.With("request_id", id), debug: l.debug}
	}
	return l
}

func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	return &OperationBuilder{logger: l, name: name}
}

type OperationBuilder struct {
	logger *StructuredLogger
	name   string
	fields []any
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithFloat(key string, value float64) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, key, value.String())
	return b
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	logger := b.logger.logger.With(b.fields...).With("operation", b.name)
	if b.logger.debug {
		logger.Debugw("operation started")
	}
	return &OperationTracer{logger: logger, startedAt: time.Now()}
}

type OperationTracer struct {
	logger    *zap.SugaredLogger
	startedAt time.Time
}

func (t *OperationTracer) Success() *ResultBuilder {
	return &ResultBuilder{tracer: t, success: true}
}

func (t *OperationTracer) Error(err error) *ResultBuilder {
	return &ResultBuilder{tracer: t, err: err}
}

type ResultBuilder struct {
	tracer  *OperationTracer
	success bool
	err     error
	fields  []any
}

func (r *ResultBuilder) WithString(key, value string) *ResultBuilder {
	r.fields = append(r.fields, key, value)
	return r
}

func (r *ResultBuilder) WithInt(key string, value int) *ResultBuilder {
	r.fields = append(r.fields, key, value)
	return r
}

func (r *ResultBuilder) WithBool(key string, value bool) *ResultBuilder {
	r.fields = append(r.fields, key, value)
	return r
}

func (r *ResultBuilder) WithParam(key string, value any) *ResultBuilder {
	r.fields = append(r.fields, key, value)
	return r
}

func (r *ResultBuilder) Log() {
	logger := r.tracer.logger.With(r.fields...).With("duration", time.Since(r.tracer.startedAt))
	if r.success {
		logger.Infow("operation completed")
		return
	}
	logger.Errorw("operation failed", "error", r.err)
}
