package usecase

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/allisson/textdrop/internal/metrics"
)

// blobUseCaseWithMetrics decorates BlobUseCase with metrics instrumentation.
type blobUseCaseWithMetrics struct {
	next    BlobUseCase
	metrics metrics.BusinessMetrics
}

// NewBlobUseCaseWithMetrics wraps a BlobUseCase with metrics recording.
func NewBlobUseCaseWithMetrics(useCase BlobUseCase, m metrics.BusinessMetrics) BlobUseCase {
	return &blobUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// LocationFor is not instrumented.
func (b *blobUseCaseWithMetrics) LocationFor(code string) string {
	return b.next.LocationFor(code)
}

// Save records metrics for save operations.
func (b *blobUseCaseWithMetrics) Save(ctx context.Context, code, payload string) error {
	start := time.Now()
	err := b.next.Save(ctx, code, payload)

	b.record(ctx, metrics.OperationSave, start, err)
	if err == nil {
		b.metrics.RecordPayloadSize(ctx, metrics.OperationSave, utf8.RuneCountInString(payload))
	}

	return err
}

// Fetch records metrics for fetch operations.
func (b *blobUseCaseWithMetrics) Fetch(ctx context.Context, code string) (string, error) {
	start := time.Now()
	payload, err := b.next.Fetch(ctx, code)

	b.record(ctx, metrics.OperationFetch, start, err)
	if err == nil {
		b.metrics.RecordPayloadSize(ctx, metrics.OperationFetch, utf8.RuneCountInString(payload))
	}

	return payload, err
}

// record emits the count and duration of one operation, labelled with the
// class of its error.
func (b *blobUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	b.metrics.RecordOperation(ctx, operation, metrics.StatusOf(err), time.Since(start))
}
