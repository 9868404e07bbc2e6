package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/google/uuid"
)

// DefaultImportTimeout bounds a single import call.
const DefaultImportTimeout = 5 * time.Minute

// Recorder receives the result of every import call.
// Satisfied by *metrics.Metrics.
type Recorder interface {
	ObserveImport(result ImportResult, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveImport(ImportResult, error) {}

// ServiceConfig holds the import settings the service needs.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWaitTime   time.Duration
	Timeout       time.Duration
}

// Service is the entry point for contact imports.
// It bounds concurrency, wraps the stream and reports every call to the Recorder.
type Service struct {
	store    Store
	limiter  *ImportLimiter
	timeout  time.Duration
	recorder Recorder
}

// NewService creates a Service persisting into store.
func NewService(store Store, cfg ServiceConfig, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	return &Service{
		store:    store,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		timeout:  cfg.Timeout,
		recorder: recorder,
	}
}

// Import runs one import call over src and closes it.
//
// Returns ErrTooManyImports if no slot frees up in time. Any other error means
// the stream could not be read to the end; the result then holds the partial
// outcome for logging but must not be shown as a success.
func (s *Service) Import(ctx context.Context, fileName string, src io.ReadCloser, size int64) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		src.Close()
		s.recorder.ObserveImport(ImportResult{FileName: fileName, Phase: PhaseFailed}, err)
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	importID := uuid.New()
	fields := append([]any{
		"import_id", importID.String(),
		"file", fileName,
	}, clientLogFields(ctx)...)
	logger := logging.WithFields(ctx, fields...)
	logger.Info("import started", "bytes_total", size)

	importCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	counter := WrapForStreaming(src, size)
	stream := struct {
		io.Reader
		io.Closer
	}{counter, src}

	outcome, err := NewImporter(s.store, logger).ImportWithID(importCtx, importID, stream)

	result := ImportResult{
		ImportID:  importID,
		FileName:  fileName,
		Phase:     PhaseComplete,
		Outcome:   outcome,
		BytesRead: counter.BytesRead,
		Duration:  time.Since(start),
	}

	if err != nil {
		result.Phase = PhaseFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.Phase = PhaseCancelled
		}
		logger.Error("import failed",
			"phase", result.Phase,
			"progress_pct", counter.Progress(),
			"inserted", outcome.Inserted,
			"skipped", outcome.Skipped,
			"error", err,
		)
		s.recorder.ObserveImport(result, err)
		return &result, fmt.Errorf("import %s: %w", fileName, err)
	}

	logger.Info("import completed",
		"inserted", outcome.Inserted,
		"skipped", outcome.Skipped,
		"bytes_read", result.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)
	s.recorder.ObserveImport(result, nil)
	return &result, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus returns the current import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

