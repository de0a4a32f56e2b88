package paystub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/evmosdao/paystub/internal/domain/printing"
	infra "github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/evmosdao/paystub/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportErrorKind identifies which part of the export failed
type ExportErrorKind string

const (
	KindRenderTargetMissing ExportErrorKind = "RENDER_TARGET_MISSING"
	KindExportInProgress    ExportErrorKind = "EXPORT_IN_PROGRESS"
	KindGuardUnavailable    ExportErrorKind = "GUARD_UNAVAILABLE"
	KindCaptureFailed       ExportErrorKind = "CAPTURE_FAILED"
	KindEmbedFailed         ExportErrorKind = "EMBED_FAILED"
	KindPersistFailed       ExportErrorKind = "PERSIST_FAILED"
)

// ExportError is returned by Exporter.Export. Errors of the same kind match
// with errors.Is, so callers can test against ErrRenderTargetMissing.
type ExportError struct {
	Kind ExportErrorKind
	Err  error
	// Job is the failed job, nil if the failure happened before one existed
	Job *printing.ExportJob
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Kind {
	case KindRenderTargetMissing:
		return "paystub layout has not been rendered"
	case KindExportInProgress:
		return "an export is already in progress for this session"
	}
	return string(e.Kind)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Is matches any ExportError of the same kind
func (e *ExportError) Is(target error) bool {
	t, ok := target.(*ExportError)
	return ok && t.Kind == e.Kind
}

// Sentinel export errors
var (
	ErrRenderTargetMissing = &ExportError{Kind: KindRenderTargetMissing}
	ErrExportInProgress    = &ExportError{Kind: KindExportInProgress}
)

// ExportGuard prevents overlapping exports of the same session.
// Without one, the exporter does not detect overlapping exports.
type ExportGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ExportRequest identifies what to export
type ExportRequest struct {
	// SessionID scopes the guard and the stored file
	SessionID uuid.UUID
	// Target is the rendered layout; nil if nothing was rendered yet
	Target *infra.Layout
}

// ExportResult is a successful export
type ExportResult struct {
	Job      *printing.ExportJob
	Bitmap   *infra.Bitmap
	Document *infra.Document
	Stored   *infra.StoreResult
}

// ExporterConfig holds export pipeline settings
type ExporterConfig struct {
	// FileName of the persisted document (default: evmos-dao-paystub.pdf)
	FileName string
	// Scale is the capture oversampling factor (default: 2)
	Scale float64
	// Timeout bounds one whole export; zero means the caller's deadline only
	Timeout time.Duration
	// GuardTTL bounds how long a crashed export can block its session (default: 2m)
	GuardTTL time.Duration
}

// Exporter runs capture -> paginate -> persist, strictly in that order.
type Exporter struct {
	rasterizer infra.Rasterizer
	paginator  infra.Paginator
	storage    infra.PDFStorage
	guard      ExportGuard
	metrics    *telemetry.ExportMetrics
	config     ExporterConfig
	logger     *zap.Logger
}

// ExporterOption configures an Exporter
type ExporterOption func(*Exporter)

// WithExportGuard sets the in-progress guard
func WithExportGuard(guard ExportGuard) ExporterOption {
	return func(e *Exporter) {
		e.guard = guard
	}
}

// WithExportMetrics sets the metrics recorder
func WithExportMetrics(m *telemetry.ExportMetrics) ExporterOption {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// WithExporterConfig overrides the pipeline settings
func WithExporterConfig(cfg ExporterConfig) ExporterOption {
	return func(e *Exporter) {
		e.config = cfg
	}
}

// WithExporterLogger sets the logger
func WithExporterLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter creates an export pipeline over the three stages
func NewExporter(
	rasterizer infra.Rasterizer,
	paginator infra.Paginator,
	storage infra.PDFStorage,
	opts ...ExporterOption,
) *Exporter {
	e := &Exporter{
		rasterizer: rasterizer,
		paginator:  paginator,
		storage:    storage,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.config.FileName == "" {
		e.config.FileName = infra.DefaultFileName
	}
	if e.config.Scale <= 0 {
		e.config.Scale = 2
	}
	if e.config.GuardTTL <= 0 {
		e.config.GuardTTL = 2 * time.Minute
	}
	return e
}

// FileName returns the name exported documents are stored under
func (e *Exporter) FileName() string {
	return e.config.FileName
}

// Export captures the target layout and persists it as a single-page PDF.
// A nil target fails with ErrRenderTargetMissing before any work is done.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (result *ExportResult, err error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "paystub_export", "export",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, req.SessionID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrFileName, e.config.FileName),
	)
	defer span.End()

	defer func() {
		outcome := OutcomeFor(err)
		code := ""
		var exportErr *ExportError
		if errors.As(err, &exportErr) {
			code = string(exportErr.Kind)
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, code)
		}
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		e.metrics.RecordOutcome(ctx, string(outcome.Kind), code, time.Since(started))
	}()

	if req.Target == nil {
		return nil, ErrRenderTargetMissing
	}

	key := req.SessionID.String()
	if e.guard != nil {
		token, acquired, err := e.guard.Acquire(ctx, key, e.config.GuardTTL)
		if err != nil {
			return nil, &ExportError{Kind: KindGuardUnavailable, Err: fmt.Errorf("export guard unavailable: %w", err)}
		}
		if !acquired {
			return nil, ErrExportInProgress
		}
		defer func() {
			// Release even when ctx has expired
			if relErr := e.guard.Release(context.WithoutCancel(ctx), key, token); relErr != nil {
				e.logger.Warn("failed to release export guard", zap.String("session_id", key), zap.Error(relErr))
			}
		}()
	}

	job, err := printing.NewExportJob(req.SessionID, e.config.FileName)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrExportJobID, job.ID.String())

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	logger := e.logger.With(
		zap.String("session_id", key),
		zap.String("job_id", job.ID.String()),
	)

	fail := func(kind ExportErrorKind, stageErr error) (*ExportResult, error) {
		return nil, failJob(logger, job, kind, stageErr)
	}

	// 1. capture
	if err := job.StartCapture(); err != nil {
		return nil, err
	}
	bitmap, err := e.capture(ctx, req.Target)
	if err != nil {
		return fail(KindCaptureFailed, err)
	}

	// 2. paginate
	if err := job.StartPagination(); err != nil {
		return nil, err
	}
	doc, err := e.paginate(ctx, bitmap)
	if err != nil {
		return fail(KindEmbedFailed, err)
	}

	// 3. persist
	if err := job.StartPersist(doc.PageCount); err != nil {
		return nil, err
	}
	stored, err := e.persist(ctx, req.SessionID, doc)
	if err != nil {
		return fail(KindPersistFailed, err)
	}

	location := stored.URL
	if location == "" {
		location = stored.Path
	}
	job.StoragePath = stored.Path
	if err := job.Complete(location, stored.Size); err != nil {
		return nil, err
	}

	logger.Info("paystub exported",
		zap.String("location", location),
		zap.Int("bitmap_width", bitmap.Width),
		zap.Int("bitmap_height", bitmap.Height),
		zap.Int("pages", doc.PageCount),
		zap.Int64("size", stored.Size),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &ExportResult{Job: job, Bitmap: bitmap, Document: doc, Stored: stored}, nil
}

// Open reads back a document persisted by Export
func (e *Exporter) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return e.storage.Get(ctx, storagePath)
}

// Discard deletes a document persisted by Export
func (e *Exporter) Discard(ctx context.Context, storagePath string) error {
	return e.storage.Delete(ctx, storagePath)
}

// failJob moves job to FAILED and builds the ExportError for kind.
// A job that cannot transition keeps its status and the refusal is logged.
func failJob(logger *zap.Logger, job *printing.ExportJob, kind ExportErrorKind, stageErr error) *ExportError {
	if jobErr := job.Fail(stageErr.Error()); jobErr != nil {
		logger.Warn("failed to mark export job as failed",
			zap.String("status", job.Status.String()),
			zap.Error(jobErr),
		)
	}
	logger.Error("paystub export failed",
		zap.String("kind", string(kind)),
		zap.String("status", job.Status.String()),
		zap.Error(stageErr),
	)
	return &ExportError{Kind: kind, Err: stageErr, Job: job}
}

func (e *Exporter) capture(ctx context.Context, target *infra.Layout) (*infra.Bitmap, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "paystub_export", "capture")
	defer span.End()
	defer func() { e.metrics.RecordStage(ctx, "capture", time.Since(started)) }()

	var (
		bitmap *infra.Bitmap
		err    error
	)
	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelStage: "capture"}, func(ctx context.Context) {
		bitmap, err = e.rasterizer.Rasterize(ctx, &infra.RasterizeRequest{
			HTML:     target.HTML,
			Selector: target.Selector,
			Scale:    e.config.Scale,
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrBitmapSize, fmt.Sprintf("%dx%d", bitmap.Width, bitmap.Height))
	return bitmap, nil
}

func (e *Exporter) paginate(ctx context.Context, bitmap *infra.Bitmap) (*infra.Document, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "paystub_export", "paginate")
	defer span.End()
	defer func() { e.metrics.RecordStage(ctx, "paginate", time.Since(started)) }()

	var (
		doc *infra.Document
		err error
	)
	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelStage: "paginate"}, func(ctx context.Context) {
		doc, err = e.paginator.Paginate(ctx, bitmap)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPageCount, doc.PageCount)
	return doc, nil
}

func (e *Exporter) persist(ctx context.Context, sessionID uuid.UUID, doc *infra.Document) (*infra.StoreResult, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "paystub_export", "persist")
	defer span.End()
	defer func() { e.metrics.RecordStage(ctx, "persist", time.Since(started)) }()

	stored, err := e.storage.Store(ctx, &infra.StoreRequest{
		Name:      e.config.FileName,
		SessionID: sessionID,
		PDFData:   doc.PDF,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPDFSize, stored.Size)
	return stored, nil
}
