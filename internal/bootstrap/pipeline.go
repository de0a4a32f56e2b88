// Package bootstrap assembles the paystub pipeline from configuration.
// Both the HTTP server and the CLI build their dependencies here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	paystubapp "github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/evmosdao/paystub/internal/domain/printing"
	"github.com/evmosdao/paystub/internal/infrastructure/cache"
	"github.com/evmosdao/paystub/internal/infrastructure/config"
	infra "github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/evmosdao/paystub/internal/infrastructure/storage"
	"github.com/evmosdao/paystub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Pipeline holds the components of the paystub export pipeline
type Pipeline struct {
	Renderer   *infra.TemplateEngine
	Logo       *infra.LogoResolver
	Rasterizer infra.Rasterizer
	Paginator  infra.Paginator
	Storage    infra.PDFStorage
	Guard      cache.ExportGuard
	Exporter   *paystubapp.Exporter

	logger  *zap.Logger
	closers []func() error
}

// PipelineOption configures NewPipeline
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	meter         *telemetry.MeterProvider
	allowFallback bool
}

// WithMeterProvider records export metrics on mp
func WithMeterProvider(mp *telemetry.MeterProvider) PipelineOption {
	return func(o *pipelineOptions) {
		o.meter = mp
	}
}

// WithGuardFallback allows an in-process export guard when Redis is configured but unreachable
func WithGuardFallback(allow bool) PipelineOption {
	return func(o *pipelineOptions) {
		o.allowFallback = allow
	}
}

// NewPipeline builds every pipeline component described by cfg. The logo
// resolver is created but not started.
func NewPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...PipelineOption) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := &pipelineOptions{allowFallback: true}
	for _, opt := range opts {
		opt(o)
	}

	p := &Pipeline{logger: log}

	p.Renderer = infra.NewTemplateEngine(
		infra.WithBarcodes(cfg.Render.Barcodes),
		infra.WithLogger(log),
	)

	p.Logo = infra.NewLogoResolver(&infra.LogoResolverConfig{
		Source:       infra.NewAssetSource(cfg.Logo.Source),
		MaxHeight:    cfg.Logo.MaxHeight,
		FetchTimeout: cfg.Logo.FetchTimeout,
		Logger:       log,
	})

	rasterizer, err := newRasterizer(cfg.Render, log)
	if err != nil {
		return nil, err
	}
	p.Rasterizer = rasterizer
	p.closers = append(p.closers, rasterizer.Close)

	p.Paginator = infra.NewFpdfPaginator(&infra.PaginatorConfig{
		PaperSize: printing.PaperSize(cfg.Render.PaperSize),
		Title:     infra.DocumentTitle,
		Author:    infra.DefaultBranding().OrgName,
		Logger:    log,
	})

	sink, err := newStorage(ctx, cfg, log)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Storage = sink

	guard, err := cache.NewExportGuardFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(o.allowFallback),
	).CreateGuard()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Guard = guard
	p.closers = append(p.closers, guard.Close)

	exporterOpts := []paystubapp.ExporterOption{
		paystubapp.WithExportGuard(guard),
		paystubapp.WithExporterLogger(log),
		paystubapp.WithExporterConfig(paystubapp.ExporterConfig{
			FileName: cfg.Export.FileName,
			Scale:    cfg.Render.Scale,
			Timeout:  cfg.Export.Timeout,
			GuardTTL: cfg.Export.GuardTTL,
		}),
	}
	if o.meter != nil {
		metrics, err := telemetry.NewExportMetrics(o.meter.Meter(telemetry.MeterName))
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create export metrics: %w", err)
		}
		exporterOpts = append(exporterOpts, paystubapp.WithExportMetrics(metrics))
	}
	p.Exporter = paystubapp.NewExporter(p.Rasterizer, p.Paginator, p.Storage, exporterOpts...)

	log.Info("Paystub pipeline ready",
		zap.String("rasterizer", cfg.Render.Rasterizer),
		zap.String("paper_size", cfg.Render.PaperSize),
		zap.String("sink", cfg.Export.Sink),
		zap.String("logo_source", cfg.Logo.Source),
	)
	return p, nil
}

// NewService builds a PaystubService over the pipeline
func (p *Pipeline) NewService(sessions *paystubapp.SessionStore, notifier paystubapp.Notifier) *paystubapp.PaystubService {
	return paystubapp.NewPaystubService(sessions, p.Renderer, p.Logo, p.Exporter, notifier, p.logger)
}

// Close releases the rasterizer and the export guard
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

func newRasterizer(cfg config.RenderConfig, log *zap.Logger) (infra.Rasterizer, error) {
	switch cfg.Rasterizer {
	case "wkhtmltoimage":
		r, err := infra.NewWkhtmltoimageRasterizer(&infra.WkhtmltoimageConfig{
			BinaryPath:     cfg.WkhtmltoimagePath,
			DefaultTimeout: cfg.Timeout,
			Scale:          cfg.Scale,
			Width:          int(cfg.ViewportWidth),
			Logger:         log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create wkhtmltoimage rasterizer: %w", err)
		}
		return r, nil
	default:
		r, err := infra.NewChromedpRasterizer(&infra.ChromedpConfig{
			DefaultTimeout: cfg.Timeout,
			RemoteURL:      cfg.ChromeRemoteURL,
			NoSandbox:      cfg.NoSandbox,
			Scale:          cfg.Scale,
			ViewportWidth:  cfg.ViewportWidth,
			Logger:         log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chromedp rasterizer: %w", err)
		}
		return r, nil
	}
}

func newStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (infra.PDFStorage, error) {
	switch cfg.Export.Sink {
	case "s3":
		s3, err := storage.NewS3PDFStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s: %w", s3.GetBucket(), err)
		}
		return s3, nil
	case "memory":
		return storage.NewMemoryPDFStorage(), nil
	default:
		fs, err := infra.NewFileSystemStorage(&infra.FileSystemStorageConfig{
			BasePath: cfg.Export.OutputDir,
			BaseURL:  cfg.Export.BaseURL,
			Logger:   log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create file storage: %w", err)
		}
		return fs, nil
	}
}
