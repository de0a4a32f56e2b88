package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout  = 30 * time.Second
	defaultCaptureScale   = 2.0
	defaultViewportWidth  = 900
	defaultViewportHeight = 1200
)

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// DefaultTimeout for capture operations
	DefaultTimeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional)
	// If empty, chromedp will launch a new browser instance
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Scale used when a request does not set one (default: 2.0)
	Scale float64
	// ViewportWidth and ViewportHeight size the page the layout is laid out in
	ViewportWidth  int64
	ViewportHeight int64
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRasterizer captures HTML elements using Chrome DevTools Protocol
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRasterizer creates a new chromedp-based rasterizer
func NewChromedpRasterizer(config *ChromedpConfig) (*ChromedpRasterizer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}

	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.Scale == 0 {
		config.Scale = defaultCaptureScale
	}
	if config.ViewportWidth == 0 {
		config.ViewportWidth = defaultViewportWidth
	}
	if config.ViewportHeight == 0 {
		config.ViewportHeight = defaultViewportHeight
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		logger: logger,
	}
	r.initAllocator()

	return r, nil
}

// initAllocator initializes the Chrome allocator. No browser is started
// until the first capture.
func (r *ChromedpRasterizer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Rasterize loads the HTML into a fresh tab and screenshots the selected
// element at the requested device scale
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, req *RasterizeRequest) (*Bitmap, error) {
	if err := validateRasterizeRequest(req); err != nil {
		return nil, err
	}

	startTime := time.Now()

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.DefaultTimeout
	}
	scale := req.Scale
	if scale <= 0 {
		scale = r.config.Scale
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// Tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(r.config.ViewportWidth, r.config.ViewportHeight),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, req.HTML).Do(ctx)
		}),
		chromedp.WaitReady(req.Selector, chromedp.ByQuery),
		chromedp.ScreenshotScale(req.Selector, scale, &buf, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("capture timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "capture was cancelled", err)
		}

		r.logger.Error("chromedp capture failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}

	bitmap, err := NewBitmap(buf)
	if err != nil {
		return nil, err
	}
	bitmap.CaptureDuration = time.Since(startTime)

	r.logger.Info("Layout captured",
		zap.Int("bytes", len(bitmap.PNG)),
		zap.Int("width", bitmap.Width),
		zap.Int("height", bitmap.Height),
		zap.Float64("scale", scale),
		zap.Duration("duration", bitmap.CaptureDuration))

	return bitmap, nil
}

// Close releases resources held by the rasterizer
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func validateRasterizeRequest(req *RasterizeRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "rasterize request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if strings.TrimSpace(req.Selector) == "" {
		return NewRenderError(ErrCodeElementNotFound, "capture selector is empty", nil)
	}
	return nil
}

// wrapDocument wraps a fragment in a complete HTML document.
// Complete documents are returned as-is.
func wrapDocument(html, title string) string {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return html
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head>")
	buf.WriteString("<meta charset=\"UTF-8\">")
	if title != "" {
		buf.WriteString("<title>")
		buf.WriteString(title)
		buf.WriteString("</title>")
	}
	buf.WriteString("</head><body>")
	buf.WriteString(html)
	buf.WriteString("</body></html>")
	return buf.String()
}

// Ensure ChromedpRasterizer implements Rasterizer
var _ Rasterizer = (*ChromedpRasterizer)(nil)
