package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBinaryPath = "wkhtmltoimage"
	defaultTimeout    = 30 * time.Second
	defaultPageWidth  = 900
)

// WkhtmltoimageConfig contains configuration for the wkhtmltoimage rasterizer
type WkhtmltoimageConfig struct {
	// BinaryPath is the path to the wkhtmltoimage binary
	// If empty, will search in PATH
	BinaryPath string
	// DefaultTimeout for capture operations
	DefaultTimeout time.Duration
	// TempDir for temporary files during capture
	TempDir string
	// Scale used when a request does not set one (default: 2.0)
	Scale float64
	// Width of the virtual page in CSS pixels
	Width int
	// Logger for debug output
	Logger *zap.Logger
}

// WkhtmltoimageRasterizer captures HTML using the wkhtmltoimage command-line
// tool. It captures the whole document, so the layout must contain only the
// element being exported.
type WkhtmltoimageRasterizer struct {
	config *WkhtmltoimageConfig
	logger *zap.Logger
	run    commandRunner
}

// commandRunner executes a prepared command. Replaced in tests.
type commandRunner func(cmd *exec.Cmd) error

// NewWkhtmltoimageRasterizer creates a new wkhtmltoimage-based rasterizer
func NewWkhtmltoimageRasterizer(config *WkhtmltoimageConfig) (*WkhtmltoimageRasterizer, error) {
	if config == nil {
		config = &WkhtmltoimageConfig{}
	}

	if config.BinaryPath == "" {
		config.BinaryPath = defaultBinaryPath
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultTimeout
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.Scale == 0 {
		config.Scale = defaultCaptureScale
	}
	if config.Width == 0 {
		config.Width = defaultPageWidth
	}

	binaryPath, err := resolveBinaryPath(config.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltoimage binary not found: %s", config.BinaryPath), err)
	}
	config.BinaryPath = binaryPath

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WkhtmltoimageRasterizer{
		config: config,
		logger: logger,
		run:    func(cmd *exec.Cmd) error { return cmd.Run() },
	}, nil
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Rasterize writes the HTML to a temp file and captures it as PNG
func (r *WkhtmltoimageRasterizer) Rasterize(ctx context.Context, req *RasterizeRequest) (*Bitmap, error) {
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

	htmlFile, err := os.CreateTemp(r.config.TempDir, "paystub-*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create temp HTML file", err)
	}
	htmlPath := htmlFile.Name()
	defer os.Remove(htmlPath)

	if _, err := htmlFile.WriteString(wrapDocument(req.HTML, "")); err != nil {
		htmlFile.Close()
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write HTML to temp file", err)
	}
	htmlFile.Close()

	pngFile, err := os.CreateTemp(r.config.TempDir, "capture-*.png")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create temp image file", err)
	}
	pngPath := pngFile.Name()
	pngFile.Close()
	defer os.Remove(pngPath)

	args := r.buildArgs(scale, htmlPath, pngPath)

	r.logger.Debug("executing wkhtmltoimage",
		zap.String("binary", r.config.BinaryPath),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := r.run(cmd); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("capture timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "capture was cancelled", err)
		}

		r.logger.Error("wkhtmltoimage failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
			zap.String("stdout", stdout.String()))

		return nil, NewRenderError(ErrCodeRenderFailed,
			"wkhtmltoimage execution failed: "+stderr.String(), err)
	}

	data, err := os.ReadFile(pngPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to read captured image", err)
	}

	bitmap, err := NewBitmap(data)
	if err != nil {
		return nil, err
	}
	bitmap.CaptureDuration = time.Since(startTime)

	r.logger.Info("Layout captured",
		zap.Int("bytes", len(bitmap.PNG)),
		zap.Int("width", bitmap.Width),
		zap.Int("height", bitmap.Height),
		zap.Duration("duration", bitmap.CaptureDuration))

	return bitmap, nil
}

// buildArgs constructs the command-line arguments for wkhtmltoimage
func (r *WkhtmltoimageRasterizer) buildArgs(scale float64, htmlPath, pngPath string) []string {
	return []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--format", "png",
		"--width", strconv.Itoa(int(float64(r.config.Width) * scale)),
		"--zoom", strconv.FormatFloat(scale, 'f', -1, 64),
		"--disable-javascript",
		"--disable-local-file-access",
		htmlPath, pngPath,
	}
}

// Close releases resources (no-op for wkhtmltoimage)
func (r *WkhtmltoimageRasterizer) Close() error {
	return nil
}

// Ensure WkhtmltoimageRasterizer implements Rasterizer
var _ Rasterizer = (*WkhtmltoimageRasterizer)(nil)
