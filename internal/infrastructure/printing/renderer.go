package printing

import (
	"bytes"
	"context"
	"image"
	_ "image/png" // PNG config decoder for bitmap dimensions
	"time"
)

// RasterizeRequest contains the parameters for capturing a rendered layout
type RasterizeRequest struct {
	// HTML document to load
	HTML string
	// Selector of the root element to capture
	Selector string
	// Scale is the device pixel ratio of the capture (2 = double resolution)
	Scale float64
	// Timeout overrides the default capture timeout
	Timeout time.Duration
}

// Bitmap is a captured PNG image of the layout
type Bitmap struct {
	// PNG is the encoded image
	PNG []byte
	// Width and Height are pixel dimensions of the image
	Width  int
	Height int
	// CaptureDuration is how long the capture took
	CaptureDuration time.Duration
}

// Rasterizer captures the on-screen appearance of a layout as a bitmap
type Rasterizer interface {
	// Rasterize renders the HTML and captures the selected element
	Rasterize(ctx context.Context, req *RasterizeRequest) (*Bitmap, error)
	// Close releases any resources held by the rasterizer
	Close() error
}

// RenderError represents an error while rendering, capturing or embedding
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout   = "RENDER_TIMEOUT"
	ErrCodeRenderFailed    = "RENDER_FAILED"
	ErrCodeInvalidHTML     = "INVALID_HTML"
	ErrCodeBinaryNotFound  = "BINARY_NOT_FOUND"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeInvalidBitmap   = "INVALID_BITMAP"
	ErrCodeEmbedFailed     = "EMBED_FAILED"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
	ErrCodeAssetLoadFailed = "ASSET_LOAD_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewBitmap wraps PNG bytes and reads their pixel dimensions
func NewBitmap(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "captured image is empty", nil)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "captured image cannot be decoded", err)
	}
	if format != "png" {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "captured image is "+format+", expected png", nil)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "captured image has no area", nil)
	}
	return &Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}
