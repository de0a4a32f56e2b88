package printing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

const (
	// DefaultLogoSource is the bundled logo asset
	DefaultLogoSource       = "./assets/evmos-dao-logo-white.png"
	defaultLogoMaxHeight    = 128
	defaultLogoFetchTimeout = 10 * time.Second
	maxLogoBytes            = 10 << 20
	// A small compressed file can declare a canvas far larger than maxLogoBytes
	maxLogoPixels           = 4096 * 4096
)

// AssetSource fetches the raw bytes of the logo asset
type AssetSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileAssetSource reads the asset from the local filesystem
type FileAssetSource struct {
	Path string
}

// Open opens the asset file
func (s FileAssetSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

func (s FileAssetSource) String() string {
	return s.Path
}

// HTTPAssetSource fetches the asset over HTTP(S)
type HTTPAssetSource struct {
	URL    string
	Client *http.Client
}

// Open issues a GET request for the asset. Any status of 400 or above fails.
func (s HTTPAssetSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s HTTPAssetSource) String() string {
	return s.URL
}

// NewAssetSource picks an HTTP source for http(s) URLs and a file source
// for everything else
func NewAssetSource(location string) AssetSource {
	if location == "" {
		location = DefaultLogoSource
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPAssetSource{URL: location}
	}
	return FileAssetSource{Path: location}
}

// LogoResolverConfig contains configuration for the logo resolver
type LogoResolverConfig struct {
	// Source of the logo asset (default: DefaultLogoSource on disk)
	Source AssetSource
	// MaxHeight in pixels; larger images are scaled down (default: 128)
	MaxHeight int
	// FetchTimeout bounds the whole fetch and decode (default: 10s)
	FetchTimeout time.Duration
	// Logger for failures
	Logger *zap.Logger
}

// LogoResolver loads the logo once in the background and publishes the
// result for the renderer. Readers never block.
type LogoResolver struct {
	config *LogoResolverConfig
	logger *zap.Logger

	state atomic.Pointer[paystub.ResolvedLogo]
	once  sync.Once
	done  chan struct{}
}

// NewLogoResolver creates a resolver in the pending state
func NewLogoResolver(config *LogoResolverConfig) *LogoResolver {
	if config == nil {
		config = &LogoResolverConfig{}
	}
	if config.Source == nil {
		config.Source = NewAssetSource(DefaultLogoSource)
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = defaultLogoMaxHeight
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = defaultLogoFetchTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &LogoResolver{
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}
	pending := paystub.PendingLogo()
	r.state.Store(&pending)
	return r
}

// Start launches the background fetch. Only the first call has any effect.
func (r *LogoResolver) Start(ctx context.Context) {
	r.once.Do(func() {
		go r.resolve(ctx)
	})
}

// Current returns the latest published logo state
func (r *LogoResolver) Current() paystub.ResolvedLogo {
	return *r.state.Load()
}

// Wait blocks until the logo reaches a terminal state or ctx ends.
// Rendering never waits; this is for one-shot callers.
func (r *LogoResolver) Wait(ctx context.Context) (paystub.ResolvedLogo, error) {
	select {
	case <-r.done:
		return r.Current(), nil
	case <-ctx.Done():
		return r.Current(), ctx.Err()
	}
}

func (r *LogoResolver) resolve(ctx context.Context) {
	defer close(r.done)

	ctx, cancel := context.WithTimeout(ctx, r.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	logo, err := r.load(ctx)
	if err != nil {
		r.logger.Warn("AssetLoadFailure",
			zap.String("source", r.config.Source.String()),
			zap.Error(err))
		unavailable := paystub.UnavailableLogo(err.Error())
		r.state.Store(&unavailable)
		return
	}

	r.logger.Info("Logo resolved",
		zap.String("source", r.config.Source.String()),
		zap.Int("width", logo.Width),
		zap.Int("height", logo.Height),
		zap.Duration("duration", time.Since(start)))
	r.state.Store(&logo)
}

func (r *LogoResolver) load(ctx context.Context) (paystub.ResolvedLogo, error) {
	rc, err := r.config.Source.Open(ctx)
	if err != nil {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed, "failed to open logo", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxLogoBytes))
	if err != nil {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed, "failed to read logo", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed, "failed to decode logo", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxLogoPixels/cfg.Height {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed,
			fmt.Sprintf("logo dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, maxLogoPixels), nil)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed, "failed to decode logo", err)
	}
	if err := ctx.Err(); err != nil {
		return paystub.ResolvedLogo{}, NewRenderError(ErrCodeAssetLoadFailed, "logo fetch timed out", err)
	}

	img := redraw(src, r.config.MaxHeight)
	uri, err := pngDataURI(img)
	if err != nil {
		return paystub.ResolvedLogo{}, err
	}
	b := img.Bounds()
	return paystub.ReadyLogo(uri, b.Dx(), b.Dy()), nil
}

// redraw copies src onto a fresh RGBA canvas, scaling it down to maxHeight
// when taller. The result shares no memory with src.
func redraw(src image.Image, maxHeight int) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if h > maxHeight {
		w = max(1, w*maxHeight/h)
		h = maxHeight
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}
