package printing

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"time"

	"github.com/evmosdao/paystub/internal/domain/printing"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	bitmapImageName = "paystub"
	defaultCreator  = "Evmos DAO Paystub Generator"
)

// Document is a paginated PDF
type Document struct {
	// PDF is the raw document content
	PDF []byte
	// PageCount is the number of pages in the document
	PageCount int
	// PageWidth and PageHeight are the page dimensions in points
	PageWidth  float64
	PageHeight float64
	// ImageHeight is the rendered height of the bitmap in points
	ImageHeight float64
}

// Paginator places a captured bitmap into a new PDF document
type Paginator interface {
	Paginate(ctx context.Context, bitmap *Bitmap) (*Document, error)
}

// PaginatorConfig contains configuration for the fpdf paginator
type PaginatorConfig struct {
	// PaperSize of the single page (default: A4)
	PaperSize printing.PaperSize
	// Title, Author and Creator are written to the document metadata
	Title   string
	Author  string
	Creator string
	// Now supplies the creation date (default: time.Now)
	Now func() time.Time
	// Logger for debug output
	Logger *zap.Logger
}

// FpdfPaginator builds portrait PDFs in point units with go-pdf/fpdf.
// The bitmap fills the page width from the top-left corner and its height
// follows the bitmap's aspect ratio; it is the only content on the page.
type FpdfPaginator struct {
	config *PaginatorConfig
	logger *zap.Logger
}

// NewFpdfPaginator creates a new paginator
func NewFpdfPaginator(config *PaginatorConfig) *FpdfPaginator {
	if config == nil {
		config = &PaginatorConfig{}
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = printing.PaperSizeA4
	}
	if config.Title == "" {
		config.Title = DocumentTitle
	}
	if config.Creator == "" {
		config.Creator = defaultCreator
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FpdfPaginator{
		config: config,
		logger: logger,
	}
}

// Paginate creates a single-page document holding the bitmap
func (p *FpdfPaginator) Paginate(ctx context.Context, bitmap *Bitmap) (*Document, error) {
	if bitmap == nil || len(bitmap.PNG) == 0 {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "bitmap is empty", nil)
	}
	if bitmap.Width <= 0 || bitmap.Height <= 0 {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "bitmap has no area", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "pagination was cancelled", err)
	}

	data := bitmap.PNG
	if needsNormalize(data) {
		normalized, err := normalizePNG(data)
		if err != nil {
			return nil, err
		}
		data = normalized
	}

	pdf := fpdf.New("P", "pt", fpdfSizeName(p.config.PaperSize), "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(p.config.Title, true)
	pdf.SetCreator(p.config.Creator, true)
	if p.config.Author != "" {
		pdf.SetAuthor(p.config.Author, true)
	}
	pdf.SetCreationDate(p.config.Now())
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	imageHeight := pageWidth * float64(bitmap.Height) / float64(bitmap.Width)

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(bitmapImageName, opts, bytes.NewReader(data))
	pdf.ImageOptions(bitmapImageName, 0, 0, pageWidth, imageHeight, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeEmbedFailed, "failed to build PDF", err)
	}

	p.logger.Debug("Bitmap paginated",
		zap.Int("bytes", buf.Len()),
		zap.Float64("page_width", pageWidth),
		zap.Float64("image_height", imageHeight))

	return &Document{
		PDF:         buf.Bytes(),
		PageCount:   pdf.PageCount(),
		PageWidth:   pageWidth,
		PageHeight:  pageHeight,
		ImageHeight: imageHeight,
	}, nil
}

// fpdfSizeName maps a paper size to fpdf's page size name
func fpdfSizeName(size printing.PaperSize) string {
	switch size {
	case printing.PaperSizeA5:
		return "A5"
	case printing.PaperSizeLetter:
		return "Letter"
	default:
		return "A4"
	}
}

// needsNormalize reports whether the PNG uses a 16-bit depth or interlacing,
// neither of which the PDF image embedder accepts
func needsNormalize(data []byte) bool {
	// IHDR follows the 8-byte signature; depth is at 24, interlace at 28
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	return data[24] == 16 || data[28] == 1
}

// normalizePNG re-encodes a PNG as 8-bit non-interlaced RGBA
func normalizePNG(data []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "failed to decode bitmap", err)
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "failed to encode bitmap", err)
	}
	return buf.Bytes(), nil
}

// Ensure FpdfPaginator implements Paginator
var _ Paginator = (*FpdfPaginator)(nil)
