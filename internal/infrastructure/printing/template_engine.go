package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"sync"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"go.uber.org/zap"
)

//go:embed templates/paystub.html
var templateFS embed.FS

const (
	paystubTemplatePath = "templates/paystub.html"
	// RootElementID is the id of the element that is captured on export
	RootElementID = "paystub"
	// RootSelector selects the captured element
	RootSelector = "#" + RootElementID
	// DocumentTitle is the title of the rendered page and exported PDF
	DocumentTitle = "Evmos DAO Paystub"

	regularPayLabel = "Regular Pay"
	totalLabel      = "Total"
)

// LogoView is the header image or its placeholder glyph
type LogoView struct {
	Embedded    bool
	Src         template.URL
	Alt         string
	Width       int
	Height      int
	Placeholder string
}

// EarningLine is one row of the earnings table
type EarningLine struct {
	Label  string
	Amount string
	YTD    string
}

// BarcodeView is a footer barcode rendered as an inline image
type BarcodeView struct {
	Label  string
	Src    template.URL
	Width  int
	Height int
}

// PaystubView is the display model bound to the layout template.
// Every string in it is already formatted for display.
type PaystubView struct {
	Title    string
	RootID   string
	Branding Branding
	Logo     LogoView

	Name      string
	PayDate   string
	PayPeriod string

	Earnings []EarningLine
	Total    EarningLine

	TransactionHash string
	SafeURL         string

	Barcodes []BarcodeView

	// raw values kept for barcode encoding
	rawTransactionHash string
	rawSafeURL         string
}

// Layout is a rendered statement ready for preview or export
type Layout struct {
	// HTML is the complete document
	HTML string
	// Selector identifies the root element to capture
	Selector string
	// View is the display model the HTML was rendered from
	View PaystubView
}

// BuildView maps a record and the current logo state to the display model.
// It never fails: blank fields render as "N/A", blank dates as "", blank
// amounts as "$0.00".
func BuildView(record paystub.Record, logo paystub.ResolvedLogo, branding Branding) PaystubView {
	branding = branding.withDefaults()

	view := PaystubView{
		Title:    DocumentTitle,
		RootID:   RootElementID,
		Branding: branding,
		Logo: LogoView{
			Alt:         branding.LogoAlt,
			Placeholder: branding.PlaceholderLabel,
		},
		Name:               paystub.DisplayText(record.Name),
		PayDate:            paystub.FormatDate(record.PayDate),
		PayPeriod:          paystub.FormatPeriod(record.PayPeriodStart, record.PayPeriodEnd),
		TransactionHash:    paystub.DisplayText(record.TransactionHash),
		SafeURL:            paystub.DisplayText(record.SafeURL),
		rawTransactionHash: record.TransactionHash,
		rawSafeURL:         record.SafeURL,
	}

	if logo.Embeddable() {
		view.Logo.Embedded = true
		// The data URI is produced by the logo resolver, never from user input
		view.Logo.Src = template.URL(logo.DataURI)
		view.Logo.Width = logo.Width
		view.Logo.Height = logo.Height
	}

	line := EarningLine{
		Label:  regularPayLabel,
		Amount: paystub.FormatCurrency(record.GrossPay),
		YTD:    paystub.FormatCurrency(record.YTDGross),
	}
	view.Earnings = []EarningLine{line}
	// Single line item: the total restates it
	view.Total = EarningLine{Label: totalLabel, Amount: line.Amount, YTD: line.YTD}

	return view
}

// TemplateEngine renders the statement layout.
// It uses Go's html/template package over an embedded document.
type TemplateEngine struct {
	branding Branding
	barcodes bool
	logger   *zap.Logger

	once sync.Once
	tmpl *template.Template
	err  error
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithBranding overrides DefaultBranding
func WithBranding(b Branding) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.branding = b.withDefaults()
	}
}

// WithBarcodes enables footer barcodes for the transaction hash and safe URL
func WithBarcodes(enabled bool) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.barcodes = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewTemplateEngine creates a new template engine with default configuration
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{
		branding: DefaultBranding(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Branding returns the branding used by Layout
func (e *TemplateEngine) Branding() Branding {
	return e.branding
}

// Layout builds the view for a record and renders it
func (e *TemplateEngine) Layout(ctx context.Context, record paystub.Record, logo paystub.ResolvedLogo) (*Layout, error) {
	return e.Render(ctx, BuildView(record, logo, e.branding))
}

// Render executes the layout template for a view.
// Same view in, byte-identical HTML out.
func (e *TemplateEngine) Render(ctx context.Context, view PaystubView) (*Layout, error) {
	tmpl, err := e.template()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "render was cancelled", err)
	}

	if e.barcodes && view.Barcodes == nil {
		view.Barcodes = e.footerBarcodes(view)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}

	return &Layout{
		HTML:     buf.String(),
		Selector: RootSelector,
		View:     view,
	}, nil
}

func (e *TemplateEngine) template() (*template.Template, error) {
	e.once.Do(func() {
		content, err := templateFS.ReadFile(paystubTemplatePath)
		if err != nil {
			e.err = NewRenderError(ErrCodeInvalidHTML, "failed to read embedded template", err)
			return
		}
		e.tmpl, err = template.New("paystub").Funcs(template.FuncMap{
			"safeCSS": safeCSS,
		}).Parse(string(content))
		if err != nil {
			e.err = NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
		}
	})
	return e.tmpl, e.err
}

// footerBarcodes encodes the safe URL as QR and the transaction hash as
// PDF417. Blank values and values that cannot be encoded are skipped.
func (e *TemplateEngine) footerBarcodes(view PaystubView) []BarcodeView {
	codes := make([]BarcodeView, 0, 2)
	if paystub.DisplayText(view.rawSafeURL) != paystub.Placeholder {
		code, err := EncodeQR(view.rawSafeURL)
		if err != nil {
			e.logger.Warn("Skipping safe URL QR code", zap.Error(err))
		} else {
			code.Label = "Safe URL"
			codes = append(codes, *code)
		}
	}
	if paystub.DisplayText(view.rawTransactionHash) != paystub.Placeholder {
		code, err := EncodePDF417(view.rawTransactionHash)
		if err != nil {
			e.logger.Warn("Skipping transaction hash barcode", zap.Error(err))
		} else {
			code.Label = "Transaction Hash"
			codes = append(codes, *code)
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return codes
}

// safeCSS marks configured colour values as trusted CSS
func safeCSS(s string) template.CSS {
	return template.CSS(s)
}
