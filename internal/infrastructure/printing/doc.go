// Package printing provides infrastructure implementations for rendering a
// paystub layout and turning it into a PDF.
//
// This package contains:
// - LogoResolver, which loads the header logo once in the background
// - TemplateEngine, which renders the statement layout with html/template
// - Rasterizer implementations using chromedp and wkhtmltoimage
// - FpdfPaginator, which places the captured bitmap on a single PDF page
// - PDFStorage interface and FileSystemStorage with atomic writes
//
// Example usage:
//
//	engine := NewTemplateEngine()
//	layout, err := engine.Layout(ctx, record, resolver.Current())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rasterizer, _ := NewChromedpRasterizer(&ChromedpConfig{NoSandbox: true})
//	defer rasterizer.Close()
//	bitmap, err := rasterizer.Rasterize(ctx, &RasterizeRequest{
//	    HTML:     layout.HTML,
//	    Selector: layout.Selector,
//	    Scale:    2,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := NewFpdfPaginator(nil).Paginate(ctx, bitmap)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated PDF: %d bytes\n", len(doc.PDF))
package printing
