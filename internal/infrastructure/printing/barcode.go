package printing

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
)

const (
	qrSize              = 128
	pdf417SecurityLevel = 2
	pdf417ModuleScale   = 2
)

// EncodeQR renders content as a square QR code image
func EncodeQR(content string) (*BarcodeView, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to encode QR code", err)
	}
	size := max(qrSize, code.Bounds().Dx())
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to scale QR code", err)
	}
	return barcodeView(scaled)
}

// EncodePDF417 renders content as a PDF417 stacked barcode image
func EncodePDF417(content string) (*BarcodeView, error) {
	code, err := pdf417.Encode(content, pdf417SecurityLevel)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to encode PDF417 barcode", err)
	}
	b := code.Bounds()
	scaled, err := barcode.Scale(code, b.Dx()*pdf417ModuleScale, b.Dy()*pdf417ModuleScale)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to scale PDF417 barcode", err)
	}
	return barcodeView(scaled)
}

func barcodeView(img image.Image) (*BarcodeView, error) {
	uri, err := pngDataURI(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &BarcodeView{
		Src:    template.URL(uri),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// pngDataURI encodes an image as a PNG data URI
func pngDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to encode PNG", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// dataURIToBytes decodes the payload of a base64 data URI
func dataURIToBytes(dataURI string) ([]byte, error) {
	idx := strings.IndexByte(dataURI, ',')
	if idx == -1 {
		return nil, NewRenderError(ErrCodeInvalidBitmap, "invalid data URI format", nil)
	}
	return base64.StdEncoding.DecodeString(dataURI[idx+1:])
}
