package printing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testPNG returns an encoded opaque PNG of the given size
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, G: 0x5a, B: 0x5a, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// countPages counts page objects in raw PDF content
func countPages(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page"))
	parents := bytes.Count(pdf, []byte("/Type /Pages"))
	return pages - parents
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
