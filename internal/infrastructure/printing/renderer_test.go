package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderError(t *testing.T) {
	t.Run("error without cause", func(t *testing.T) {
		err := NewRenderError(ErrCodeRenderFailed, "capture failed", nil)
		assert.Equal(t, "capture failed", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error with cause", func(t *testing.T) {
		cause := errors.New("chrome exited")
		err := NewRenderError(ErrCodeRenderFailed, "capture failed", cause)
		assert.Equal(t, "capture failed: chrome exited", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}

func TestNewBitmap(t *testing.T) {
	t.Run("reads PNG dimensions", func(t *testing.T) {
		bitmap, err := NewBitmap(testPNG(t, 40, 25))
		require.NoError(t, err)
		assert.Equal(t, 40, bitmap.Width)
		assert.Equal(t, 25, bitmap.Height)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := NewBitmap(nil)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeInvalidBitmap, renderErr.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := NewBitmap([]byte("%PDF-1.4"))
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeInvalidBitmap, renderErr.Code)
	})
}

func TestValidateRasterizeRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *RasterizeRequest
		wantCode string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"empty HTML", &RasterizeRequest{Selector: RootSelector}, ErrCodeInvalidHTML},
		{"whitespace HTML", &RasterizeRequest{HTML: " \n\t ", Selector: RootSelector}, ErrCodeInvalidHTML},
		{"empty selector", &RasterizeRequest{HTML: "<div></div>"}, ErrCodeElementNotFound},
		{"valid", &RasterizeRequest{HTML: "<div id=\"paystub\"></div>", Selector: RootSelector, Scale: 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRasterizeRequest(tt.req)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.wantCode, renderErr.Code)
		})
	}
}
