package storage

import (
	"context"
	"io"
	"testing"

	"github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPDFStorage(t *testing.T) {
	storage := NewMemoryPDFStorage()
	ctx := context.Background()

	t.Run("store and get", func(t *testing.T) {
		pdf := []byte("%PDF-1.3 memory")
		result, err := storage.Store(ctx, &printing.StoreRequest{PDFData: pdf})
		require.NoError(t, err)
		assert.Equal(t, printing.DefaultFileName, result.Path)
		assert.Equal(t, "memory://paystub/"+printing.DefaultFileName, result.URL)

		// Mutating the caller's slice does not change the stored copy
		pdf[0] = 'X'

		rc, err := storage.Get(ctx, result.Path)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.3 memory", string(data))
	})

	t.Run("session scoped key", func(t *testing.T) {
		sessionID := uuid.New()
		result, err := storage.Store(ctx, &printing.StoreRequest{SessionID: sessionID, PDFData: []byte("%PDF")})
		require.NoError(t, err)
		assert.Equal(t, sessionID.String()+"/"+printing.DefaultFileName, result.Path)
		assert.Equal(t, 2, storage.Len())
	})

	t.Run("rejects empty data and path names", func(t *testing.T) {
		_, err := storage.Store(ctx, &printing.StoreRequest{})
		assert.Error(t, err)
		_, err = storage.Store(ctx, &printing.StoreRequest{Name: "a/b.pdf", PDFData: []byte("%PDF")})
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, storage.Delete(ctx, printing.DefaultFileName))
		_, err := storage.Get(ctx, printing.DefaultFileName)
		assert.Error(t, err)
		assert.NoError(t, storage.Delete(ctx, "missing.pdf"))
	})
}
