package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// Ensure MemoryPDFStorage implements PDFStorage
var _ printing.PDFStorage = (*MemoryPDFStorage)(nil)

// MemoryPDFStorage keeps exported PDFs in process memory.
// Use this for development and tests; contents are lost on restart.
type MemoryPDFStorage struct {
	// BaseURL is the URL prefix returned for stored files
	BaseURL string

	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryPDFStorage creates an empty MemoryPDFStorage
func NewMemoryPDFStorage() *MemoryPDFStorage {
	return &MemoryPDFStorage{
		BaseURL: "memory://paystub",
		files:   make(map[string][]byte),
	}
}

// Store keeps a copy of the PDF, replacing any previous file at the same path
func (s *MemoryPDFStorage) Store(ctx context.Context, req *printing.StoreRequest) (*printing.StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, printing.NewRenderError(printing.ErrCodeStorageFailed, "operation cancelled", err)
	}
	if req == nil {
		return nil, printing.NewRenderError(printing.ErrCodeStorageFailed, "store request is nil", nil)
	}
	if len(req.PDFData) == 0 {
		return nil, printing.NewRenderError(printing.ErrCodeStorageFailed, "PDF data is empty", nil)
	}

	name := req.Name
	if name == "" {
		name = printing.DefaultFileName
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, printing.NewRenderError(printing.ErrCodeStorageFailed, "invalid file name: "+name, nil)
	}
	key := name
	if req.SessionID != uuid.Nil {
		key = path.Join(req.SessionID.String(), name)
	}

	data := bytes.Clone(req.PDFData)
	s.mu.Lock()
	s.files[key] = data
	s.mu.Unlock()

	return &printing.StoreResult{
		Path: key,
		URL:  s.GetURL(key),
		Size: int64(len(data)),
	}, nil
}

// Get returns a reader over a stored PDF
func (s *MemoryPDFStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil, printing.NewRenderError(printing.ErrCodeStorageFailed, "PDF not found", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored PDF. Deleting a missing file succeeds.
func (s *MemoryPDFStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.files, key)
	s.mu.Unlock()
	return nil
}

// GetURL returns the pseudo URL of a stored PDF
func (s *MemoryPDFStorage) GetURL(key string) string {
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + key
}

// Len returns the number of stored files
func (s *MemoryPDFStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
