package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	paystubapp "github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/evmosdao/paystub/internal/infrastructure/storage"
	"github.com/evmosdao/paystub/internal/interfaces/http/dto"
	"github.com/evmosdao/paystub/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRasterizer struct {
	err error
}

func (r *fakeRasterizer) Rasterize(ctx context.Context, req *printing.RasterizeRequest) (*printing.Bitmap, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &printing.Bitmap{PNG: []byte("png"), Width: 794, Height: 1123}, nil
}

func (r *fakeRasterizer) Close() error { return nil }

type fakePaginator struct{}

func (fakePaginator) Paginate(ctx context.Context, bitmap *printing.Bitmap) (*printing.Document, error) {
	return &printing.Document{PDF: []byte("%PDF-1.4 paystub"), PageCount: 1}, nil
}

type paystubFixture struct {
	engine     *gin.Engine
	rasterizer *fakeRasterizer
	storage    *storage.MemoryPDFStorage
}

func newPaystubFixture(t *testing.T, opts ...PaystubHandlerOption) *paystubFixture {
	t.Helper()
	rasterizer := &fakeRasterizer{}
	store := storage.NewMemoryPDFStorage()
	exporter := paystubapp.NewExporter(rasterizer, fakePaginator{}, store)
	service := paystubapp.NewPaystubService(
		paystubapp.NewSessionStore(0),
		printing.NewTemplateEngine(printing.WithBarcodes(false)),
		nil,
		exporter,
		nil,
		nil,
	)

	engine := gin.New()
	h := NewPaystubHandler(service, opts...)
	router.NewRouter(engine).
		Register(PaystubRoutes(h)).
		Register(LogoRoutes(h)).
		Setup()

	return &paystubFixture{engine: engine, rasterizer: rasterizer, storage: store}
}

func (f *paystubFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *paystubFixture) createSession(t *testing.T) string {
	t.Helper()
	w := f.do(http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data paystubapp.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) paystubapp.SessionResponse {
	t.Helper()
	var resp struct {
		Success bool                       `json:"success"`
		Data    paystubapp.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestPaystubHandler_CreateSession(t *testing.T) {
	f := newPaystubFixture(t)

	w := f.do(http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	session := decodeSession(t, w)
	assert.True(t, session.Mounted)
	assert.Equal(t, "/api/v1/sessions/"+session.ID, w.Header().Get("Location"))
	require.NotNil(t, session.Display)
	assert.Equal(t, "N/A", session.Display.Name)
	assert.Equal(t, "$0.00", session.Display.TotalGrossPay)
}

func TestPaystubHandler_GetSession(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)

	t.Run("found", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/sessions/"+id, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, decodeSession(t, w).ID)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, w).Code)
	})
}

func TestPaystubHandler_UpdateField(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)
	path := "/api/v1/sessions/" + id + "/fields"

	t.Run("formats the updated value", func(t *testing.T) {
		w := f.do(http.MethodPatch, path, map[string]string{"field": "grossPay", "value": "2500"})
		require.Equal(t, http.StatusOK, w.Code)

		session := decodeSession(t, w)
		assert.Equal(t, "2500", session.Record.GrossPay)
		assert.Equal(t, "$2,500.00", session.Display.GrossPay)
		assert.Equal(t, "$2,500.00", session.Display.TotalGrossPay)
	})

	t.Run("keeps unparseable dates as typed", func(t *testing.T) {
		w := f.do(http.MethodPatch, path, map[string]string{"field": "payDate", "value": "next friday"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "next friday", decodeSession(t, w).Record.PayDate)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := f.do(http.MethodPatch, path, map[string]string{"field": "bonus", "value": "1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeUnknownField, decodeError(t, w).Code)
	})

	t.Run("missing field name", func(t *testing.T) {
		w := f.do(http.MethodPatch, path, map[string]string{"value": "1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaystubHandler_ReplaceRecord(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)

	body := map[string]any{"record": map[string]string{
		"name":           "Jane Doe",
		"payPeriodStart": "2024-01-01",
		"payPeriodEnd":   "2024-01-15",
		"payDate":        "2024-01-20",
		"grossPay":       "1234.5",
		"ytdGross":       "1234.5",
	}}
	w := f.do(http.MethodPut, "/api/v1/sessions/"+id+"/record", body)
	require.Equal(t, http.StatusOK, w.Code)

	session := decodeSession(t, w)
	assert.Equal(t, "Jane Doe", session.Display.Name)
	assert.Equal(t, "Jan 1, 2024 - Jan 15, 2024", session.Display.PayPeriod)
	assert.Equal(t, "$1,234.50", session.Display.TotalYTDGross)
}

func TestPaystubHandler_Preview(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)

	t.Run("html", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/sessions/"+id+"/preview", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Equal(t, "PENDING", w.Header().Get("X-Logo-State"))
		assert.Contains(t, w.Body.String(), `id="paystub"`)
	})

	t.Run("json", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/sessions/"+id+"/preview?format=json", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data paystubapp.PreviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, printing.RootSelector, resp.Data.Selector)
		assert.NotEmpty(t, resp.Data.HTML)
	})
}

func TestPaystubHandler_Export(t *testing.T) {
	t.Run("attachment", func(t *testing.T) {
		f := newPaystubFixture(t)
		id := f.createSession(t)

		w := f.do(http.MethodPost, "/api/v1/sessions/"+id+"/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=evmos-dao-paystub.pdf`, w.Header().Get("Content-Disposition"))
		assert.NotEmpty(t, w.Header().Get("X-Export-Job-ID"))
		assert.Equal(t, "%PDF-1.4 paystub", w.Body.String())
		assert.Equal(t, 1, f.storage.Len())
	})

	t.Run("json when attachments are disabled", func(t *testing.T) {
		f := newPaystubFixture(t, WithAttachment(false))
		id := f.createSession(t)

		w := f.do(http.MethodPost, "/api/v1/sessions/"+id+"/export", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                      `json:"success"`
			Data    paystubapp.ExportResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, paystubapp.OutcomeSuccess, resp.Data.Outcome.Kind)
		assert.Equal(t, "Paystub PDF generated successfully.", resp.Data.Outcome.Description)
		assert.Equal(t, int64(3000), resp.Data.Outcome.DurationMS)
		assert.Contains(t, w.Body.String(), `"duration_ms":3000`)
		assert.Equal(t, "evmos-dao-paystub.pdf", resp.Data.FileName)
		assert.NotEmpty(t, resp.Data.URL)
		require.NotNil(t, resp.Data.Job)
		assert.Equal(t, "COMPLETED", resp.Data.Job.Status)
	})

	t.Run("capture failure carries the outcome", func(t *testing.T) {
		f := newPaystubFixture(t)
		f.rasterizer.err = errors.New("element not visible")
		id := f.createSession(t)

		w := f.do(http.MethodPost, "/api/v1/sessions/"+id+"/export", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp struct {
			Success bool                      `json:"success"`
			Data    paystubapp.ExportResponse `json:"data"`
			Error   dto.ErrorInfo             `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeCaptureFailed, resp.Error.Code)
		assert.Equal(t, paystubapp.OutcomeFailure, resp.Data.Outcome.Kind)
		assert.Equal(t, "Error", resp.Data.Outcome.Title)
		assert.Contains(t, resp.Data.Outcome.Description, "Failed to generate PDF: ")
		assert.Contains(t, resp.Data.Outcome.Description, "element not visible")
		assert.Equal(t, int64(5000), resp.Data.Outcome.DurationMS)
		require.NotNil(t, resp.Data.Job)
		assert.Equal(t, "FAILED", resp.Data.Job.Status)
		assert.Equal(t, 0, f.storage.Len())
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newPaystubFixture(t)
		w := f.do(http.MethodPost, "/api/v1/sessions/"+uuid.NewString()+"/export", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaystubHandler_DownloadAndDiscardExport(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)
	exportPath := "/api/v1/sessions/" + id + "/export"

	w := f.do(http.MethodGet, exportPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, exportPath, nil).Code)

	w = f.do(http.MethodGet, exportPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=evmos-dao-paystub.pdf`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "16", w.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.4 paystub", w.Body.String())

	w = f.do(http.MethodDelete, exportPath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.storage.Len())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, exportPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, exportPath, nil).Code)

	w = f.do(http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeSession(t, w).LastExport)
}

func TestPaystubHandler_CloseSession(t *testing.T) {
	f := newPaystubFixture(t)
	id := f.createSession(t)

	w := f.do(http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaystubHandler_LogoStatus(t *testing.T) {
	f := newPaystubFixture(t)

	w := f.do(http.MethodGet, "/api/v1/logo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data paystubapp.LogoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING", resp.Data.State)
}
