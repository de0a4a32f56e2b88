package handler

import (
	"errors"
	"mime"
	"net/http"

	paystubapp "github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/evmosdao/paystub/internal/interfaces/http/dto"
	"github.com/evmosdao/paystub/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PaystubHandler handles paystub session and export endpoints
type PaystubHandler struct {
	BaseHandler
	service    *paystubapp.PaystubService
	attachment bool
}

// PaystubHandlerOption configures a PaystubHandler
type PaystubHandlerOption func(*PaystubHandler)

// WithAttachment controls whether a successful export responds with the PDF
// itself (true, the default) or with the stored document's URL as JSON.
func WithAttachment(enabled bool) PaystubHandlerOption {
	return func(h *PaystubHandler) {
		h.attachment = enabled
	}
}

// NewPaystubHandler creates a new PaystubHandler
func NewPaystubHandler(service *paystubapp.PaystubService, opts ...PaystubHandlerOption) *PaystubHandler {
	h := &PaystubHandler{
		service:    service,
		attachment: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateSession godoc
// @ID           createPaystubSession
// @Summary      Open a paystub session
// @Description  Creates a blank record and renders it so it can be exported
// @Tags         paystub
// @Produce      json
// @Success      201 {object} APIResponse[paystubapp.SessionResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /sessions [post]
func (h *PaystubHandler) CreateSession(c *gin.Context) {
	resp, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+resp.ID)
	h.Created(c, resp)
}

// GetSession godoc
// @ID           getPaystubSession
// @Summary      Get a paystub session
// @Tags         paystub
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} APIResponse[paystubapp.SessionResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id} [get]
func (h *PaystubHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateField godoc
// @ID           updatePaystubField
// @Summary      Set one record field
// @Description  Stores the value as typed and re-renders the statement
// @Tags         paystub
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Session ID" format(uuid)
// @Param        request body paystubapp.UpdateFieldRequest true "Field update"
// @Success      200 {object} APIResponse[paystubapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/fields [patch]
func (h *PaystubHandler) UpdateField(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req paystubapp.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.UpdateField(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReplaceRecord godoc
// @ID           replacePaystubRecord
// @Summary      Set every record field
// @Description  Applies one update per field in display order, then re-renders once
// @Tags         paystub
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Session ID" format(uuid)
// @Param        request body paystubapp.ReplaceRecordRequest true "Record"
// @Success      200 {object} APIResponse[paystubapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/record [put]
func (h *PaystubHandler) ReplaceRecord(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req paystubapp.ReplaceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.ReplaceRecord(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Preview godoc
// @ID           previewPaystub
// @Summary      Preview the rendered statement
// @Description  Returns the statement HTML, or JSON with format=json
// @Tags         paystub
// @Produce      html,json
// @Param        id     path  string true  "Session ID" format(uuid)
// @Param        format query string false "html (default) or json"
// @Success      200 {string} string
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/preview [get]
func (h *PaystubHandler) Preview(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	resp, err := h.service.Preview(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if c.Query("format") == "json" {
		h.Success(c, resp)
		return
	}
	c.Header("X-Logo-State", resp.LogoState)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(resp.HTML))
}

// Export godoc
// @ID           exportPaystub
// @Summary      Export the statement as PDF
// @Description  Captures the rendered statement, places it on one page and stores it.
// @Description  Responds with the PDF as an attachment, or with JSON when format=json
// @Description  or the server stores exports remotely. Failures carry the outcome in data.
// @Tags         paystub
// @Produce      application/pdf,json
// @Param        id     path  string true  "Session ID" format(uuid)
// @Param        format query string false "pdf (default) or json"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /sessions/{id}/export [post]
func (h *PaystubHandler) Export(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	resp, err := h.service.Export(c.Request.Context(), id)
	if err != nil {
		var exportErr *paystubapp.ExportError
		if resp == nil || !errors.As(err, &exportErr) {
			h.HandleError(c, err)
			return
		}
		code := dto.NormalizeErrorCode(string(exportErr.Kind))
		body := dto.NewErrorResponseWithRequestID(code, resp.Outcome.Description, getRequestID(c))
		body.Data = resp
		c.JSON(dto.GetHTTPStatus(code), body)
		return
	}

	if resp.Job != nil {
		c.Header("X-Export-Job-ID", resp.Job.ID)
	}
	if !h.attachment || c.Query("format") == "json" {
		h.Success(c, resp)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": resp.FileName}))
	c.Data(http.StatusOK, "application/pdf", resp.PDF)
}

// Download godoc
// @ID           downloadPaystubExport
// @Summary      Download the last exported PDF
// @Description  Streams the file stored by the session's last successful export
// @Tags         paystub
// @Produce      application/pdf
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/export [get]
func (h *PaystubHandler) Download(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	resp, err := h.service.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(http.StatusOK, resp.Size, "application/pdf", resp.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": resp.FileName}),
	})
}

// DiscardExport godoc
// @ID           discardPaystubExport
// @Summary      Delete the last exported PDF
// @Description  Removes the stored file; the session stays open
// @Tags         paystub
// @Param        id path string true "Session ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/export [delete]
func (h *PaystubHandler) DiscardExport(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.DiscardExport(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CloseSession godoc
// @ID           closePaystubSession
// @Summary      Close a paystub session
// @Description  Discards the record; exported files are kept until deleted via the export endpoint
// @Tags         paystub
// @Param        id path string true "Session ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id} [delete]
func (h *PaystubHandler) CloseSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.CloseSession(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LogoStatus godoc
// @ID           getLogoStatus
// @Summary      Get the header logo state
// @Tags         paystub
// @Produce      json
// @Success      200 {object} APIResponse[paystubapp.LogoResponse]
// @Router       /logo [get]
func (h *PaystubHandler) LogoStatus(c *gin.Context) {
	h.Success(c, h.service.LogoStatus())
}
