package paystub

import (
	"io"
	"time"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/evmosdao/paystub/internal/domain/printing"
	infra "github.com/evmosdao/paystub/internal/infrastructure/printing"
)

// UpdateFieldRequest sets one record field
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// ReplaceRecordRequest sets every record field at once
type ReplaceRecordRequest struct {
	Record paystub.Record `json:"record"`
}

// DisplayResponse is the record as it appears on the statement
type DisplayResponse struct {
	Name            string `json:"name"`
	PayDate         string `json:"pay_date"`
	PayPeriod       string `json:"pay_period"`
	GrossPay        string `json:"gross_pay"`
	YTDGross        string `json:"ytd_gross"`
	TotalGrossPay   string `json:"total_gross_pay"`
	TotalYTDGross   string `json:"total_ytd_gross"`
	TransactionHash string `json:"transaction_hash"`
	SafeURL         string `json:"safe_url"`
	LogoEmbedded    bool   `json:"logo_embedded"`
}

// ExportJobResponse describes one export attempt
type ExportJobResponse struct {
	ID           string     `json:"id"`
	FileName     string     `json:"file_name"`
	Status       string     `json:"status"`
	Location     string     `json:"location,omitempty"`
	Size         int64      `json:"size,omitempty"`
	PageCount    int        `json:"page_count,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SessionResponse is an editing session with its record
type SessionResponse struct {
	ID         string             `json:"id"`
	Record     paystub.Record     `json:"record"`
	Display    *DisplayResponse   `json:"display,omitempty"`
	Mounted    bool               `json:"mounted"`
	LastExport *ExportJobResponse `json:"last_export,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PreviewResponse is the rendered layout
type PreviewResponse struct {
	HTML      string `json:"html"`
	Selector  string `json:"selector"`
	LogoState string `json:"logo_state"`
}

// LogoResponse is the logo resolver state
type LogoResponse struct {
	State  string `json:"state"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ExportResponse is the result of an export request. Outcome is always set;
// Job is set once a job was started; PDF is set on success.
type ExportResponse struct {
	Outcome  Outcome            `json:"outcome"`
	Job      *ExportJobResponse `json:"job,omitempty"`
	FileName string             `json:"file_name"`
	URL      string             `json:"url,omitempty"`
	PDF      []byte             `json:"-"`
}

// DownloadResponse is an open stored export. The caller closes Body.
type DownloadResponse struct {
	FileName string
	Size     int64
	Body     io.ReadCloser
}

func toDisplayResponse(layout *infra.Layout) *DisplayResponse {
	if layout == nil {
		return nil
	}
	v := layout.View
	resp := &DisplayResponse{
		Name:            v.Name,
		PayDate:         v.PayDate,
		PayPeriod:       v.PayPeriod,
		TotalGrossPay:   v.Total.Amount,
		TotalYTDGross:   v.Total.YTD,
		TransactionHash: v.TransactionHash,
		SafeURL:         v.SafeURL,
		LogoEmbedded:    v.Logo.Embedded,
	}
	if len(v.Earnings) > 0 {
		resp.GrossPay = v.Earnings[0].Amount
		resp.YTDGross = v.Earnings[0].YTD
	}
	return resp
}

func toExportJobResponse(j *printing.ExportJob) *ExportJobResponse {
	if j == nil {
		return nil
	}
	return &ExportJobResponse{
		ID:           j.ID.String(),
		FileName:     j.FileName,
		Status:       j.Status.String(),
		Location:     j.Location,
		Size:         j.Size,
		PageCount:    j.PageCount,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
}

func toLogoResponse(l paystub.ResolvedLogo) LogoResponse {
	return LogoResponse{State: l.State.String(), Width: l.Width, Height: l.Height}
}
