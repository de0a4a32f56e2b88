package paystub

import (
	"context"
	"errors"
	"fmt"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/evmosdao/paystub/internal/domain/printing"
	"github.com/evmosdao/paystub/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaystubService handles paystub editing sessions and exports
type PaystubService struct {
	sessions *SessionStore
	renderer LayoutRenderer
	logo     LogoProvider
	exporter *Exporter
	notifier Notifier
	logger   *zap.Logger
}

// NewPaystubService creates a new PaystubService
func NewPaystubService(
	sessions *SessionStore,
	renderer LayoutRenderer,
	logo LogoProvider,
	exporter *Exporter,
	notifier Notifier,
	logger *zap.Logger,
) *PaystubService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if sessions == nil {
		sessions = NewSessionStore(0)
	}
	return &PaystubService{
		sessions: sessions,
		renderer: renderer,
		logo:     logo,
		exporter: exporter,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateSession opens a blank session and renders it once
func (s *PaystubService) CreateSession(ctx context.Context) (*SessionResponse, error) {
	session := NewSession(s.renderer, s.logo)
	if _, err := session.Mount(ctx); err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}
	s.sessions.Add(session)

	s.logger.Info("paystub session created", zap.String("session_id", session.ID.String()))

	return s.toSessionResponse(ctx, session)
}

// GetSession returns a session's record and display values
func (s *PaystubService) GetSession(ctx context.Context, id uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return s.toSessionResponse(ctx, session)
}

// UpdateField applies one field update
func (s *PaystubService) UpdateField(ctx context.Context, id uuid.UUID, req UpdateFieldRequest) (*SessionResponse, error) {
	field, err := paystub.ParseField(req.Field)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	if _, err := session.Apply(ctx, paystub.FieldUpdate{Field: field, Value: req.Value}); err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}

	s.logger.Debug("paystub field updated",
		zap.String("session_id", id.String()),
		zap.String("field", field.String()))

	return s.toSessionResponse(ctx, session)
}

// ReplaceRecord sets every field of the record, in display order
func (s *PaystubService) ReplaceRecord(ctx context.Context, id uuid.UUID, req ReplaceRecordRequest) (*SessionResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	if _, err := session.ApplyAll(ctx, req.Record.Updates()); err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}

	return s.toSessionResponse(ctx, session)
}

// Preview returns the current rendered layout
func (s *PaystubService) Preview(ctx context.Context, id uuid.UUID) (*PreviewResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	layout, err := session.Target(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}
	if layout == nil {
		return nil, shared.NewDomainError(string(KindRenderTargetMissing), "Could not find paystub content.")
	}

	return &PreviewResponse{
		HTML:      layout.HTML,
		Selector:  layout.Selector,
		LogoState: s.currentLogo().State.String(),
	}, nil
}

// Export runs the export pipeline on the session's current layout and
// notifies the outcome. Failed exports return both the response, carrying
// the outcome and the failed job, and the *ExportError.
func (s *PaystubService) Export(ctx context.Context, id uuid.UUID) (*ExportResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	target, err := session.Target(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}

	result, exportErr := s.exporter.Export(ctx, ExportRequest{SessionID: id, Target: target})
	outcome := OutcomeFor(exportErr)
	s.notifier.Notify(ctx, outcome)

	resp := &ExportResponse{
		Outcome:  outcome,
		FileName: s.exporter.FileName(),
	}

	if exportErr != nil {
		var e *ExportError
		if !errors.As(exportErr, &e) {
			return nil, exportErr
		}
		session.recordExport(e.Job)
		resp.Job = toExportJobResponse(e.Job)
		return resp, e
	}

	session.recordExport(result.Job)
	resp.Job = toExportJobResponse(result.Job)
	resp.URL = result.Stored.URL
	resp.PDF = result.Document.PDF
	return resp, nil
}

// Download opens the file written by the session's last successful export
func (s *PaystubService) Download(ctx context.Context, id uuid.UUID) (*DownloadResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	job, err := storedExport(session)
	if err != nil {
		return nil, err
	}

	body, err := s.exporter.Open(ctx, job.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open exported PDF: %w", err)
	}
	return &DownloadResponse{FileName: job.FileName, Size: job.Size, Body: body}, nil
}

// DiscardExport deletes the file written by the session's last successful
// export. The session stays open.
func (s *PaystubService) DiscardExport(ctx context.Context, id uuid.UUID) error {
	session, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	job, err := storedExport(session)
	if err != nil {
		return err
	}

	if err := s.exporter.Discard(ctx, job.StoragePath); err != nil {
		return fmt.Errorf("failed to delete exported PDF: %w", err)
	}
	session.forgetExport(job)

	s.logger.Info("exported paystub discarded",
		zap.String("session_id", id.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("path", job.StoragePath))
	return nil
}

func storedExport(session *Session) (*printing.ExportJob, error) {
	job := session.LastExport()
	if job == nil || !job.IsCompleted() || job.StoragePath == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "No exported PDF for this session")
	}
	return job, nil
}

// CloseSession discards a session and its record
func (s *PaystubService) CloseSession(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Remove(id); err != nil {
		return err
	}
	s.logger.Info("paystub session closed", zap.String("session_id", id.String()))
	return nil
}

// LogoStatus returns the logo resolver state
func (s *PaystubService) LogoStatus() LogoResponse {
	return toLogoResponse(s.currentLogo())
}

func (s *PaystubService) currentLogo() paystub.ResolvedLogo {
	if s.logo == nil {
		return paystub.PendingLogo()
	}
	return s.logo.Current()
}

func (s *PaystubService) toSessionResponse(ctx context.Context, session *Session) (*SessionResponse, error) {
	layout, err := session.Target(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to render paystub: %w", err)
	}
	return &SessionResponse{
		ID:         session.ID.String(),
		Record:     session.Record(),
		Display:    toDisplayResponse(layout),
		Mounted:    layout != nil,
		LastExport: toExportJobResponse(session.LastExport()),
		CreatedAt:  session.CreatedAt,
	}, nil
}
