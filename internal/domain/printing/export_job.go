package printing

import (
	"time"

	"github.com/evmosdao/paystub/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportJob tracks one export attempt of a rendered paystub.
// Each attempt walks capture -> paginate -> persist and ends completed or failed.
type ExportJob struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	FileName     string
	Status       JobStatus
	Location     string // Path or URL of the persisted file
	StoragePath  string // Key the file was stored under
	Size         int64
	PageCount    int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// NewExportJob creates a pending export job
func NewExportJob(sessionID uuid.UUID, fileName string) (*ExportJob, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	now := time.Now()
	return &ExportJob{
		ID:        uuid.New(),
		SessionID: sessionID,
		FileName:  fileName,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// StartCapture marks the job as rasterizing the layout
func (j *ExportJob) StartCapture() error {
	return j.transition(JobStatusCapturing)
}

// StartPagination marks the job as embedding the bitmap into a document
func (j *ExportJob) StartPagination() error {
	return j.transition(JobStatusPaginating)
}

// StartPersist marks the job as writing the document
func (j *ExportJob) StartPersist(pageCount int) error {
	if err := j.transition(JobStatusPersisting); err != nil {
		return err
	}
	j.PageCount = pageCount
	return nil
}

// Complete marks the job as completed with the persisted location
func (j *ExportJob) Complete(location string, size int64) error {
	if location == "" {
		return shared.NewDomainError("INVALID_LOCATION", "Export location cannot be empty")
	}
	if err := j.transition(JobStatusCompleted); err != nil {
		return err
	}
	j.Location = location
	j.Size = size
	now := j.UpdatedAt
	j.CompletedAt = &now
	return nil
}

// Fail marks the job as failed with an error message
func (j *ExportJob) Fail(errorMessage string) error {
	if err := j.transition(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorMessage = errorMessage
	return nil
}

// IsCompleted returns true if the job completed
func (j *ExportJob) IsCompleted() bool {
	return j.Status == JobStatusCompleted
}

// IsFailed returns true if the job failed
func (j *ExportJob) IsFailed() bool {
	return j.Status == JobStatusFailed
}

// IsTerminal returns true if the job is in a terminal state
func (j *ExportJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

func (j *ExportJob) transition(target JobStatus) error {
	if !j.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot move export job from "+j.Status.String()+" to "+target.String())
	}
	j.Status = target
	j.UpdatedAt = time.Now()
	return nil
}
