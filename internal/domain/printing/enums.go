package printing

// PaperSize represents the page size of an exported document
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeA5     PaperSize = "A5"     // 148mm x 210mm
	PaperSizeLetter PaperSize = "LETTER" // 8.5in x 11in
)

const pointsPerMM = 72.0 / 25.4

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeLetter:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeLetter:
		return 215.9, 279.4
	default:
		return 210, 297 // Default to A4
	}
}

// PointDimensions returns the paper dimensions in PDF points (1/72 inch)
func (p PaperSize) PointDimensions() (width, height float64) {
	w, h := p.Dimensions()
	return w * pointsPerMM, h * pointsPerMM
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{PaperSizeA4, PaperSizeA5, PaperSizeLetter}
}

// JobStatus represents the stage of an export job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusCapturing  JobStatus = "CAPTURING"
	JobStatusPaginating JobStatus = "PAGINATING"
	JobStatusPersisting JobStatus = "PERSISTING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusCapturing, JobStatusPaginating,
		JobStatusPersisting, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status.
// Stages only move forward; any non-terminal stage may fail.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	if target == JobStatusFailed {
		return !s.IsTerminal()
	}
	switch s {
	case JobStatusPending:
		return target == JobStatusCapturing
	case JobStatusCapturing:
		return target == JobStatusPaginating
	case JobStatusPaginating:
		return target == JobStatusPersisting
	case JobStatusPersisting:
		return target == JobStatusCompleted
	}
	return false
}
