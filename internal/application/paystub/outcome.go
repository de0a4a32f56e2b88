package paystub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// OutcomeKind classifies the result of an export attempt
type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "success"
	OutcomeFailure            OutcomeKind = "failure"
	OutcomePreconditionFailed OutcomeKind = "precondition-failed"
)

// Outcome is the user-facing report of one export attempt.
// The core produces it; presenting it is the notifier's concern.
// DurationMS mirrors Duration for JSON clients.
type Outcome struct {
	Kind        OutcomeKind   `json:"kind"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
}

func newOutcome(kind OutcomeKind, title, description string, displayFor time.Duration) Outcome {
	return Outcome{
		Kind:        kind,
		Title:       title,
		Description: description,
		Duration:    displayFor,
		DurationMS:  displayFor.Milliseconds(),
	}
}

// SuccessOutcome reports a generated PDF
func SuccessOutcome() Outcome {
	return newOutcome(OutcomeSuccess, "Success", "Paystub PDF generated successfully.", 3*time.Second)
}

// FailureOutcome reports a failed export with the underlying message
func FailureOutcome(message string) Outcome {
	return newOutcome(OutcomeFailure, "Error", "Failed to generate PDF: "+message, 5*time.Second)
}

// PreconditionFailedOutcome reports an export attempted before any layout existed
func PreconditionFailedOutcome() Outcome {
	return newOutcome(OutcomePreconditionFailed, "Error", "Could not find paystub content.", 3*time.Second)
}

// OutcomeFor maps the error returned by Exporter.Export to its outcome
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return SuccessOutcome()
	case errors.Is(err, ErrRenderTargetMissing):
		return PreconditionFailedOutcome()
	default:
		return FailureOutcome(err.Error())
	}
}

// Notifier receives export outcomes
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, outcome Outcome)

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, outcome Outcome) {
	f(ctx, outcome)
}

// LogNotifier writes outcomes to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs success at info level and everything else at warn
func (n *LogNotifier) Notify(ctx context.Context, outcome Outcome) {
	fields := []zap.Field{
		zap.String("kind", string(outcome.Kind)),
		zap.String("title", outcome.Title),
		zap.Duration("display_for", outcome.Duration),
	}
	if outcome.Kind == OutcomeSuccess {
		n.logger.Info(outcome.Description, fields...)
		return
	}
	n.logger.Warn(outcome.Description, fields...)
}

var _ Notifier = (*LogNotifier)(nil)
