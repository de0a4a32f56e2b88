package paystub_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want paystub.Outcome
	}{
		{
			name: "success",
			want: paystub.Outcome{
				Kind:        paystub.OutcomeSuccess,
				Title:       "Success",
				Description: "Paystub PDF generated successfully.",
				Duration:    3 * time.Second,
				DurationMS:  3000,
			},
		},
		{
			name: "missing target",
			err:  paystub.ErrRenderTargetMissing,
			want: paystub.Outcome{
				Kind:        paystub.OutcomePreconditionFailed,
				Title:       "Error",
				Description: "Could not find paystub content.",
				Duration:    3 * time.Second,
				DurationMS:  3000,
			},
		},
		{
			name: "stage failure",
			err:  &paystub.ExportError{Kind: paystub.KindPersistFailed, Err: errors.New("permission denied")},
			want: paystub.Outcome{
				Kind:        paystub.OutcomeFailure,
				Title:       "Error",
				Description: "Failed to generate PDF: permission denied",
				Duration:    5 * time.Second,
				DurationMS:  5000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paystub.OutcomeFor(tt.err))
		})
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := paystub.NewLogNotifier(zap.New(core))

	n.Notify(context.Background(), paystub.SuccessOutcome())
	n.Notify(context.Background(), paystub.PreconditionFailedOutcome())

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Paystub PDF generated successfully.", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "precondition-failed", entries[1].ContextMap()["kind"])
}

func TestNotifierFunc(t *testing.T) {
	var got paystub.Outcome
	var n paystub.Notifier = paystub.NotifierFunc(func(ctx context.Context, o paystub.Outcome) { got = o })
	n.Notify(context.Background(), paystub.FailureOutcome("x"))
	assert.Equal(t, "Failed to generate PDF: x", got.Description)
}

func TestOutcome_JSONCarriesDisplayDuration(t *testing.T) {
	data, err := json.Marshal(paystub.FailureOutcome("disk full"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"failure","title":"Error","description":"Failed to generate PDF: disk full","duration_ms":5000}`, string(data))
}
