package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperSize_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		paperSize PaperSize
		expected  bool
	}{
		{"valid A4", PaperSizeA4, true},
		{"valid A5", PaperSizeA5, true},
		{"valid LETTER", PaperSizeLetter, true},
		{"invalid empty", PaperSize(""), false},
		{"invalid unknown", PaperSize("B5"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.paperSize.IsValid())
		})
	}
}

func TestPaperSize_PointDimensions(t *testing.T) {
	w, h := PaperSizeA4.PointDimensions()
	assert.InDelta(t, 595.28, w, 0.01)
	assert.InDelta(t, 841.89, h, 0.01)

	w, h = PaperSizeLetter.PointDimensions()
	assert.InDelta(t, 612, w, 0.01)
	assert.InDelta(t, 792, h, 0.01)

	w, h = PaperSize("unknown").PointDimensions()
	assert.InDelta(t, 595.28, w, 0.01)
	assert.InDelta(t, 841.89, h, 0.01)
}

func TestAllPaperSizes(t *testing.T) {
	sizes := AllPaperSizes()
	assert.Len(t, sizes, 3)
	for _, s := range sizes {
		assert.True(t, s.IsValid())
	}
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     JobStatus
		to       JobStatus
		expected bool
	}{
		{JobStatusPending, JobStatusCapturing, true},
		{JobStatusPending, JobStatusPaginating, false},
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusCapturing, JobStatusPaginating, true},
		{JobStatusCapturing, JobStatusPersisting, false},
		{JobStatusPaginating, JobStatusPersisting, true},
		{JobStatusPersisting, JobStatusCompleted, true},
		{JobStatusPersisting, JobStatusFailed, true},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusFailed, JobStatusCapturing, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatusCapturing.IsTerminal())
	assert.False(t, JobStatus("BOGUS").IsValid())
}
