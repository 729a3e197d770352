package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCollectionRecord_Progress(t *testing.T) {
	tests := []struct {
		name           string
		record         CollectionRecord
		wantReading    *float64
		wantCollection *float64
		wantLabel      string
	}{
		{
			name:      "unknown total",
			record:    CollectionRecord{VolumesOwned: 3, ReadingVolume: intPtr(2)},
			wantLabel: "3",
		},
		{
			name:           "half owned, reading first",
			record:         CollectionRecord{VolumesOwned: 5, ReadingVolume: intPtr(1), TotalVolumes: intPtr(10)},
			wantReading:    ptr(0.1),
			wantCollection: ptr(0.5),
			wantLabel:      "5/10",
		},
		{
			name:           "zero total",
			record:         CollectionRecord{VolumesOwned: 0, TotalVolumes: intPtr(0)},
			wantLabel:      "0/0",
			wantCollection: nil,
		},
		{
			name:           "no reading volume",
			record:         CollectionRecord{VolumesOwned: 4, TotalVolumes: intPtr(4), CompleteCollection: true},
			wantCollection: ptr(1.0),
			wantLabel:      "4/4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRatio(t, tt.wantReading, tt.record.ReadingProgress())
			assertRatio(t, tt.wantCollection, tt.record.CollectionProgress())
			assert.Equal(t, tt.wantLabel, tt.record.VolumesLabel())
		})
	}
}

func ptr(v float64) *float64 { return &v }

func assertRatio(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.InDelta(t, *want, *got, 1e-9)
}
