package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryDefaultSize(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"default size", 0, HistorySize},
		{"negative size", -3, HistorySize},
		{"custom size", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.size)
			assert.Len(t, h.data, tt.want)
			assert.Empty(t, h.Points())
		})
	}
}

func TestHistoryOverflow(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 7; i++ {
		h.Push(HistoryPoint{Load: float64(i)})
	}

	points := h.Points()
	require.Len(t, points, 3)
	assert.Equal(t, []float64{4, 5, 6}, []float64{points[0].Load, points[1].Load, points[2].Load})
}

func TestHistoryPointsIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Push(HistoryPoint{Load: 1})

	points := h.Points()
	points[0].Load = 99
	assert.Equal(t, 1.0, h.Points()[0].Load)
}
