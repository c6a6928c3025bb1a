package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"empty", nil, 10, ""},
		{"all zero", []float64{0, 0, 0}, 0, "▁▁▁"},
		{"scaled to max", []float64{0, 7, 14}, 0, "▁▄█"},
		{"keeps newest", []float64{14, 0, 7, 14}, 2, "▄█"},
		{"negative clamps", []float64{-5, 10}, 0, "▁█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sparkline(tt.values, tt.width))
		})
	}
}
