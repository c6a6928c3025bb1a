package ui

import (
	"strings"
)

// SparklineChars are the eight bar heights, lowest first.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a row of block characters scaled to the
// largest value. Only the last width values are drawn; width <= 0 draws all.
func Sparkline(values []float64, width int) string {
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}

	var sb strings.Builder
	sb.Grow(len(values) * 3)
	top := len(SparklineChars) - 1
	for _, v := range values {
		idx := 0
		if maxVal > 0 && v > 0 {
			idx = int(v / maxVal * float64(top))
		}
		sb.WriteRune(SparklineChars[min(max(idx, 0), top)])
	}
	return sb.String()
}
