package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0"},
		{name: "integer", input: 123, expected: "123"},
		{name: "decimal with trailing zeros", input: 123.456000, expected: "123.456"},
		{name: "small decimal", input: 0.001234, expected: "0.001234"},
		{name: "interpolated percentile", input: 38.5, expected: "38.5"},
		{name: "large value", input: 1234567.89, expected: "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestWallClock(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)
	in := time.Date(2025, 3, 1, 23, 30, 0, 0, loc)

	got := wallClock(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, "2025-03-01 23:30:00", got.Format("2006-01-02 15:04:05"))
}
