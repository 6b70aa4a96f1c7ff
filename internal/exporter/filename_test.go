package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty uses default", input: "", expected: "Traffic_xxx_xxx_25.xlsx"},
		{name: "blank uses default", input: "   ", expected: "Traffic_xxx_xxx_25.xlsx"},
		{name: "extension appended", input: "March billing", expected: "March billing.xlsx"},
		{name: "extension kept", input: "report.xlsx", expected: "report.xlsx"},
		{name: "extension case normalised", input: "report.XLSX", expected: "report.xlsx"},
		{name: "path separators removed", input: "../../etc/passwd", expected: "etcpasswd.xlsx"},
		{name: "windows path removed", input: `C:\tmp\out`, expected: "Ctmpout.xlsx"},
		{name: "reserved characters removed", input: `a<b>c:"d|e?f*`, expected: "abcdef.xlsx"},
		{name: "control characters removed", input: "in\x00voice\n", expected: "invoice.xlsx"},
		{name: "only extension uses default", input: ".xlsx", expected: "Traffic_xxx_xxx_25.xlsx"},
		{name: "unicode kept", input: "فاتورة", expected: "فاتورة.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFileName(tt.input))
		})
	}
}
