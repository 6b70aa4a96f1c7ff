package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeakMetric(t *testing.T) {
	tests := []struct {
		name    string
		in, out *float64
		want    *float64
	}{
		{"both present", num(3), num(7), num(7)},
		{"inbound larger", num(9), num(2), num(9)},
		{"inbound missing", nil, num(4), num(4)},
		{"outbound missing", num(5), nil, num(5)},
		{"both missing", nil, nil, nil},
		{"zero is a value", num(0), nil, num(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeakMetric(tt.in, tt.out)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestPeakMetric_DoesNotAliasInputs(t *testing.T) {
	in := num(1)
	got := PeakMetric(in, nil)
	*got = 42
	assert.Equal(t, 1.0, *in)
}
