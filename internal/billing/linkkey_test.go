package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobill/pkg/contracts/domain"
)

func TestDeriveLink(t *testing.T) {
	tests := []struct {
		name string
		row  domain.Row
		want *string
	}{
		{
			name: "ggsn concatenates metro and port",
			row:  ggsnRow("JKT", "Gi0/1", nil, nil, base),
			want: str("JKTGi0/1"),
		},
		{
			name: "ix concatenates pe_transit and port",
			row: domain.Row{
				Kind: domain.SourceIX,
				Fields: map[string]*string{
					domain.ColumnPETransit: str("PE-SBY"),
					domain.ColumnPort:      str("xe-1/0/0"),
					domain.ColumnMetro:     str("ignored"),
				},
			},
			want: str("PE-SBYxe-1/0/0"),
		},
		{
			name: "whitespace is kept as-is",
			row:  ggsnRow(" JKT ", "P1 ", nil, nil, base),
			want: str(" JKT P1 "),
		},
		{
			name: "missing port gives nil key",
			row: domain.Row{
				Kind:   domain.SourceGGSN,
				Fields: map[string]*string{domain.ColumnMetro: str("JKT")},
			},
			want: nil,
		},
		{
			name: "ix row without pe_transit gives nil key",
			row: domain.Row{
				Kind: domain.SourceIX,
				Fields: map[string]*string{
					domain.ColumnMetro: str("JKT"),
					domain.ColumnPort:  str("P1"),
				},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveLink(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveLink_CollidingKeysArePreserved(t *testing.T) {
	a, err := DeriveLink(ggsnRow("AB", "C1", nil, nil, base))
	require.NoError(t, err)
	b, err := DeriveLink(ggsnRow("A", "BC1", nil, nil, base))
	require.NoError(t, err)

	assert.Equal(t, "ABC1", *a)
	assert.Equal(t, *a, *b)
}

func TestDeriveLink_UnknownKind(t *testing.T) {
	_, err := DeriveLink(domain.Row{Kind: "MPLS"})
	assert.ErrorIs(t, err, ErrUnknownSourceKind)
}

func TestSchemaRequiredColumns(t *testing.T) {
	s, err := SchemaFor(domain.SourceIX)
	require.NoError(t, err)
	assert.Equal(t, []string{"pe_transit", "port", "max_in", "max_out", "util_time"}, s.RequiredColumns())
}
