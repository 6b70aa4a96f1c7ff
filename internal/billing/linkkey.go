package billing

import (
	"errors"
	"fmt"

	"autobill/pkg/contracts/domain"
)

// ErrUnknownSourceKind is returned for a row whose kind has no schema.
var ErrUnknownSourceKind = errors.New("unknown source kind")

// Schema describes how one feed lays out its link identity.
type Schema struct {
	Kind domain.SourceKind

	// KeyColumns are concatenated, in order, to form the link key.
	KeyColumns [2]string
}

var schemas = map[domain.SourceKind]Schema{
	domain.SourceGGSN: {Kind: domain.SourceGGSN, KeyColumns: [2]string{domain.ColumnMetro, domain.ColumnPort}},
	domain.SourceIX:   {Kind: domain.SourceIX, KeyColumns: [2]string{domain.ColumnPETransit, domain.ColumnPort}},
}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind domain.SourceKind) (Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSourceKind, kind)
	}
	return s, nil
}

// RequiredColumns lists every column a workbook of this kind must carry.
func (s Schema) RequiredColumns() []string {
	return []string{
		s.KeyColumns[0],
		s.KeyColumns[1],
		domain.ColumnMaxIn,
		domain.ColumnMaxOut,
		domain.ColumnUtilTime,
	}
}

// DeriveLink builds the link key of row by plain concatenation of the two
// identity fields of its feed. No separator, trimming or normalisation is
// applied, so distinct field pairs can collide ("AB"+"C1" == "A"+"BC1").
//
// A nil key is returned when either field is missing.
func DeriveLink(row domain.Row) (*string, error) {
	s, err := SchemaFor(row.Kind)
	if err != nil {
		return nil, err
	}
	first := row.Field(s.KeyColumns[0])
	second := row.Field(s.KeyColumns[1])
	if first == nil || second == nil {
		return nil, nil
	}
	link := *first + *second
	return &link, nil
}
