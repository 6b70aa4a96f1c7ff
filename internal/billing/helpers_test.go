package billing

import (
	"time"

	"autobill/pkg/contracts/domain"
)

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

var base = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

func ggsnRow(metro, port string, maxIn, maxOut *float64, t time.Time) domain.Row {
	return domain.Row{
		Kind: domain.SourceGGSN,
		Fields: map[string]*string{
			domain.ColumnMetro: str(metro),
			domain.ColumnPort:  str(port),
		},
		MaxIn:    maxIn,
		MaxOut:   maxOut,
		UtilTime: t,
	}
}

// linkRows builds one GGSN row per value for link metro+port, one hour apart.
func linkRows(metro, port string, values ...float64) []domain.Row {
	rows := make([]domain.Row, len(values))
	for i, v := range values {
		rows[i] = ggsnRow(metro, port, num(v), nil, at(i))
	}
	return rows
}
