package dataprocessing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"autobill/pkg/contracts/domain"
)

// maxConcurrentParses bounds how many workbooks are decoded at once.
const maxConcurrentParses = 4

// Upload is one file handed to the loader.
type Upload struct {
	Name string
	Data []byte
}

// LoadReport is the outcome of loading a batch of uploads.
type LoadReport struct {
	Datasets map[domain.SourceKind]*domain.Dataset
	Warnings []string
}

// Loader classifies and parses uploaded workbooks.
type Loader struct {
	parser *Parser
	logger *slog.Logger
}

// NewLoader creates a loader that reads text timestamps in loc.
func NewLoader(logger *slog.Logger, loc *time.Location) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		parser: NewParser(logger, loc),
		logger: logger.With(slog.String("component", "loader")),
	}
}

// LoadFiles parses uploads concurrently. Files whose names do not identify a
// feed, and files that fail to parse, are skipped with a warning. When several
// files share a kind the one uploaded last wins.
//
// The returned error is non-nil only when ctx is cancelled.
func (l *Loader) LoadFiles(ctx context.Context, uploads []Upload) (*LoadReport, error) {
	type outcome struct {
		dataset *domain.Dataset
		warning string
	}
	outcomes := make([]outcome, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParses)

	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			kind, err := DetectSourceKind(up.Name)
			if err != nil {
				outcomes[i].warning = fmt.Sprintf("%s: %v", up.Name, err)
				return nil
			}

			ds, err := l.parser.Parse(bytes.NewReader(up.Data), up.Name, kind)
			if err != nil {
				var ingestErr *IngestionError
				if !errors.As(err, &ingestErr) {
					return err
				}
				outcomes[i].warning = ingestErr.Error()
				return nil
			}
			outcomes[i].dataset = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	report := &LoadReport{Datasets: make(map[domain.SourceKind]*domain.Dataset)}
	for i, o := range outcomes {
		if o.warning != "" {
			l.logger.WarnContext(ctx, "file skipped",
				slog.String("file", uploads[i].Name),
				slog.String("reason", o.warning))
			report.Warnings = append(report.Warnings, o.warning)
			continue
		}
		if prev, ok := report.Datasets[o.dataset.Kind]; ok {
			msg := fmt.Sprintf("%s replaces %s for %s", o.dataset.Source, prev.Source, o.dataset.Kind)
			l.logger.InfoContext(ctx, "dataset replaced", slog.String("detail", msg))
			report.Warnings = append(report.Warnings, msg)
		}
		report.Datasets[o.dataset.Kind] = o.dataset
	}

	return report, nil
}
