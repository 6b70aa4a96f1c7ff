package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"autobill/internal/billing"
	"autobill/internal/config"
	"autobill/internal/dataprocessing"
	"autobill/internal/exporter"
	"autobill/internal/infrastructure"
	"autobill/internal/selection"
	"autobill/internal/session"
	"autobill/pkg/contracts/domain"
)

// FileLoader parses uploaded workbooks.
type FileLoader interface {
	LoadFiles(ctx context.Context, uploads []dataprocessing.Upload) (*dataprocessing.LoadReport, error)
}

// SessionStore keeps uploaded datasets between requests.
type SessionStore interface {
	Create(datasets map[domain.SourceKind]*domain.Dataset, warnings []string) *session.Workspace
	Get(id string) (*session.Workspace, error)
	Delete(id string) error
}

// KindSummary describes one loaded dataset.
type KindSummary struct {
	Kind   domain.SourceKind `json:"kind"`
	Source string            `json:"source"`
	Rows   int               `json:"rows"`
	Links  int               `json:"links"`
}

// UploadSummary is returned after a successful upload.
type UploadSummary struct {
	SessionID string        `json:"session_id"`
	Kinds     []KindSummary `json:"kinds"`
	Warnings  []string      `json:"warnings"`
}

// LinkInfo is a link with its observed util_time range, used as the default
// window when the operator gives no dates.
type LinkInfo struct {
	Link  string    `json:"link"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BillingService runs uploads, computations and exports against sessions.
type BillingService struct {
	loader      FileLoader
	store       SessionStore
	metrics     *infrastructure.BusinessMetrics
	tracer      trace.Tracer
	level       float64
	location    *time.Location
	defaultName string
	logger      *slog.Logger
}

// NewBillingService creates a billing service. metrics may be nil.
func NewBillingService(loader FileLoader, store SessionStore, metrics *infrastructure.BusinessMetrics, cfg config.BillingConfig, logger *slog.Logger) (*BillingService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, fmt.Errorf("invalid percentile: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	return &BillingService{
		loader:      loader,
		store:       store,
		metrics:     metrics,
		tracer:      otel.Tracer("autobill/services"),
		level:       level,
		location:    loc,
		defaultName: cfg.DefaultOutputName,
		logger:      logger.With(slog.String("component", "billing_service")),
	}, nil
}

// Level returns the quantile level used for computations.
func (s *BillingService) Level() float64 {
	return s.level
}

// Upload parses the uploaded workbooks into a new session.
func (s *BillingService) Upload(ctx context.Context, uploads []dataprocessing.Upload) (*UploadSummary, error) {
	ctx, span := s.tracer.Start(ctx, "billing.upload",
		trace.WithAttributes(attribute.Int("files", len(uploads))))
	defer span.End()

	report, err := s.loader.LoadFiles(ctx, uploads)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	for _, w := range report.Warnings {
		s.logger.WarnContext(ctx, "upload warning", slog.String("warning", w))
	}

	if len(report.Datasets) == 0 {
		err := &NoUsableFilesError{Warnings: report.Warnings}
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	ws := s.store.Create(report.Datasets, report.Warnings)

	summary := &UploadSummary{
		SessionID: ws.ID,
		Kinds:     make([]KindSummary, 0, len(ws.Datasets)),
		Warnings:  report.Warnings,
	}
	if summary.Warnings == nil {
		summary.Warnings = []string{}
	}

	for _, kind := range ws.Kinds() {
		ds := ws.Dataset(kind)
		rows, err := billing.Augment(ds.Rows)
		if err != nil {
			return nil, fmt.Errorf("failed to derive links for %s: %w", kind, err)
		}
		summary.Kinds = append(summary.Kinds, KindSummary{
			Kind:   kind,
			Source: ds.Source,
			Rows:   len(ds.Rows),
			Links:  len(billing.Links(rows)),
		})
		s.recordRowsLoaded(ctx, kind, len(ds.Rows))
	}

	span.SetAttributes(attribute.String("session_id", ws.ID))
	ctx = infrastructure.WithSessionID(ctx, ws.ID)
	s.logger.InfoContext(ctx, "session created",
		slog.Int("kinds", len(summary.Kinds)),
		slog.Int("warnings", len(summary.Warnings)))

	return summary, nil
}

// Links lists the links of kind in first-appearance order with their
// observed ranges.
func (s *BillingService) Links(ctx context.Context, sessionID string, kind domain.SourceKind) ([]LinkInfo, error) {
	ctx = infrastructure.WithSessionID(ctx, sessionID)
	ds, err := s.dataset(sessionID, kind)
	if err != nil {
		return nil, err
	}

	rows, err := billing.Augment(ds.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to derive links: %w", err)
	}

	ranges := billing.ObservedRanges(rows)
	links := billing.Links(rows)
	out := make([]LinkInfo, 0, len(links))
	for _, link := range links {
		w := ranges[link]
		out = append(out, LinkInfo{Link: link, Start: w.Start, End: w.End})
	}

	s.logger.DebugContext(ctx, "links listed",
		slog.String("kind", string(kind)),
		slog.Int("links", len(out)))
	return out, nil
}

// Compute runs the billing pipeline for kind with the given selections.
// Selections without dates use the link's observed range.
func (s *BillingService) Compute(ctx context.Context, sessionID string, kind domain.SourceKind, specs []selection.Spec) (*billing.Result, error) {
	ctx = infrastructure.WithSessionID(ctx, sessionID)
	ctx, span := s.tracer.Start(ctx, "billing.compute",
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.String("kind", string(kind)),
			attribute.Int("selections", len(specs)),
		))
	defer span.End()

	ds, err := s.dataset(sessionID, kind)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	start := time.Now()
	result, err := s.compute(ds, specs)
	s.recordComputation(ctx, kind, result, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	q := result.Quality
	span.SetAttributes(
		attribute.Int("rows", q.TotalRows),
		attribute.Int("links", len(result.Percentiles)),
	)
	s.logger.InfoContext(ctx, "percentiles computed",
		slog.String("kind", string(kind)),
		slog.Int("links", len(result.Percentiles)),
		slog.Int("total_rows", q.TotalRows),
		slog.Int("dropped_rows", q.Dropped()),
		slog.Int("null_link_rows", q.NullLinkRows),
		slog.Int("null_peak_rows", q.NullPeakRows),
		slog.Int("empty_partitions", q.EmptyPartitions))

	return result, nil
}

// Export computes kind and writes the workbook to w. It returns the
// sanitized file name the workbook should be saved under.
func (s *BillingService) Export(ctx context.Context, sessionID string, kind domain.SourceKind, specs []selection.Spec, fileName string, w io.Writer) (string, error) {
	ctx = infrastructure.WithSessionID(ctx, sessionID)
	ctx, span := s.tracer.Start(ctx, "billing.export",
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.String("kind", string(kind)),
		))
	defer span.End()

	result, err := s.Compute(ctx, sessionID, kind, specs)
	if err != nil {
		return "", err
	}

	ds, err := s.dataset(sessionID, kind)
	if err != nil {
		return "", err
	}

	if fileName == "" {
		fileName = s.defaultName
	}
	name := exporter.SanitizeFileName(fileName)

	if err := exporter.WriteWorkbook(w, ds, result); err != nil {
		infrastructure.RecordError(ctx, err)
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordExport(ctx, kind)
	}
	s.logger.InfoContext(ctx, "workbook exported",
		slog.String("kind", string(kind)),
		slog.String("file", name))

	return name, nil
}

// Delete discards a session.
func (s *BillingService) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(sessionID); err != nil {
		return err
	}
	s.logger.InfoContext(infrastructure.WithSessionID(ctx, sessionID), "session deleted")
	return nil
}

func (s *BillingService) dataset(sessionID string, kind domain.SourceKind) (*domain.Dataset, error) {
	if _, err := billing.SchemaFor(kind); err != nil {
		return nil, err
	}
	ws, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ds := ws.Dataset(kind)
	if ds == nil || len(ds.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingData)
	}
	return ds, nil
}

func (s *BillingService) compute(ds *domain.Dataset, specs []selection.Spec) (*billing.Result, error) {
	rows, err := billing.Augment(ds.Rows)
	if err != nil {
		return nil, err
	}

	selections, err := selection.Resolve(specs, billing.ObservedRanges(rows), s.location)
	if err != nil {
		return nil, err
	}

	return billing.Compute(ds.Rows, selections, billing.Options{Level: s.level})
}

func (s *BillingService) recordRowsLoaded(ctx context.Context, kind domain.SourceKind, rows int) {
	if s.metrics != nil {
		s.metrics.RecordRowsLoaded(ctx, kind, rows)
	}
}

func (s *BillingService) recordComputation(ctx context.Context, kind domain.SourceKind, result *billing.Result, d time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	var q domain.QualityReport
	if result != nil {
		q = result.Quality
	}
	s.metrics.RecordComputation(ctx, kind, q, d, err)
}
