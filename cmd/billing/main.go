// Command billing computes per-link 95th percentile traffic from GGSN or IX
// utilization workbooks and writes the billing workbook.
//
//	billing -ggsn GGSN_march.xlsx -type GGSN \
//	    -select "BGWP1=2025-03-01..2025-03-15" -out March_GGSN -csv summary.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"autobill/internal/billing"
	"autobill/internal/config"
	"autobill/internal/dataprocessing"
	"autobill/internal/exporter"
	"autobill/internal/files"
	"autobill/internal/infrastructure"
	"autobill/internal/selection"
	"autobill/internal/services"
	"autobill/internal/session"
	"autobill/pkg/contracts/domain"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// selectFlags collects repeated -select values.
type selectFlags []selection.Spec

func (s *selectFlags) String() string {
	parts := make([]string, len(*s))
	for i, spec := range *s {
		parts[i] = spec.Link
	}
	return strings.Join(parts, ",")
}

func (s *selectFlags) Set(v string) error {
	spec, err := selection.ParseFlag(v)
	if err != nil {
		return err
	}
	*s = append(*s, spec)
	return nil
}

type options struct {
	ggsnPath   string
	ixPath     string
	inputDir   string
	kind       string
	selections selectFlags
	out        string
	dir        string
	csvPath    string
	percentile string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("billing", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ggsnPath, "ggsn", "", "path to the GGSN utilization workbook")
	fs.StringVar(&opts.ixPath, "ix", "", "path to the IX utilization workbook")
	fs.StringVar(&opts.inputDir, "input", "", "directory searched for GGSN and IX workbooks by file name")
	fs.StringVar(&opts.kind, "type", "", "data type to bill: GGSN or IX (defaults to the only file given)")
	fs.Var(&opts.selections, "select", "link window as link=start..end; repeatable, dates are inclusive")
	fs.StringVar(&opts.out, "out", "", "output workbook name (default from configuration)")
	fs.StringVar(&opts.dir, "dir", ".", "directory the workbook is written to")
	fs.StringVar(&opts.csvPath, "csv", "", "also write the summary as CSV to this path")
	fs.StringVar(&opts.percentile, "percentile", "", "quantile level, p95 or 0.95 (default from configuration)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitUsage
	}
	if opts.percentile != "" {
		cfg.Billing.Percentile = opts.percentile
	}
	logger := infrastructure.NewJSONLogger(stderr, cfg.Logging.Level)
	ctx = infrastructure.EnsureTraceID(ctx)

	if opts.inputDir != "" {
		if err := discoverInputs(&opts, logger); err != nil {
			fmt.Fprintf(stderr, "billing failed: %v\n", err)
			return exitFailure
		}
	}

	kind, err := resolveKind(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return exitUsage
	}

	if err := bill(ctx, cfg, opts, kind, stdout, logger); err != nil {
		if errors.Is(err, services.ErrMissingData) {
			fmt.Fprintln(stderr, services.ErrMissingData.Error())
		} else {
			fmt.Fprintf(stderr, "billing failed: %v\n", err)
		}
		return exitFailure
	}
	return exitOK
}

// resolveKind picks the data type from -type, or from the only file given.
func resolveKind(opts options) (domain.SourceKind, error) {
	if opts.kind != "" {
		return domain.ParseSourceKind(opts.kind)
	}
	switch {
	case opts.ggsnPath != "" && opts.ixPath == "":
		return domain.SourceGGSN, nil
	case opts.ixPath != "" && opts.ggsnPath == "":
		return domain.SourceIX, nil
	case opts.ggsnPath == "" && opts.ixPath == "":
		return "", errors.New("no input: give -ggsn and/or -ix")
	default:
		return "", errors.New("both -ggsn and -ix given: choose one with -type")
	}
}

func bill(ctx context.Context, cfg *config.Config, opts options, kind domain.SourceKind, stdout io.Writer, logger *slog.Logger) error {
	loc, err := cfg.Billing.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	datasets, err := loadInputs(opts, dataprocessing.NewParser(logger, loc))
	if err != nil {
		return err
	}

	store := session.NewMemoryStore(0, logger)
	svc, err := services.NewBillingService(nil, store, nil, cfg.Billing, logger)
	if err != nil {
		return err
	}
	ws := store.Create(datasets, nil)

	result, err := svc.Compute(ctx, ws.ID, kind, opts.selections)
	if err != nil {
		return err
	}
	if err := printSummary(stdout, kind, result); err != nil {
		return err
	}

	name := opts.out
	if name == "" {
		name = cfg.Billing.DefaultOutputName
	}
	path := filepath.Join(opts.dir, exporter.SanitizeFileName(name))
	if err := writeWorkbook(ctx, svc, ws.ID, kind, opts.selections, name, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nworkbook written to %s\n", path)
	logger.InfoContext(ctx, "Workbook written",
		slog.String("kind", string(kind)),
		slog.String("file_path", path),
		slog.Int("links", len(result.Percentiles)))

	if opts.csvPath != "" {
		if err := exporter.NewCSVWriter(logger).WriteSummaryFile(opts.csvPath, result.Percentiles, result.Level); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "summary written to %s\n", opts.csvPath)
	}
	return nil
}

// discoverInputs fills the GGSN and IX paths not given explicitly from the
// workbooks in opts.inputDir. The newest workbook of each kind wins.
func discoverInputs(opts *options, logger *slog.Logger) error {
	workbooks, err := files.NewDiscovery(".").FindWorkbooks(opts.inputDir)
	if err != nil {
		return err
	}

	byKind := make(map[domain.SourceKind][]files.FileInfo)
	for _, wb := range workbooks {
		kind, err := dataprocessing.DetectSourceKind(wb.Name)
		if err != nil {
			logger.Warn("Skipping workbook", slog.String("file", wb.Name), slog.String("error", err.Error()))
			continue
		}
		byKind[kind] = append(byKind[kind], wb)
	}

	found := make(map[domain.SourceKind]string)
	for kind, candidates := range byKind {
		latest, _ := files.GetLatestFile(candidates)
		if len(candidates) > 1 {
			logger.Warn("Several workbooks for one kind, using the newest",
				slog.String("kind", string(kind)),
				slog.String("file", latest.Name),
				slog.Int("candidates", len(candidates)))
		}
		found[kind] = latest.Path
	}

	if opts.ggsnPath == "" {
		opts.ggsnPath = found[domain.SourceGGSN]
	}
	if opts.ixPath == "" {
		opts.ixPath = found[domain.SourceIX]
	}
	return nil
}

// loadInputs parses the workbooks named on the command line. The flag, not
// the file name, decides the data type.
func loadInputs(opts options, parser *dataprocessing.Parser) (map[domain.SourceKind]*domain.Dataset, error) {
	datasets := make(map[domain.SourceKind]*domain.Dataset)
	inputs := []struct {
		path string
		kind domain.SourceKind
	}{
		{opts.ggsnPath, domain.SourceGGSN},
		{opts.ixPath, domain.SourceIX},
	}
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		ds, err := parser.ParseFile(in.path, in.kind)
		if err != nil {
			return nil, err
		}
		datasets[in.kind] = ds
	}
	return datasets, nil
}

func writeWorkbook(ctx context.Context, svc *services.BillingService, id string, kind domain.SourceKind, specs []selection.Spec, name, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if _, err := svc.Export(ctx, id, kind, specs, name, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, kind domain.SourceKind, result *billing.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "link\t%s\n", billing.ColumnName(result.Level))
	for _, p := range result.Percentiles {
		fmt.Fprintf(tw, "%s\t%s\n", p.Link, formatValue(p.Percentile95))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	q := result.Quality
	_, err := fmt.Fprintf(w, "\n%s: %d links from %d rows (%d rows dropped: %d without link, %d without peak; %d links without data)\n",
		kind, len(result.Percentiles), q.TotalRows, q.Dropped(), q.NullLinkRows, q.NullPeakRows, q.EmptyPartitions)
	return err
}

func formatValue(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
