package http

import (
	"context"
	"io"

	"autobill/internal/billing"
	"autobill/internal/dataprocessing"
	"autobill/internal/selection"
	"autobill/internal/services"
	"autobill/pkg/contracts/domain"
)

// BillingServiceInterface defines the billing operations the handler needs
type BillingServiceInterface interface {
	Upload(ctx context.Context, uploads []dataprocessing.Upload) (*services.UploadSummary, error)
	Links(ctx context.Context, sessionID string, kind domain.SourceKind) ([]services.LinkInfo, error)
	Compute(ctx context.Context, sessionID string, kind domain.SourceKind, specs []selection.Spec) (*billing.Result, error)
	Export(ctx context.Context, sessionID string, kind domain.SourceKind, specs []selection.Spec, fileName string, w io.Writer) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
