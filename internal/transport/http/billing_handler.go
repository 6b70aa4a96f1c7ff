package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"autobill/internal/billing"
	"autobill/internal/dataprocessing"
	apierrors "autobill/internal/errors"
	"autobill/internal/middleware"
	"autobill/internal/selection"
	"autobill/internal/services"
	"autobill/internal/session"
	api "autobill/pkg/contracts/api/v1"
	"autobill/pkg/contracts/domain"
)

const (
	// UploadField is the multipart field carrying the workbooks.
	UploadField = "files"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartMemory is how much of an upload is held in memory before
	// spilling to temporary files.
	multipartMemory = 32 << 20
)

// BillingHandler handles the billing session API
type BillingHandler struct {
	service        BillingServiceInterface
	validator      *middleware.Validator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(service BillingServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BillingHandler {
	return &BillingHandler{
		service:        service,
		validator:      middleware.NewValidator(),
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "billing_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the billing routes
func (h *BillingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/sessions", h.CreateSession)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/links", h.GetLinks)
		r.Post("/percentiles", h.ComputePercentiles)
		r.Post("/export", h.ExportWorkbook)
		r.Delete("/", h.DeleteSession)
	})

	return r
}

// SessionCtx validates the session id path parameter
func (h *BillingHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.SessionNotFound(id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession handles POST /api/billing/sessions
func (h *BillingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	uploads, err := h.readUploads(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.Upload(r.Context(), uploads)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.SessionResponse{
		SessionID: summary.SessionID,
		Kinds:     make([]api.KindSummary, 0, len(summary.Kinds)),
		Warnings:  summary.Warnings,
	}
	for _, k := range summary.Kinds {
		resp.Kinds = append(resp.Kinds, api.KindSummary(k))
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// GetLinks handles GET /api/billing/sessions/{id}/links?kind=GGSN
func (h *BillingHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("kind")
	kind, err := domain.ParseSourceKind(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnknownSourceKind(raw))
		return
	}

	links, err := h.service.Links(r.Context(), sessionIDFrom(r), kind)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.LinksResponse{Kind: kind, Links: make([]api.LinkResponse, 0, len(links))}
	for _, l := range links {
		resp.Links = append(resp.Links, api.LinkResponse(l))
	}
	render.JSON(w, r, resp)
}

// ComputePercentiles handles POST /api/billing/sessions/{id}/percentiles
func (h *BillingHandler) ComputePercentiles(w http.ResponseWriter, r *http.Request) {
	var req api.ComputeRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	kind, _ := domain.ParseSourceKind(req.Kind)

	result, err := h.service.Compute(r.Context(), sessionIDFrom(r), kind, toSpecs(req.Selections))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, api.PercentilesResponse{
		Kind:        kind,
		Level:       result.Level,
		Column:      billing.ColumnName(result.Level),
		Percentiles: result.Percentiles,
		Quality:     result.Quality,
	})
}

// ExportWorkbook handles POST /api/billing/sessions/{id}/export
func (h *BillingHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	kind, _ := domain.ParseSourceKind(req.Kind)

	// Buffered so a failed export can still answer with a problem document.
	var buf bytes.Buffer
	name, err := h.service.Export(r.Context(), sessionIDFrom(r), kind, toSpecs(req.Selections), req.FileName, &buf)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to stream workbook",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

// DeleteSession handles DELETE /api/billing/sessions/{id}
func (h *BillingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), sessionIDFrom(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BillingHandler) readUploads(r *http.Request) ([]dataprocessing.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierrors.PayloadTooLarge(maxErr.Limit)
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[UploadField]
	if len(headers) == 0 {
		return nil, apierrors.ErrValidation(UploadField, "at least one workbook is required")
	}

	uploads := make([]dataprocessing.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, apierrors.InvalidRequestWithError(fmt.Errorf("%s: %w", fh.Filename, err))
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apierrors.InvalidRequestWithError(fmt.Errorf("%s: %w", fh.Filename, err))
		}
		uploads = append(uploads, dataprocessing.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

// handleServiceError maps service sentinels to API errors.
func (h *BillingHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var noFiles *services.NoUsableFilesError
	switch {
	case errors.As(err, &noFiles):
		err = apierrors.NoUsableFiles(noFiles.Warnings)
	case errors.Is(err, services.ErrMissingData):
		err = apierrors.MissingData(services.ErrMissingData.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		err = apierrors.SessionNotFound(sessionIDFrom(r))
	case errors.Is(err, billing.ErrInvalidWindow):
		err = apierrors.InvalidWindow(err)
	case errors.Is(err, billing.ErrUnknownSourceKind):
		err = apierrors.UnknownSourceKind(err.Error())
	}
	h.errorHandler.HandleError(w, r, err)
}

func sessionIDFrom(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func toSpecs(in []api.SelectionRequest) []selection.Spec {
	specs := make([]selection.Spec, len(in))
	for i, s := range in {
		specs[i] = selection.Spec(s)
	}
	return specs
}
