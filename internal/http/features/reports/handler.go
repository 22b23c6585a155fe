// Package reports exposes the weather report feed: a public listing and an
// authenticated multipart submission endpoint with an optional photo.
package reports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/weathercraft/weathercraft/internal/domain"
	"github.com/weathercraft/weathercraft/internal/http/middleware"
	"github.com/weathercraft/weathercraft/internal/httputil"
	"github.com/weathercraft/weathercraft/internal/observability"
	"github.com/weathercraft/weathercraft/internal/upload"
)

// maxPhotoMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to temp files.
const maxPhotoMemory = 4 << 20

// ReportStore is the persistence capability the handler needs.
// *repository.ReportsRepository implements it.
type ReportStore interface {
	Create(ctx context.Context, report *domain.Report) error
	List(ctx context.Context) ([]*domain.Report, error)
}

// Handler handles report endpoints.
type Handler struct {
	logger  *slog.Logger
	reports ReportStore
	uploads *upload.Storage
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewHandler creates a new reports handler.
func NewHandler(logger *slog.Logger, reports ReportStore, uploads *upload.Storage, metrics *observability.Metrics, clock clockwork.Clock) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		logger:  logger,
		reports: reports,
		uploads: uploads,
		metrics: metrics,
		clock:   clock,
	}
}

// ReportResponse is the public report shape.
type ReportResponse struct {
	ID             string    `json:"id"`
	City           string    `json:"city"`
	ObservedAt     string    `json:"time"`
	EffectiveUntil string    `json:"effective_until"`
	Kind           string    `json:"type"`
	Clouds         *string   `json:"clouds"`
	Moisture       string    `json:"moisture"`
	ActKind        string    `json:"act_kind"`
	DamageClass    string    `json:"damage_classification"`
	Title          string    `json:"title"`
	PhotoURL       *string   `json:"photo_url"`
	AuthorName     string    `json:"author_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// List returns all reports, newest first.
// GET /api/reports
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list reports", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to load reports")
		return
	}

	out := make([]ReportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, ReportResponse{
			ID:             report.ID.String(),
			City:           report.City,
			ObservedAt:     report.ObservedAt,
			EffectiveUntil: report.EffectiveUntil,
			Kind:           report.Kind,
			Clouds:         report.Clouds,
			Moisture:       report.Moisture,
			ActKind:        report.ActKind,
			DamageClass:    report.DamageClass,
			Title:          report.Title,
			PhotoURL:       report.PhotoURL,
			AuthorName:     report.AuthorName,
			CreatedAt:      report.CreatedAt,
		})
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Create submits a new report for the authenticated account.
// POST /api/reports (multipart/form-data, optional "photo" part)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := middleware.GetAccount(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	if err := r.ParseMultipartForm(maxPhotoMemory); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	report := &domain.Report{
		ID:             uuid.New(),
		AccountID:      acct.ID,
		City:           r.FormValue("city"),
		ObservedAt:     r.FormValue("time"),
		EffectiveUntil: r.FormValue("effective_until"),
		Kind:           r.FormValue("type"),
		Moisture:       r.FormValue("moisture"),
		ActKind:        r.FormValue("act_kind"),
		DamageClass:    r.FormValue("damage_classification"),
		Title:          r.FormValue("title"),
		CreatedAt:      h.clock.Now(),
	}
	if clouds := r.FormValue("clouds"); clouds != "" {
		report.Clouds = &clouds
	}

	if msg := validate(report); msg != "" {
		httputil.Error(w, http.StatusBadRequest, msg)
		return
	}

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		defer file.Close()
		photoURL, err := h.uploads.Save(file, header.Filename)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				httputil.Error(w, http.StatusBadRequest, "unsupported photo type")
				return
			}
			h.logger.Error("failed to store photo", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to store photo")
			return
		}
		report.PhotoURL = &photoURL
	case errors.Is(err, http.ErrMissingFile):
		// Photo is optional.
	default:
		httputil.Error(w, http.StatusBadRequest, "invalid photo upload")
		return
	}

	if err := h.reports.Create(r.Context(), report); err != nil {
		h.logger.Error("failed to submit report", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to submit report")
		return
	}

	h.metrics.ReportsCreated.Inc()
	h.logger.Info("report submitted", "id", report.ID, "city", report.City, "account", acct.ID)

	httputil.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      report.ID.String(),
	})
}

func validate(report *domain.Report) string {
	required := map[string]string{
		"city":                  report.City,
		"time":                  report.ObservedAt,
		"effective_until":       report.EffectiveUntil,
		"type":                  report.Kind,
		"moisture":              report.Moisture,
		"act_kind":              report.ActKind,
		"damage_classification": report.DamageClass,
		"title":                 report.Title,
	}
	for field, value := range required {
		if value == "" {
			return field + " is required"
		}
	}
	return ""
}
