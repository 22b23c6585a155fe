package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/weathercraft/weathercraft/internal/domain"
	"github.com/weathercraft/weathercraft/internal/http/middleware"
	"github.com/weathercraft/weathercraft/internal/observability"
	"github.com/weathercraft/weathercraft/internal/upload"
)

type fakeReportStore struct {
	created []*domain.Report
	reports []*domain.Report
}

func (s *fakeReportStore) Create(_ context.Context, report *domain.Report) error {
	s.created = append(s.created, report)
	return nil
}

func (s *fakeReportStore) List(context.Context) ([]*domain.Report, error) {
	return s.reports, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeReportStore, *clockwork.FakeClock) {
	t.Helper()
	store := &fakeReportStore{}
	clock := clockwork.NewFakeClock()
	uploads, err := upload.New(t.TempDir())
	if err != nil {
		t.Fatalf("upload.New() error = %v", err)
	}
	h := NewHandler(slog.New(slog.DiscardHandler), store, uploads, observability.NewMetricsForTesting(), clock)
	return h, store, clock
}

func reportForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, value := range fields {
		if err := w.WriteField(field, value); err != nil {
			t.Fatalf("write field %q: %v", field, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"city":                  "Stockholm",
		"time":                  "14:00",
		"effective_until":       "18:00",
		"type":                  "storm",
		"moisture":              "high",
		"act_kind":              "warning",
		"damage_classification": "moderate",
		"title":                 "Afternoon thunderstorm",
	}
}

func asAccount(req *http.Request, acct *domain.Account) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.AccountKey, acct)
	return req.WithContext(ctx)
}

func TestCreate_StampsClockAndAuthor(t *testing.T) {
	h, store, clock := newTestHandler(t)
	acct := &domain.Account{ID: uuid.New(), Username: "Notch", Verified: true}

	body, contentType := reportForm(t, validFields())
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Create(rec, asAccount(req, acct))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d reports, want 1", len(store.created))
	}

	report := store.created[0]
	if !report.CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want the injected clock's now %v", report.CreatedAt, clock.Now())
	}
	if report.AccountID != acct.ID {
		t.Errorf("AccountID = %v, want the authenticated account", report.AccountID)
	}
	if report.City != "Stockholm" || report.Title != "Afternoon thunderstorm" {
		t.Errorf("report fields = %q/%q", report.City, report.Title)
	}
	if report.PhotoURL != nil {
		t.Errorf("PhotoURL = %v, want nil without a photo part", *report.PhotoURL)
	}
}

func TestCreate_MissingField(t *testing.T) {
	h, store, _ := newTestHandler(t)
	acct := &domain.Account{ID: uuid.New(), Username: "Notch"}

	fields := validFields()
	delete(fields, "city")
	body, contentType := reportForm(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Create(rec, asAccount(req, acct))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "city is required" {
		t.Errorf("error = %q, want %q", resp["error"], "city is required")
	}
	if len(store.created) != 0 {
		t.Error("invalid submission must not be stored")
	}
}

func TestCreate_WithoutAccount(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body, contentType := reportForm(t, validFields())
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestList(t *testing.T) {
	h, store, clock := newTestHandler(t)
	clouds := "cumulonimbus"
	store.reports = []*domain.Report{{
		ID:             uuid.New(),
		City:           "Stockholm",
		ObservedAt:     "14:00",
		EffectiveUntil: "18:00",
		Kind:           "storm",
		Clouds:         &clouds,
		Moisture:       "high",
		ActKind:        "warning",
		DamageClass:    "moderate",
		Title:          "Afternoon thunderstorm",
		AuthorName:     "Notch",
		CreatedAt:      clock.Now(),
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []ReportResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].AuthorName != "Notch" || out[0].Kind != "storm" {
		t.Errorf("report = %+v", out[0])
	}
	if out[0].Clouds == nil || *out[0].Clouds != "cumulonimbus" {
		t.Errorf("Clouds = %v, want joined value", out[0].Clouds)
	}
}
