package repository

import (
	"context"
	"database/sql"

	"github.com/weathercraft/weathercraft/internal/domain"
)

// ReportsRepository handles weather report persistence.
type ReportsRepository struct {
	db *sql.DB
}

// NewReportsRepository creates a new reports repository.
func NewReportsRepository(db *sql.DB) *ReportsRepository {
	return &ReportsRepository{db: db}
}

// Create inserts a new report.
func (r *ReportsRepository) Create(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (id, account_id, city, observed_at, effective_until,
			kind, clouds, moisture, act_kind, damage_class, title, photo_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.AccountID, report.City, report.ObservedAt, report.EffectiveUntil,
		report.Kind, report.Clouds, report.Moisture, report.ActKind, report.DamageClass,
		report.Title, report.PhotoURL, report.CreatedAt,
	)
	return err
}

// List returns all reports newest first, with the author's username joined in.
func (r *ReportsRepository) List(ctx context.Context) ([]*domain.Report, error) {
	query := `
		SELECT reports.id, reports.account_id, reports.city, reports.observed_at,
		       reports.effective_until, reports.kind, reports.clouds, reports.moisture,
		       reports.act_kind, reports.damage_class, reports.title, reports.photo_url,
		       reports.created_at, accounts.username
		FROM reports
		LEFT JOIN accounts ON reports.account_id = accounts.id
		ORDER BY reports.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		report := &domain.Report{}
		var clouds, photoURL, author sql.NullString
		err := rows.Scan(
			&report.ID, &report.AccountID, &report.City, &report.ObservedAt,
			&report.EffectiveUntil, &report.Kind, &clouds, &report.Moisture,
			&report.ActKind, &report.DamageClass, &report.Title, &photoURL,
			&report.CreatedAt, &author,
		)
		if err != nil {
			return nil, err
		}
		if clouds.Valid {
			report.Clouds = &clouds.String
		}
		if photoURL.Valid {
			report.PhotoURL = &photoURL.String
		}
		report.AuthorName = author.String
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
