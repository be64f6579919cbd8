package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/miradorstack/mirador-context/internal/models"
)

// ErrNoReports is returned by LatestReport on an empty history.
var ErrNoReports = errors.New("no pattern reports stored")

// StoreReport appends a pattern report to the history.
func (s *Store) StoreReport(ctx context.Context, report models.PatternReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO pattern_reports (snapshot_id, generated_at, geometry_score, payload) VALUES (?, ?, ?, ?)",
		report.SnapshotID, report.GeneratedAt.UnixNano(), report.SacredGeometryScore, string(payload),
	)
	if err != nil {
		return fmt.Errorf("store report %s: %w", report.SnapshotID, err)
	}
	return nil
}

// LatestReport returns the most recently generated report.
func (s *Store) LatestReport(ctx context.Context) (models.PatternReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM pattern_reports ORDER BY generated_at DESC, id DESC LIMIT 1",
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PatternReport{}, ErrNoReports
	}
	if err != nil {
		return models.PatternReport{}, fmt.Errorf("latest report: %w", err)
	}
	var report models.PatternReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return models.PatternReport{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}
