package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
)

// PersistEdge inserts a new edge. Edge ids are unique; re-persisting an id
// fails.
func (s *Store) PersistEdge(ctx context.Context, edge models.RelationshipEdge) error {
	if edge.ID == "" {
		return fmt.Errorf("edge id is required")
	}
	endedAt := edge.EndedAt
	edge.EndedAt = nil
	payload, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("encode edge %s: %w", edge.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationship_edges (id, src, dst, edge_type, strength, confidence, started_at, ended_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.Src, edge.Dst, string(edge.Type), edge.Strength, edge.Confidence,
		nullableNanos(edge.StartedAt), nullableNanos(endedAt), string(payload),
	)
	if err != nil {
		return fmt.Errorf("persist edge %s: %w", edge.ID, err)
	}
	return nil
}

// CloseEdge sets ended_at on an open edge. Closing an unknown or already
// closed edge returns ErrEdgeNotFound.
func (s *Store) CloseEdge(ctx context.Context, id string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE relationship_edges SET ended_at = ? WHERE id = ? AND ended_at IS NULL",
		endedAt.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("close edge %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close edge %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	return nil
}

// OpenEdges returns every edge without ended_at, ordered by id.
func (s *Store) OpenEdges(ctx context.Context) ([]models.RelationshipEdge, error) {
	return s.queryEdges(ctx, "SELECT payload, ended_at FROM relationship_edges WHERE ended_at IS NULL ORDER BY id")
}

// EdgesBetween returns all edges from src to dst, open or closed, oldest first.
func (s *Store) EdgesBetween(ctx context.Context, src, dst string) ([]models.RelationshipEdge, error) {
	return s.queryEdges(ctx,
		"SELECT payload, ended_at FROM relationship_edges WHERE src = ? AND dst = ? ORDER BY started_at, id",
		src, dst,
	)
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]models.RelationshipEdge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []models.RelationshipEdge
	for rows.Next() {
		var payload string
		var endedAt sql.NullInt64
		if err := rows.Scan(&payload, &endedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		var edge models.RelationshipEdge
		if err := json.Unmarshal([]byte(payload), &edge); err != nil {
			return nil, fmt.Errorf("decode edge: %w", err)
		}
		if endedAt.Valid {
			t := time.Unix(0, endedAt.Int64).UTC()
			edge.EndedAt = &t
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func nullableNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
