package repo

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "context_nodes: node payloads owned by the store",
		SQL: `
CREATE TABLE context_nodes (
    id          TEXT PRIMARY KEY,
    payload     TEXT NOT NULL,
    confidence  REAL NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX idx_context_nodes_updated ON context_nodes(updated_at DESC);
`,
	},
	{
		Version:     2,
		Description: "relationship_edges: promoted edges, closed but never deleted",
		SQL: `
CREATE TABLE relationship_edges (
    id          TEXT PRIMARY KEY,
    src         TEXT NOT NULL,
    dst         TEXT NOT NULL,
    edge_type   TEXT NOT NULL CHECK (edge_type IN ('depends_on', 'supports', 'conflicts_with', 'influences', 'related_to')),
    strength    REAL NOT NULL,
    confidence  REAL NOT NULL,
    started_at  INTEGER,
    ended_at    INTEGER,
    payload     TEXT NOT NULL
);

CREATE INDEX idx_edges_open ON relationship_edges(ended_at) WHERE ended_at IS NULL;
CREATE INDEX idx_edges_pair ON relationship_edges(src, dst);
`,
	},
	{
		Version:     3,
		Description: "pattern_reports: history of comprehensive analyses",
		SQL: `
CREATE TABLE pattern_reports (
    id              INTEGER PRIMARY KEY,
    snapshot_id     TEXT NOT NULL,
    generated_at    INTEGER NOT NULL,
    geometry_score  REAL NOT NULL,
    payload         TEXT NOT NULL
);

CREATE INDEX idx_reports_generated ON pattern_reports(generated_at DESC);
`,
	},
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// SchemaVersion returns the current schema version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
