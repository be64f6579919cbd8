package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
)

// UpsertNode inserts or replaces a context node.
func (s *Store) UpsertNode(ctx context.Context, node models.ContextNode) error {
	if node.ID == "" {
		return fmt.Errorf("node id is required")
	}
	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	if node.UpdatedAt.IsZero() {
		node.UpdatedAt = node.CreatedAt
	}
	payload, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", node.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO context_nodes (id, payload, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload    = excluded.payload,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,
		node.ID, string(payload), node.Confidence, node.CreatedAt.UnixNano(), node.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.ID, err)
	}
	return nil
}

// GetNode returns the node with id or ErrNodeNotFound.
func (s *Store) GetNode(ctx context.Context, id string) (models.ContextNode, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM context_nodes WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ContextNode{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if err != nil {
		return models.ContextNode{}, fmt.Errorf("get node %s: %w", id, err)
	}
	return decodeNode(payload)
}

// ListNodes returns every node ordered by id.
func (s *Store) ListNodes(ctx context.Context) ([]models.ContextNode, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM context_nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.ContextNode
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		node, err := decodeNode(payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func decodeNode(payload string) (models.ContextNode, error) {
	var node models.ContextNode
	if err := json.Unmarshal([]byte(payload), &node); err != nil {
		return models.ContextNode{}, fmt.Errorf("decode node: %w", err)
	}
	return node, nil
}
