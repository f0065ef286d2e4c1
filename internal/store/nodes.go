package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/knowledge"
)

const nodeColumns = `node_id, document_id, parent_id, position, title, node_type, status, progress,
	difficulty, importance, description, time_spent, last_reviewed_at, source_element_id, metadata`

func scanNode(row scanner) (knowledge.Node, error) {
	var n knowledge.Node
	var reviewed sql.NullString
	var meta string
	err := row.Scan(&n.ID, &n.DocumentID, &n.ParentID, &n.Position, &n.Title, &n.Type, &n.Status,
		&n.Progress, &n.Difficulty, &n.Importance, &n.Description, &n.TimeSpentMinutes,
		&reviewed, &n.SourceElementID, &meta)
	if err != nil {
		return knowledge.Node{}, err
	}
	if n.LastReviewedAt, err = parseNullTime(reviewed); err != nil {
		return knowledge.Node{}, err
	}
	if err := json.Unmarshal([]byte(meta), &n.Metadata); err != nil {
		return knowledge.Node{}, fmt.Errorf("decode node metadata: %w", err)
	}
	return n, nil
}

// CreateGraphIfAbsent stores the nodes returned by build unless the
// document already has a graph. build runs inside the transaction and only
// when nothing exists yet. created reports whether nodes were written.
func (s *Store) CreateGraphIfAbsent(ctx context.Context, docID string, build func() []knowledge.Node) (created bool, err error) {
	err = s.RunTx(ctx, func(tx *Tx) error {
		var exists int
		err := tx.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, docID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check document: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("document %q: %w", docID, apperrors.ErrNotFound)
		}

		var count int
		err = tx.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_nodes WHERE document_id = ?`, docID).Scan(&count)
		if err != nil {
			return fmt.Errorf("count nodes: %w", err)
		}
		if count > 0 {
			created = false
			return nil
		}

		stmt, err := tx.tx.PrepareContext(ctx, `INSERT INTO knowledge_nodes (`+nodeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare node insert: %w", err)
		}
		defer stmt.Close()

		for _, n := range build() {
			meta, err := json.Marshal(n.Metadata)
			if err != nil {
				return fmt.Errorf("marshal node metadata: %w", err)
			}
			_, err = stmt.ExecContext(ctx, n.ID, docID, n.ParentID, n.Position, n.Title, n.Type, n.Status,
				n.Progress, n.Difficulty, n.Importance, n.Description, n.TimeSpentMinutes,
				nullTime(n.LastReviewedAt), n.SourceElementID, string(meta))
			if err != nil {
				return fmt.Errorf("insert node %s: %w", n.ID, err)
			}
		}
		created = true
		return nil
	})
	return created, err
}

// Nodes returns a document's nodes in build order.
func (s *Store) Nodes(ctx context.Context, docID string) ([]knowledge.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM knowledge_nodes WHERE document_id = ? ORDER BY position`, docID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []knowledge.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (t *Tx) node(ctx context.Context, docID, nodeID string) (knowledge.Node, error) {
	n, err := scanNode(t.tx.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM knowledge_nodes WHERE document_id = ? AND node_id = ?`, docID, nodeID))
	if errors.Is(err, sql.ErrNoRows) {
		return knowledge.Node{}, fmt.Errorf("node %q: %w", nodeID, apperrors.ErrNotFound)
	}
	if err != nil {
		return knowledge.Node{}, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

func (t *Tx) saveNode(ctx context.Context, n knowledge.Node) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE knowledge_nodes
		SET status = ?, progress = ?, time_spent = ?, last_reviewed_at = ?
		WHERE document_id = ? AND node_id = ?`,
		n.Status, n.Progress, n.TimeSpentMinutes, nullTime(n.LastReviewedAt), n.DocumentID, n.ID)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	return nil
}

// UpdateNode reads a node, passes it to fn and writes back the mutable
// fields of the result, all in one transaction. fn may use tx for related
// writes; an error from fn rolls everything back.
func (s *Store) UpdateNode(ctx context.Context, docID, nodeID string,
	fn func(tx *Tx, n knowledge.Node) (knowledge.Node, error)) (knowledge.Node, error) {
	var out knowledge.Node
	err := s.RunTx(ctx, func(tx *Tx) error {
		n, err := tx.node(ctx, docID, nodeID)
		if err != nil {
			return err
		}
		updated, err := fn(tx, n)
		if err != nil {
			return err
		}
		updated.ID, updated.DocumentID = n.ID, n.DocumentID
		if err := tx.saveNode(ctx, updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}
