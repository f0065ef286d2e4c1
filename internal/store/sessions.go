package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/knowledge"
)

const sessionColumns = `id, document_id, node_id, user_id, session_type, duration, score, completed, started_at, completed_at`

func (t *Tx) InsertSession(ctx context.Context, s knowledge.Session) error {
	var score sql.NullFloat64
	if s.Score != nil {
		score = sql.NullFloat64{Float64: *s.Score, Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO learning_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.DocumentID, s.NodeID, s.UserID, s.Type, s.DurationMinutes, score, s.Completed,
		formatTime(s.StartedAt), nullTime(s.CompletedAt))
	if isConstraint(err) {
		return fmt.Errorf("session %q: %w", s.ID, apperrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func scanSession(row scanner) (knowledge.Session, error) {
	var s knowledge.Session
	var score sql.NullFloat64
	var started string
	var completed sql.NullString
	err := row.Scan(&s.ID, &s.DocumentID, &s.NodeID, &s.UserID, &s.Type, &s.DurationMinutes,
		&score, &s.Completed, &started, &completed)
	if err != nil {
		return knowledge.Session{}, err
	}
	if score.Valid {
		v := score.Float64
		s.Score = &v
	}
	if s.StartedAt, err = parseTime(started); err != nil {
		return knowledge.Session{}, err
	}
	if s.CompletedAt, err = parseNullTime(completed); err != nil {
		return knowledge.Session{}, err
	}
	return s, nil
}

// Sessions lists a document's sessions oldest first. A non-empty nodeID
// restricts the list to that node.
func (s *Store) Sessions(ctx context.Context, docID, nodeID string) ([]knowledge.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM learning_sessions WHERE document_id = ?`
	args := []any{docID}
	if nodeID != "" {
		query += ` AND node_id = ?`
		args = append(args, nodeID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY started_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []knowledge.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

const progressColumns = `user_id, document_id, node_id, time_spent, attempts, correct_answers,
	total_questions, confidence, last_practice_at`

// Progress returns a user's record on a node. ok is false when none exists.
func (t *Tx) Progress(ctx context.Context, userID, docID, nodeID string) (p knowledge.Progress, ok bool, err error) {
	var last string
	err = t.tx.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM learning_progress
		WHERE user_id = ? AND document_id = ? AND node_id = ?`, userID, docID, nodeID).
		Scan(&p.UserID, &p.DocumentID, &p.NodeID, &p.TimeSpentMinutes, &p.Attempts, &p.CorrectAnswers,
			&p.TotalQuestions, &p.ConfidenceLevel, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return knowledge.Progress{UserID: userID, DocumentID: docID, NodeID: nodeID}, false, nil
	}
	if err != nil {
		return knowledge.Progress{}, false, fmt.Errorf("get progress: %w", err)
	}
	if p.LastPracticeAt, err = parseTime(last); err != nil {
		return knowledge.Progress{}, false, err
	}
	return p, true, nil
}

func (t *Tx) UpsertProgress(ctx context.Context, p knowledge.Progress) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO learning_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, document_id, node_id) DO UPDATE SET
			time_spent = excluded.time_spent, attempts = excluded.attempts,
			correct_answers = excluded.correct_answers, total_questions = excluded.total_questions,
			confidence = excluded.confidence, last_practice_at = excluded.last_practice_at`,
		p.UserID, p.DocumentID, p.NodeID, p.TimeSpentMinutes, p.Attempts, p.CorrectAnswers,
		p.TotalQuestions, p.ConfidenceLevel, formatTime(p.LastPracticeAt))
	if isConstraint(err) {
		return fmt.Errorf("node %q: %w", p.NodeID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// GetProgress returns a user's record on a node.
func (s *Store) GetProgress(ctx context.Context, userID, docID, nodeID string) (knowledge.Progress, error) {
	var p knowledge.Progress
	err := s.RunTx(ctx, func(tx *Tx) error {
		got, ok, err := tx.Progress(ctx, userID, docID, nodeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("progress for user %q on node %q: %w", userID, nodeID, apperrors.ErrNotFound)
		}
		p = got
		return nil
	})
	return p, err
}

// UpdateProgress applies fn to a user's record on a node, starting from an
// empty record when none exists, and stores the result.
func (s *Store) UpdateProgress(ctx context.Context, userID, docID, nodeID string,
	fn func(knowledge.Progress) (knowledge.Progress, error)) (knowledge.Progress, error) {
	var out knowledge.Progress
	err := s.RunTx(ctx, func(tx *Tx) error {
		if _, err := tx.node(ctx, docID, nodeID); err != nil {
			return err
		}
		cur, _, err := tx.Progress(ctx, userID, docID, nodeID)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		next.UserID, next.DocumentID, next.NodeID = userID, docID, nodeID
		if err := tx.UpsertProgress(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}
