package knowledge

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/coursemap/internal/apperrors"
)

// SessionInput describes one completed learning session on a node.
type SessionInput struct {
	ID              string      `json:"id,omitempty"`
	Type            SessionType `json:"sessionType"`
	DurationMinutes int         `json:"duration"`
	Score           *float64    `json:"score,omitempty"`
	UserID          string      `json:"userId,omitempty"`
}

func (in SessionInput) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("session type %q: %w", in.Type, apperrors.ErrInvalidInput)
	}
	if in.DurationMinutes < 0 {
		return fmt.Errorf("negative duration %d: %w", in.DurationMinutes, apperrors.ErrInvalidInput)
	}
	if in.Score != nil && (math.IsNaN(*in.Score) || math.IsInf(*in.Score, 0)) {
		return fmt.Errorf("score is not a number: %w", apperrors.ErrInvalidInput)
	}
	return nil
}

// Session is a recorded session.
type Session struct {
	ID              string      `json:"id" yaml:"id"`
	DocumentID      string      `json:"documentId" yaml:"documentId"`
	NodeID          string      `json:"nodeId" yaml:"nodeId"`
	UserID          string      `json:"userId,omitempty" yaml:"userId,omitempty"`
	Type            SessionType `json:"sessionType" yaml:"sessionType"`
	DurationMinutes int         `json:"duration" yaml:"duration"`
	Score           *float64    `json:"score" yaml:"score"`
	Completed       bool        `json:"completed" yaml:"completed"`
	StartedAt       time.Time   `json:"startedAt" yaml:"startedAt"`
	CompletedAt     *time.Time  `json:"completedAt" yaml:"completedAt"`
}

// ApplySession returns the node after a session and the session record.
// A scored session advances progress by score/100*20 (capped at 100) and
// re-derives status from the thresholds; an unscored one leaves both alone.
// Time spent always accumulates. The caller validates in first.
func ApplySession(n Node, in SessionInput, now time.Time) (Node, Session) {
	var score *float64
	if in.Score != nil {
		s := max(0, min(100, *in.Score))
		score = &s
		progress := int(min(100, float64(n.Progress)+s/100*20))
		n.Progress = clampProgress(progress)
		n.Status = StatusForProgress(n.Progress)
	}
	n.TimeSpentMinutes += in.DurationMinutes
	reviewed := now
	n.LastReviewedAt = &reviewed

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	completed := now
	return n, Session{
		ID:              id,
		DocumentID:      n.DocumentID,
		NodeID:          n.ID,
		UserID:          in.UserID,
		Type:            in.Type,
		DurationMinutes: in.DurationMinutes,
		Score:           score,
		Completed:       true,
		StartedAt:       now.Add(-time.Duration(in.DurationMinutes) * time.Minute),
		CompletedAt:     &completed,
	}
}

// ApplyStatus sets a status directly. Progress, when given, is clamped to
// [0,100]; the progress thresholds are not enforced on manual overrides.
func ApplyStatus(n Node, s Status, progress *int) (Node, error) {
	if !s.Valid() {
		return n, fmt.Errorf("status %q: %w", s, apperrors.ErrInvalidInput)
	}
	n.Status = s
	if progress != nil {
		n.Progress = clampProgress(*progress)
	}
	return n, nil
}
