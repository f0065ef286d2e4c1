package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dgallion1/coursemap/internal/apperrors"
)

// Progress is one user's cumulative practice record on one node.
type Progress struct {
	UserID           string    `json:"userId" yaml:"userId"`
	DocumentID       string    `json:"documentId" yaml:"documentId"`
	NodeID           string    `json:"nodeId" yaml:"nodeId"`
	TimeSpentMinutes int       `json:"timeSpent" yaml:"timeSpent"`
	Attempts         int       `json:"attempts" yaml:"attempts"`
	CorrectAnswers   int       `json:"correctAnswers" yaml:"correctAnswers"`
	TotalQuestions   int       `json:"totalQuestions" yaml:"totalQuestions"`
	ConfidenceLevel  float64   `json:"confidenceLevel" yaml:"confidenceLevel"`
	LastPracticeAt   time.Time `json:"lastPracticeDate" yaml:"lastPracticeDate"`
}

// ProgressDelta is added onto a Progress. ConfidenceLevel replaces the
// stored value when set.
type ProgressDelta struct {
	TimeSpentMinutes int      `json:"timeSpent"`
	Attempts         int      `json:"attempts"`
	CorrectAnswers   int      `json:"correctAnswers"`
	TotalQuestions   int      `json:"totalQuestions"`
	ConfidenceLevel  *float64 `json:"confidenceLevel,omitempty"`
}

// Apply adds d to p. Negative counters, or more correct answers than
// questions after the update, are rejected.
func (p Progress) Apply(d ProgressDelta, now time.Time) (Progress, error) {
	if d.TimeSpentMinutes < 0 || d.Attempts < 0 || d.CorrectAnswers < 0 || d.TotalQuestions < 0 {
		return p, fmt.Errorf("progress delta has negative counters: %w", apperrors.ErrInvalidInput)
	}
	next := p
	next.TimeSpentMinutes += d.TimeSpentMinutes
	next.Attempts += d.Attempts
	next.CorrectAnswers += d.CorrectAnswers
	next.TotalQuestions += d.TotalQuestions
	if next.CorrectAnswers > next.TotalQuestions {
		return p, fmt.Errorf("%d correct answers exceed %d questions: %w",
			next.CorrectAnswers, next.TotalQuestions, apperrors.ErrInvalidInput)
	}
	if d.ConfidenceLevel != nil {
		c := *d.ConfidenceLevel
		if math.IsNaN(c) {
			return p, fmt.Errorf("confidence is not a number: %w", apperrors.ErrInvalidInput)
		}
		next.ConfidenceLevel = max(0, min(1, c))
	}
	next.LastPracticeAt = now
	return next, nil
}

// AccuracyRate is the percentage of correct answers, 0 with no questions.
func (p Progress) AccuracyRate() float64 {
	if p.TotalQuestions == 0 {
		return 0
	}
	return float64(p.CorrectAnswers) / float64(p.TotalQuestions) * 100
}

func (p Progress) MarshalJSON() ([]byte, error) {
	type plain Progress
	return json.Marshal(struct {
		plain
		AccuracyRate float64 `json:"accuracyRate"`
	}{plain(p), round1(p.AccuracyRate())})
}
