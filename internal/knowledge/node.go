package knowledge

import (
	"fmt"
	"time"

	"github.com/dgallion1/coursemap/internal/apperrors"
)

type NodeType string

const (
	NodeUnit   NodeType = "unit"
	NodeModule NodeType = "module"
	NodeClass  NodeType = "class"
)

// NodeTypes lists node types in hierarchy order.
var NodeTypes = []NodeType{NodeUnit, NodeModule, NodeClass}

// Status is a node's mastery state.
type Status string

const (
	StatusObjective          Status = "objective"
	StatusWellLearned        Status = "well_learned"
	StatusNeedsReinforcement Status = "needs_reinforcement"
	StatusNotLearned         Status = "not_learned"
)

// Statuses lists every status; weight tables are indexed in this order.
var Statuses = [4]Status{StatusObjective, StatusWellLearned, StatusNeedsReinforcement, StatusNotLearned}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus validates a wire value.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("status %q: %w", v, apperrors.ErrInvalidInput)
	}
	return s, nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

type SessionType string

const (
	SessionStudy    SessionType = "study"
	SessionQuiz     SessionType = "quiz"
	SessionReview   SessionType = "review"
	SessionPractice SessionType = "practice"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionStudy, SessionQuiz, SessionReview, SessionPractice:
		return true
	}
	return false
}

// DocRef identifies the document a graph was built from.
type DocRef struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	UploadedAt time.Time `json:"uploadedAt" yaml:"uploadedAt"`
}

// Node is one learning node. Parent/child is the ParentID lookup relation;
// nodes never hold pointers to each other.
type Node struct {
	ID               string     `json:"id" yaml:"id"`
	DocumentID       string     `json:"documentId" yaml:"documentId"`
	ParentID         string     `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Position         int        `json:"position" yaml:"position"`
	Title            string     `json:"title" yaml:"title"`
	Type             NodeType   `json:"type" yaml:"type"`
	Status           Status     `json:"status" yaml:"status"`
	Progress         int        `json:"progress" yaml:"progress"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	Importance       Importance `json:"importance" yaml:"importance"`
	Description      string     `json:"description" yaml:"description"`
	TimeSpentMinutes int        `json:"timeSpent" yaml:"timeSpent"`
	LastReviewedAt   *time.Time `json:"lastReviewed" yaml:"lastReviewed"`
	SourceElementID  string     `json:"sourceElementId,omitempty" yaml:"sourceElementId,omitempty"`
	Metadata         Metadata   `json:"metadata" yaml:"metadata"`
}

// Metadata records how a node's attributes were derived.
type Metadata struct {
	CreatedFromStructure bool            `json:"createdFromStructure" yaml:"createdFromStructure"`
	AnalysisTimestamp    time.Time       `json:"analysisTimestamp" yaml:"analysisTimestamp"`
	ContentAnalysis      ContentAnalysis `json:"contentAnalysis" yaml:"contentAnalysis"`
}

type ContentAnalysis struct {
	DifficultyFactors   DifficultyFactors `json:"difficultyFactors" yaml:"difficultyFactors"`
	ImportanceFactors   ImportanceFactors `json:"importanceFactors" yaml:"importanceFactors"`
	EstimatedComplexity float64           `json:"estimatedComplexity" yaml:"estimatedComplexity"`
}

// clampProgress bounds p to [0,100].
func clampProgress(p int) int {
	return max(0, min(100, p))
}
