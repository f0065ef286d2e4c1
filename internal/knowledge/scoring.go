package knowledge

import (
	"strings"
	"unicode/utf8"
)

// TermGroup is one vocabulary concept with its spellings. A group scores
// at most one hit however many of its spellings appear.
type TermGroup []string

// Vocabulary drives the content heuristics.
type Vocabulary struct {
	Technical     []TermGroup
	CoreTechnical []TermGroup // subset used by EstimateComplexity
	Math          []string
	Abstract      []TermGroup
}

var coreTechnical = []TermGroup{
	{"algoritmo", "algorithm"},
	{"función", "function"},
	{"variable"},
	{"ecuación", "equation"},
	{"teorema", "theorem"},
	{"derivada", "derivative"},
	{"integral"},
	{"matriz", "matrix"},
	{"vector"},
	{"probabilidad", "probability"},
}

// DefaultVocabulary is the built-in Spanish/English vocabulary.
func DefaultVocabulary() Vocabulary {
	technical := append([]TermGroup{}, coreTechnical...)
	technical = append(technical,
		TermGroup{"estadística", "statistics"},
		TermGroup{"geometría", "geometry"},
		TermGroup{"trigonometría", "trigonometry"},
		TermGroup{"álgebra", "algebra"},
	)
	return Vocabulary{
		Technical:     technical,
		CoreTechnical: append([]TermGroup{}, coreTechnical...),
		Math:          []string{"=", "+", "-", "*", "/", "^", "√", "∫", "∑", "π"},
		Abstract: []TermGroup{
			{"concepto", "concept"},
			{"teoría", "theory"},
			{"principio", "principle"},
			{"método", "method"},
			{"estrategia", "strategy"},
			{"análisis", "analysis"},
			{"síntesis", "synthesis"},
			{"evaluación", "evaluation"},
			{"interpretación", "interpretation"},
		},
	}
}

func countGroups(text string, groups []TermGroup) int {
	n := 0
	for _, g := range groups {
		for _, term := range g {
			if strings.Contains(text, term) {
				n++
				break
			}
		}
	}
	return n
}

func countSymbols(text string, symbols []string) int {
	n := 0
	for _, s := range symbols {
		if strings.Contains(text, s) {
			n++
		}
	}
	return n
}

// DifficultyFactors are content signals, each in [0,1].
type DifficultyFactors struct {
	Length              float64 `json:"length" yaml:"length"`
	TechnicalTerms      float64 `json:"technicalTerms" yaml:"technicalTerms"`
	MathematicalContent float64 `json:"mathematicalContent" yaml:"mathematicalContent"`
	AbstractConcepts    float64 `json:"abstractConcepts" yaml:"abstractConcepts"`
}

func (f DifficultyFactors) Sum() float64 {
	return f.Length + f.TechnicalTerms + f.MathematicalContent + f.AbstractConcepts
}

// ComputeDifficultyFactors scores title and description against v.
func ComputeDifficultyFactors(v Vocabulary, title, description string) DifficultyFactors {
	text := strings.ToLower(title + " " + description)
	length := utf8.RuneCountInString(title) + utf8.RuneCountInString(description)
	return DifficultyFactors{
		Length:              min(float64(length)/1000, 1),
		TechnicalTerms:      min(float64(countGroups(text, v.Technical))/5, 1),
		MathematicalContent: min(float64(countSymbols(text, v.Math))/10, 1),
		AbstractConcepts:    min(float64(countGroups(text, v.Abstract))/3, 1),
	}
}

var typeDifficultyWeight = map[NodeType]float64{
	NodeUnit:   1.2,
	NodeModule: 1.0,
	NodeClass:  0.8,
}

// ClassifyDifficulty weights the factor sum by node type and buckets it.
func ClassifyDifficulty(t NodeType, f DifficultyFactors) Difficulty {
	w, ok := typeDifficultyWeight[t]
	if !ok {
		w = 1.0
	}
	score := f.Sum() * w
	switch {
	case score < 0.3:
		return DifficultyEasy
	case score < 0.7:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// ImportanceFor derives importance from node type and the parent's
// importance ("" when there is no parent).
func ImportanceFor(t NodeType, parent Importance) Importance {
	switch t {
	case NodeUnit:
		return ImportanceHigh
	case NodeModule:
		return ImportanceMedium
	case NodeClass:
		if parent == ImportanceHigh {
			return ImportanceMedium
		}
		return ImportanceLow
	}
	return ImportanceMedium
}

type ImportanceFactors struct {
	HierarchyLevel   float64 `json:"hierarchyLevel" yaml:"hierarchyLevel"`
	ParentImportance float64 `json:"parentImportance" yaml:"parentImportance"`
	ContentScope     float64 `json:"contentScope" yaml:"contentScope"`
}

var (
	hierarchyWeight = map[NodeType]float64{NodeUnit: 1.0, NodeModule: 0.7, NodeClass: 0.4}
	parentWeight    = map[Importance]float64{ImportanceHigh: 0.8, ImportanceMedium: 0.5, ImportanceLow: 0.2}
	scopeWeight     = map[NodeType]float64{NodeUnit: 1.0, NodeModule: 0.6, NodeClass: 0.3}
)

func lookup[K comparable](m map[K]float64, k K, def float64) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}

// ComputeImportanceFactors records the inputs behind ImportanceFor. A node
// without a parent has ParentImportance 0.
func ComputeImportanceFactors(t NodeType, parent Importance) ImportanceFactors {
	f := ImportanceFactors{
		HierarchyLevel: lookup(hierarchyWeight, t, 0.5),
		ContentScope:   lookup(scopeWeight, t, 0.5),
	}
	if parent != "" {
		f.ParentImportance = lookup(parentWeight, parent, 0.5)
	}
	return f
}

// StatusWeightsFor returns initial-status weights in Statuses order.
func StatusWeightsFor(d Difficulty, i Importance) [4]float64 {
	switch {
	case d == DifficultyHard && i == ImportanceHigh:
		return [4]float64{0.5, 0.2, 0.2, 0.1}
	case d == DifficultyEasy && i == ImportanceLow:
		return [4]float64{0.2, 0.4, 0.3, 0.1}
	}
	return [4]float64{0.3, 0.25, 0.25, 0.2}
}

// PickStatus selects a status from weights using u, a uniform draw in [0,1).
func PickStatus(weights [4]float64, u float64) Status {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := u * total
	var cum float64
	for i, w := range weights {
		cum += w
		if x < cum {
			return Statuses[i]
		}
	}
	return Statuses[len(Statuses)-1]
}

var (
	statusBaseProgress   = map[Status]int{StatusObjective: 0, StatusWellLearned: 85, StatusNeedsReinforcement: 60, StatusNotLearned: 10}
	difficultyAdjustment = map[Difficulty]int{DifficultyEasy: 10, DifficultyMedium: 0, DifficultyHard: -10}
)

// InitialProgress seeds progress from status and difficulty, clamped to [0,100].
func InitialProgress(s Status, d Difficulty) int {
	return clampProgress(statusBaseProgress[s] + difficultyAdjustment[d])
}

var (
	baseMinutes          = map[NodeType]float64{NodeUnit: 120, NodeModule: 60, NodeClass: 30}
	difficultyMultiplier = map[Difficulty]float64{DifficultyEasy: 0.7, DifficultyMedium: 1.0, DifficultyHard: 1.5}
)

// EstimateTimeSpent returns whole minutes; the product is truncated.
func EstimateTimeSpent(t NodeType, d Difficulty) int {
	return int(lookup(baseMinutes, t, 45) * lookup(difficultyMultiplier, d, 1.0))
}

// EstimateComplexity is a bounded blend of length, core technical terms and
// math symbols, capped at 1.
func EstimateComplexity(v Vocabulary, title, description string) float64 {
	text := strings.ToLower(title + " " + description)
	c := min(float64(utf8.RuneCountInString(text))/1000, 0.3)
	c += min(float64(countGroups(text, v.CoreTechnical))/10, 0.4)
	c += min(float64(countSymbols(text, v.Math))/15, 0.3)
	return min(c, 1.0)
}

// StatusForProgress maps progress to status by fixed thresholds.
func StatusForProgress(p int) Status {
	switch {
	case p >= 90:
		return StatusWellLearned
	case p >= 60:
		return StatusNeedsReinforcement
	case p >= 30:
		return StatusObjective
	default:
		return StatusNotLearned
	}
}
