package structure

// ElementType classifies a detected heading.
type ElementType string

const (
	TypeUnit    ElementType = "unit"
	TypeModule  ElementType = "module"
	TypeClass   ElementType = "class"
	TypeSection ElementType = "section"
)

// Level returns the hierarchy depth for t: unit 1 through section 4.
func (t ElementType) Level() int {
	switch t {
	case TypeUnit:
		return 1
	case TypeModule:
		return 2
	case TypeClass:
		return 3
	case TypeSection:
		return 4
	}
	return 5
}

// Element is one detected heading line.
type Element struct {
	Type           ElementType `json:"elementType" yaml:"elementType"`
	Title          string      `json:"title" yaml:"title"`
	Ordinal        string      `json:"ordinal,omitempty" yaml:"ordinal,omitempty"`
	Level          int         `json:"level" yaml:"level"`
	PageNumber     int         `json:"pageNumber" yaml:"pageNumber"` // 1-based
	LineNumber     int         `json:"lineNumber" yaml:"lineNumber"` // 0-based index into the page's raw lines
	ID             string      `json:"elementId" yaml:"elementId"`
	ContentPreview string      `json:"contentPreview" yaml:"contentPreview"`
}

// ClassNode is a class inside a module or directly inside a unit.
type ClassNode struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	PageStart      int    `json:"pageStart" yaml:"pageStart"`
	ContentPreview string `json:"contentPreview,omitempty" yaml:"contentPreview,omitempty"`
}

// ModuleNode groups classes under a unit.
type ModuleNode struct {
	ID             string      `json:"id" yaml:"id"`
	Title          string      `json:"title" yaml:"title"`
	PageStart      int         `json:"pageStart" yaml:"pageStart"`
	ContentPreview string      `json:"contentPreview,omitempty" yaml:"contentPreview,omitempty"`
	Classes        []ClassNode `json:"classes" yaml:"classes"`
}

// UnitNode is a top-level entry of the hierarchy. Synthetic units have no
// backing Element: they are created for modules that appear before any
// unit, or as the single fallback unit.
type UnitNode struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	PageStart      int          `json:"pageStart" yaml:"pageStart"`
	ContentPreview string       `json:"contentPreview,omitempty" yaml:"contentPreview,omitempty"`
	Synthetic      bool         `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Modules        []ModuleNode `json:"modules" yaml:"modules"`
	Classes        []ClassNode  `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// Hierarchy is the Unit → Module → Class tree.
type Hierarchy struct {
	Units    []UnitNode `json:"units" yaml:"units"`
	Orphaned []Element  `json:"orphanedElements" yaml:"orphanedElements"`
}

// Metadata summarises an analysis run.
type Metadata struct {
	TotalElements  int    `json:"totalElements" yaml:"totalElements"`
	UnitsFound     int    `json:"unitsFound" yaml:"unitsFound"`
	ModulesFound   int    `json:"modulesFound" yaml:"modulesFound"`
	ClassesFound   int    `json:"classesFound" yaml:"classesFound"`
	TotalPages     int    `json:"totalPages" yaml:"totalPages"`
	ImplicitUnits  int    `json:"implicitUnits,omitempty" yaml:"implicitUnits,omitempty"`
	FallbackUsed   bool   `json:"fallbackUsed,omitempty" yaml:"fallbackUsed,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty" yaml:"fallbackReason,omitempty"`
}

// Result is the full output of one analysis.
type Result struct {
	Elements  []Element `json:"elements" yaml:"elements"`
	Hierarchy Hierarchy `json:"hierarchy" yaml:"hierarchy"`
	Metadata  Metadata  `json:"analysisMetadata" yaml:"analysisMetadata"`
}

// Degraded reports whether the result is best-effort rather than a full analysis.
func (r Result) Degraded() bool {
	return r.Metadata.FallbackUsed || r.Metadata.ImplicitUnits > 0
}
