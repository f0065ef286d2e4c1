package structure

import "fmt"

// ImplicitUnitTitle names the unit synthesized for a module that appears
// before any unit.
const ImplicitUnitTitle = "Main Content"

// assembler is the hierarchy state machine. unit and module index the open
// unit and the open module inside it; -1 means none is open.
type assembler struct {
	h      Hierarchy
	unit   int
	module int
}

// BuildHierarchy folds (page, line)-ordered elements into a Hierarchy in a
// single pass. Children keep input order and each has exactly one parent.
func BuildHierarchy(elements []Element) Hierarchy {
	a := &assembler{
		h:      Hierarchy{Units: []UnitNode{}, Orphaned: []Element{}},
		unit:   -1,
		module: -1,
	}
	for _, el := range elements {
		a.step(el)
	}
	return a.h
}

func (a *assembler) step(el Element) {
	switch el.Type {
	case TypeUnit:
		a.openUnit(UnitNode{
			ID:             el.ID,
			Title:          el.Title,
			PageStart:      el.PageNumber,
			ContentPreview: el.ContentPreview,
			Modules:        []ModuleNode{},
		})

	case TypeModule:
		if a.unit < 0 {
			a.openUnit(UnitNode{
				ID:        fmt.Sprintf("implicit_unit_%d", len(a.h.Units)),
				Title:     ImplicitUnitTitle,
				PageStart: el.PageNumber,
				Synthetic: true,
				Modules:   []ModuleNode{},
			})
		}
		u := &a.h.Units[a.unit]
		u.Modules = append(u.Modules, ModuleNode{
			ID:             el.ID,
			Title:          el.Title,
			PageStart:      el.PageNumber,
			ContentPreview: el.ContentPreview,
			Classes:        []ClassNode{},
		})
		a.module = len(u.Modules) - 1

	case TypeClass:
		c := ClassNode{
			ID:             el.ID,
			Title:          el.Title,
			PageStart:      el.PageNumber,
			ContentPreview: el.ContentPreview,
		}
		switch {
		case a.module >= 0:
			m := &a.h.Units[a.unit].Modules[a.module]
			m.Classes = append(m.Classes, c)
		case a.unit >= 0:
			u := &a.h.Units[a.unit]
			u.Classes = append(u.Classes, c)
		default:
			a.h.Orphaned = append(a.h.Orphaned, el)
		}

	default:
		a.h.Orphaned = append(a.h.Orphaned, el)
	}
}

// openUnit appends u, makes it the open unit and closes any open module.
func (a *assembler) openUnit(u UnitNode) {
	a.h.Units = append(a.h.Units, u)
	a.unit = len(a.h.Units) - 1
	a.module = -1
}
