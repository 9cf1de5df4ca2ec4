package tui

import (
	"strings"

	"github.com/braunma/dem-console/pkg/render"
)

// row is one line of the browser. Rows with actions can be selected.
type row struct {
	text    string
	depth   int
	heading bool
	actions []render.Affordance
}

func (r row) selectable() bool {
	return len(r.actions) > 0
}

// action returns the affordance of the row carrying label
func (r row) action(label string) (render.Affordance, bool) {
	for _, a := range r.actions {
		if a.Label == label {
			return a, true
		}
	}
	return render.Affordance{}, false
}

// rowsOf flattens a fragment into browser lines
func rowsOf(f render.Fragment) []row {
	if f.Blocks == nil {
		var rows []row
		for _, line := range strings.Split(strings.TrimRight(f.Raw, "\n"), "\n") {
			rows = append(rows, row{text: line})
		}
		return rows
	}

	var rows []row
	for _, b := range f.Blocks {
		rows = appendBlock(rows, b, 0)
	}
	return rows
}

func appendBlock(rows []row, b render.Block, depth int) []row {
	switch b.Kind {
	case render.BlockTitle:
		return append(rows, row{text: b.Title, depth: depth, heading: true, actions: b.Actions})
	case render.BlockField:
		return append(rows, row{text: b.Title, depth: depth})
	}

	rows = append(rows, row{text: b.Title, depth: depth, heading: true, actions: b.Actions})
	for _, e := range b.Entries {
		rows = append(rows, row{text: e.Text, depth: depth + 1, actions: e.Actions})
		for _, s := range e.Sections {
			rows = appendBlock(rows, s, depth+2)
		}
	}
	return rows
}

// labels lists the action labels of a row for display
func labels(actions []render.Affordance) string {
	var parts []string
	for _, a := range actions {
		if a.Label == render.LabelBack {
			continue
		}
		parts = append(parts, a.Label)
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " | ") + "]"
}
