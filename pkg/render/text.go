package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/utils"
)

const indent = "  "

// WriteText prints a fragment for the terminal. Every affordance is shown with
// the resource it acts on so it can be passed back to the CLI.
func WriteText(w io.Writer, f Fragment) error {
	if f.Blocks == nil {
		_, err := fmt.Fprintln(w, f.Raw)
		return err
	}

	var b strings.Builder
	for _, block := range f.Blocks {
		writeBlock(&b, f, block, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeBlock(b *strings.Builder, f Fragment, block Block, depth int) {
	pad := strings.Repeat(indent, depth)

	switch block.Kind {
	case BlockTitle:
		fmt.Fprintf(b, "%s%s%s\n", pad, utils.Paint(utils.RoleHeading, block.Title), actionText(block.Actions))
		return
	case BlockField:
		fmt.Fprintf(b, "%s%s\n", pad, utils.Paint(utils.RoleValue, block.Title))
		return
	}

	fmt.Fprintf(b, "\n%s%s%s\n", pad, utils.Paint(utils.RoleHeading, block.Title), actionText(block.Actions))
	if block.Filter {
		fmt.Fprintf(b, "%s%s\n", pad+indent, utils.Paint(utils.RoleMuted, filterText(f)))
	}

	if block.Columns > 1 && namesOnly(block.Entries) {
		writeColumns(b, block, pad+indent)
		return
	}

	for _, e := range block.Entries {
		fmt.Fprintf(b, "%s%s%s\n", pad+indent, utils.Paint(utils.RoleValue, e.Text), actionText(e.Actions))
		for _, section := range e.Sections {
			writeBlock(b, f, section, depth+2)
		}
	}
}

func actionText(actions []Affordance) string {
	if len(actions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Label == LabelBack {
			continue
		}
		parts = append(parts, a.Label+" "+a.Ref())
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + utils.Paint(utils.RoleAction, "["+strings.Join(parts, " | ")+"]")
}

func filterText(f Fragment) string {
	current := f.Location.FilterName()
	var names []string
	for _, name := range constants.FilterOrder {
		label := name
		if label == "" {
			label = "none"
		}
		if name == current {
			label = "*" + label
		}
		names = append(names, label)
	}
	return "filters: " + strings.Join(names, " ") + " (" + constants.FilterLabels[current] + ")"
}

func namesOnly(entries []Entry) bool {
	for _, e := range entries {
		if len(e.Sections) > 0 {
			return false
		}
	}
	return true
}

// writeColumns lays names out row by row across the block's columns
func writeColumns(b *strings.Builder, block Block, pad string) {
	width := 0
	for _, e := range block.Entries {
		if len(e.Text) > width {
			width = len(e.Text)
		}
	}

	for i, e := range block.Entries {
		if i%block.Columns == 0 {
			b.WriteString(pad)
		}
		cell := e.Text
		if i%block.Columns != block.Columns-1 && i != len(block.Entries)-1 {
			cell += strings.Repeat(" ", width-len(e.Text)+2)
		}
		b.WriteString(utils.Paint(utils.RoleValue, cell))
		if i%block.Columns == block.Columns-1 || i == len(block.Entries)-1 {
			b.WriteString("\n")
		}
	}
}
