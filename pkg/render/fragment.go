package render

import (
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
)

// BlockKind classifies a rendered block
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockField
	BlockCollection
	BlockAbout
)

// Affordance labels
const (
	LabelView   = "view"
	LabelEdit   = "edit"
	LabelDelete = "delete"
	LabelAdd    = "add"
	LabelBack   = "back"
)

// Affordance is an action offered next to a piece of rendered output.
// Navigation affordances (view, back) carry a Location; the others carry the
// node the action applies to and the values an edit form starts from.
type Affordance struct {
	Label    string
	Action   uri.Action
	Node     models.ManagementNode
	Location uri.Location
	Prefill  map[string]string
}

// IsNavigation reports whether following the affordance changes the view
// instead of opening a dialog
func (a Affordance) IsNavigation() bool {
	return a.Label == LabelView || a.Label == LabelBack
}

// Ref is a printable reference to the affordance target
func (a Affordance) Ref() string {
	if a.IsNavigation() {
		return a.Location.Ref()
	}
	path, _, err := uri.BuildURI(a.Node, a.Action)
	if err != nil {
		return uri.Path(a.Node)
	}
	return path
}

// Entry is one row of a collection
type Entry struct {
	Text     string
	Actions  []Affordance
	Sections []Block
}

// Block is a top-level piece of a fragment
type Block struct {
	Kind    BlockKind
	Key     string
	Title   string
	Actions []Affordance
	Entries []Entry
	// Columns is the layout width for name lists
	Columns int
	// Filter marks a target list that offers the list filter menu
	Filter bool
}

// Fragment is the rendered view of one DEM response
type Fragment struct {
	Location uri.Location
	Node     models.ManagementNode
	Blocks   []Block
	// Raw holds a response that is not a JSON object, such as a log page
	Raw string
}

// Affordances returns every affordance of the fragment in display order
func (f Fragment) Affordances() []Affordance {
	var out []Affordance
	for _, b := range f.Blocks {
		out = append(out, blockAffordances(b)...)
	}
	return out
}

func blockAffordances(b Block) []Affordance {
	out := append([]Affordance(nil), b.Actions...)
	for _, e := range b.Entries {
		out = append(out, e.Actions...)
		for _, s := range e.Sections {
			out = append(out, blockAffordances(s)...)
		}
	}
	return out
}

// Find returns the affordance offering action on the resource at path
func (f Fragment) Find(action uri.Action, path string) (Affordance, bool) {
	for _, a := range f.Affordances() {
		if a.IsNavigation() || a.Action != action {
			continue
		}
		if uri.Path(a.Node) == path {
			return a, true
		}
	}
	return Affordance{}, false
}

// Block returns the block rendered for key
func (f Fragment) Block(key string) (Block, bool) {
	for _, b := range f.Blocks {
		if b.Key == key {
			return b, true
		}
	}
	return Block{}, false
}
