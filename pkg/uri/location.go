package uri

import (
	"fmt"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// Location is the navigable address of a view: #<type>[/<value>[/<sub>]][?filter]
type Location struct {
	Type  string
	Value string
	// Sub is a read-only method view of an object, such as usage or logpage.
	Sub    string
	Filter string
}

var viewSubs = []string{constants.MethodUsage, constants.MethodLogPage}

// Dem is the landing location
var Dem = Location{Type: constants.TypeDem}

// ParseLocation parses a location with or without its leading '#'
func ParseLocation(s string) (Location, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Dem, nil
	}

	var loc Location
	if i := strings.Index(s, "?"); i >= 0 {
		loc.Filter = s[i+1:]
		s = s[:i]
	}

	parts := strings.SplitN(strings.TrimSuffix(s, "/"), "/", 3)
	loc.Type = parts[0]
	switch loc.Type {
	case constants.TypeTarget, constants.TypeHost, constants.TypeGroup:
	case constants.TypeDem:
		if len(parts) > 1 {
			return Location{}, fmt.Errorf("invalid location %q: dem has no children", s)
		}
		return Dem, nil
	default:
		return Location{}, fmt.Errorf("invalid location %q: unknown object type %q", s, loc.Type)
	}

	if len(parts) > 1 {
		loc.Value = parts[1]
	}
	if len(parts) > 2 {
		loc.Sub = parts[2]
		if !utils.Contains(viewSubs, loc.Sub) {
			return Location{}, fmt.Errorf("invalid location %q: unknown view %q", s, loc.Sub)
		}
	}
	if loc.Filter != "" && (loc.Type != constants.TypeTarget || loc.Value != "") {
		return Location{}, fmt.Errorf("invalid location %q: filters apply to the target list", s)
	}
	return loc, nil
}

// WithFilter returns the list location narrowed by one of the named list
// filters (rdma, tcp, fc, oob, inband, local). An empty name clears it.
func (l Location) WithFilter(name string) (Location, error) {
	if name == "" {
		l.Filter = ""
		return l, nil
	}
	query, ok := constants.ListFilters[name]
	if !ok {
		return l, fmt.Errorf("unknown filter %q", name)
	}
	l.Filter = strings.TrimPrefix(query, "?")
	return l, nil
}

// FilterName returns the named filter matching the location, or ""
func (l Location) FilterName() string {
	for name, query := range constants.ListFilters {
		if strings.TrimPrefix(query, "?") == l.Filter {
			return name
		}
	}
	return ""
}

// IsList reports whether the location shows a collection
func (l Location) IsList() bool {
	return l.Type != constants.TypeDem && l.Value == ""
}

// String formats the location as a URL fragment
func (l Location) String() string {
	return "#" + l.Ref()
}

// Ref formats the location without the leading '#'
func (l Location) Ref() string {
	s := l.Type
	if l.Value != "" {
		s += "/" + l.Value
		if l.Sub != "" {
			s += "/" + l.Sub
		}
	}
	if l.Filter != "" {
		s += "?" + l.Filter
	}
	return s
}

// Path is the REST resource fetched to show the location
func (l Location) Path() string {
	switch {
	case l.Type == constants.TypeDem:
		return constants.TypeDem
	case l.Value == "":
		if l.Filter != "" {
			return l.Type + "?" + l.Filter
		}
		return l.Type
	case l.Sub != "":
		return l.Type + "/" + l.Value + "/" + l.Sub
	}
	return l.Type + "/" + l.Value
}

// Node returns the management node viewed at the location
func (l Location) Node() models.ManagementNode {
	if l.Type == constants.TypeDem {
		return models.ManagementNode{Kind: models.KindDem, ObjectType: constants.TypeDem}
	}
	if l.Value == "" {
		return models.NewListNode(l.Type)
	}
	return models.NewDetailNode(l.Type, l.Value)
}

// Parent returns where "back" leads: a detail view goes to its list, a list
// goes to the DEM page
func (l Location) Parent() Location {
	if l.Sub != "" {
		return Location{Type: l.Type, Value: l.Value}
	}
	if l.Value != "" {
		return Location{Type: l.Type}
	}
	return Dem
}

// LocationOf returns the location viewing node's object
func LocationOf(node models.ManagementNode) Location {
	if node.ObjectType == constants.TypeDem || node.ObjectType == "" {
		return Dem
	}
	return Location{Type: node.ObjectType, Value: node.ObjectValue}
}
