package uri

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// Action is a user intent on a management node
type Action int

const (
	ActionView Action = iota
	ActionAdd
	ActionEdit
	ActionDelete
	ActionRefresh
	ActionReconfigure
	ActionResetSignature
	ActionShutdown
)

var actionNames = map[Action]string{
	ActionView:           "view",
	ActionAdd:            "add",
	ActionEdit:           "edit",
	ActionDelete:         "delete",
	ActionRefresh:        "refresh",
	ActionReconfigure:    "reconfigure",
	ActionResetSignature: "signature",
	ActionShutdown:       "shutdown",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction returns the action named name
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return ActionView, false
}

// ErrIncompleteNode is returned when a node lacks the identifiers an action needs
var ErrIncompleteNode = errors.New("incomplete node")

// Path composes objectType[/objectValue][/subsystem/<nqn>][/subPath[/subValue]]
func Path(node models.ManagementNode) string {
	parts := []string{node.ObjectType}
	if node.ObjectValue != "" {
		parts = append(parts, node.ObjectValue)
	}
	if node.Subsystem != "" {
		parts = append(parts, constants.SegSubsystem, node.Subsystem)
	}
	if sub := strings.Trim(node.SubPath, "/"); sub != "" {
		parts = append(parts, sub)
		if node.SubValue != "" {
			parts = append(parts, node.SubValue)
		}
	}
	return strings.Join(parts, "/")
}

// BuildURI returns the resource path and HTTP verb for applying action to node
func BuildURI(node models.ManagementNode, action Action) (string, string, error) {
	switch action {
	case ActionShutdown:
		return constants.TypeDem + "/" + constants.MethodShutdown, http.MethodPost, nil
	case ActionResetSignature:
		return constants.TypeDem + "/" + constants.MethodSignature, http.MethodPost, nil
	}

	if node.ObjectType == "" {
		return "", "", fmt.Errorf("%w: missing object type", ErrIncompleteNode)
	}

	switch action {
	case ActionView:
		return Path(node), http.MethodGet, nil

	case ActionAdd:
		if node.SubPath != "" && node.ObjectValue == "" {
			return "", "", fmt.Errorf("%w: %s needs a parent %s", ErrIncompleteNode, node.SubPath, node.ObjectType)
		}
		parent := node
		parent.SubValue = ""
		if parent.SubPath == "" {
			// top level objects are created on the collection
			parent.ObjectValue = ""
		}
		return Path(parent), http.MethodPut, nil

	case ActionEdit, ActionDelete:
		if node.ObjectValue == "" {
			return "", "", fmt.Errorf("%w: %s %s needs an object", ErrIncompleteNode, action, node.ObjectType)
		}
		if node.SubPath != "" && node.SubValue == "" {
			return "", "", fmt.Errorf("%w: %s %s needs an identifier", ErrIncompleteNode, action, node.SubPath)
		}
		if action == ActionDelete {
			return Path(node), http.MethodDelete, nil
		}
		return Path(node), http.MethodPut, nil

	case ActionRefresh, ActionReconfigure:
		if node.ObjectType != constants.TypeTarget || node.ObjectValue == "" {
			return "", "", fmt.Errorf("%w: %s applies to a target", ErrIncompleteNode, action)
		}
		method := constants.MethodRefresh
		if action == ActionReconfigure {
			method = constants.MethodReconfig
		}
		return Path(node.Self()) + "/" + method, http.MethodPost, nil
	}

	return "", "", fmt.Errorf("unsupported action %d", action)
}

// Request is a write ready to be sent to the DEM
type Request struct {
	Action  Action
	Node    models.ManagementNode
	URI     string
	Verb    string
	HasBody bool
}

// NewRequest builds the request for action on node
func NewRequest(node models.ManagementNode, action Action) (Request, error) {
	path, verb, err := BuildURI(node, action)
	if err != nil {
		return Request{}, err
	}
	hasBody := action == ActionAdd || action == ActionEdit || action == ActionResetSignature
	return Request{Action: action, Node: node, URI: path, Verb: verb, HasBody: hasBody}, nil
}

// String formats the request the way dry-run output shows it
func (r Request) String() string {
	return r.Verb + " " + r.URI
}

// Describe names the resource a node addresses, e.g.
// "Target 't1' Subsystem 'nqn' NS ID 5"
func Describe(node models.ManagementNode) string {
	if node.ObjectType == constants.TypeDem {
		return "DEM"
	}
	if node.ObjectValue == "" {
		return utils.Capitalize(node.ObjectType) + " list"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s '%s'", utils.Capitalize(node.ObjectType), node.ObjectValue)
	if node.Subsystem != "" {
		fmt.Fprintf(&b, " Subsystem '%s'", node.Subsystem)
	}

	switch node.Kind {
	case models.KindPortID:
		b.WriteString(" Port ID " + node.SubValue)
	case models.KindTransport:
		b.WriteString(" Transport " + node.SubValue)
	case models.KindInterface:
		b.WriteString(" Interface " + node.SubValue)
	case models.KindSubsystem:
		fmt.Fprintf(&b, " Subsystem '%s'", node.SubValue)
	case models.KindNamespace:
		b.WriteString(" NS ID " + node.SubValue)
	case models.KindAllowedHost:
		fmt.Fprintf(&b, " Host '%s' from the Allowed Hosts list", node.SubValue)
	default:
		if node.IsGroupMember() {
			fmt.Fprintf(&b, " %s '%s'", utils.Capitalize(strings.Trim(node.SubPath, "/")), node.SubValue)
		}
	}
	return b.String()
}

// Confirmation is the question asked before a delete is sent
func Confirmation(node models.ManagementNode) string {
	return "Are you sure you want to delete " + Describe(node)
}
