package uri

import (
	"fmt"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// children lists the sub-resource segments each object type accepts
var children = map[string][]string{
	constants.TypeTarget: {constants.SegPortID, constants.SegSubsystem},
	constants.TypeHost:   {constants.SegInterface, constants.SegTransport},
	constants.TypeGroup:  {constants.SegHost, constants.SegTarget},
}

// ParseResource turns a REST resource path back into the node it addresses.
// It is the inverse of Path.
func ParseResource(path string) (models.ManagementNode, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return models.ManagementNode{}, fmt.Errorf("empty resource path")
	}

	parts := strings.Split(path, "/")
	objectType := parts[0]
	if objectType == constants.TypeDem {
		if len(parts) > 1 {
			return models.ManagementNode{}, fmt.Errorf("invalid resource %q: dem has no children", path)
		}
		return Dem.Node(), nil
	}

	allowed, ok := children[objectType]
	if !ok {
		return models.ManagementNode{}, fmt.Errorf("invalid resource %q: unknown object type %q", path, objectType)
	}
	if len(parts) == 1 {
		return models.NewListNode(objectType), nil
	}

	node := models.NewDetailNode(objectType, parts[1])
	if len(parts) == 2 {
		return node, nil
	}

	segment := parts[2]
	if !utils.Contains(allowed, segment) {
		return models.ManagementNode{}, fmt.Errorf("invalid resource %q: %s has no %q", path, objectType, segment)
	}
	rest := parts[3:]

	if objectType == constants.TypeTarget && segment == constants.SegSubsystem {
		return parseSubsystemResource(path, node, rest)
	}
	if len(rest) > 1 {
		return models.ManagementNode{}, fmt.Errorf("invalid resource %q: too many segments", path)
	}

	value := ""
	if len(rest) == 1 {
		value = rest[0]
	}
	if objectType == constants.TypeGroup {
		return node.Child(segment, value), nil
	}
	return node.Child("/"+segment, value), nil
}

func parseSubsystemResource(path string, target models.ManagementNode, rest []string) (models.ManagementNode, error) {
	switch len(rest) {
	case 0:
		return target.Child("/"+constants.SegSubsystem, ""), nil
	case 1:
		return target.Child("/"+constants.SegSubsystem, rest[0]), nil
	case 2, 3:
		segment := rest[1]
		if segment != constants.SegNamespace && segment != constants.SegHost {
			return models.ManagementNode{}, fmt.Errorf("invalid resource %q: subsystem has no %q", path, segment)
		}
		value := ""
		if len(rest) == 3 {
			value = rest[2]
		}
		return target.SubsystemChild(rest[0], "/"+segment, value), nil
	}
	return models.ManagementNode{}, fmt.Errorf("invalid resource %q: too many segments", path)
}
