package models

import (
	"strings"

	"github.com/braunma/dem-console/internal/constants"
)

// Kind identifies which management-tree resource a node addresses
type Kind int

const (
	KindDem Kind = iota
	KindTarget
	KindHost
	KindGroup
	KindSubsystem
	KindPortID
	KindTransport
	KindNamespace
	KindAllowedHost
	KindInterface
)

var kindNames = map[Kind]string{
	KindDem:         "Dem",
	KindTarget:      "Target",
	KindHost:        "Host",
	KindGroup:       "Group",
	KindSubsystem:   "Subsystem",
	KindPortID:      "PortID",
	KindTransport:   "Transport",
	KindNamespace:   "Namespace",
	KindAllowedHost: "AllowedHost",
	KindInterface:   "Interface",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KindForType returns the kind of a top-level object type
func KindForType(objectType string) Kind {
	switch objectType {
	case constants.TypeTarget:
		return KindTarget
	case constants.TypeHost:
		return KindHost
	case constants.TypeGroup:
		return KindGroup
	default:
		return KindDem
	}
}

// KindForSegment returns the kind addressed by a child segment such as
// "/portid". parent is the object type the segment hangs off.
func KindForSegment(parent, segment string) Kind {
	switch strings.Trim(segment, "/") {
	case constants.SegSubsystem:
		return KindSubsystem
	case constants.SegPortID:
		return KindPortID
	case constants.SegTransport:
		return KindTransport
	case constants.SegInterface:
		return KindInterface
	case constants.SegNamespace:
		return KindNamespace
	case constants.SegHost:
		if parent == constants.TypeGroup {
			return KindHost
		}
		return KindAllowedHost
	case constants.SegTarget:
		return KindTarget
	}
	return KindForType(parent)
}

// ManagementNode addresses one resource of the DEM object tree. It is rebuilt
// on every navigation and never persisted.
type ManagementNode struct {
	Kind        Kind
	ObjectType  string
	ObjectValue string
	// Subsystem is the parent subsystem NQN of Namespace and AllowedHost nodes.
	Subsystem string
	SubPath   string
	SubValue  string
	Fields    map[string]interface{}
}

// NewListNode returns the collection view of an object type
func NewListNode(objectType string) ManagementNode {
	return ManagementNode{Kind: KindForType(objectType), ObjectType: objectType}
}

// NewDetailNode returns the single-instance view of an object
func NewDetailNode(objectType, objectValue string) ManagementNode {
	return ManagementNode{
		Kind:        KindForType(objectType),
		ObjectType:  objectType,
		ObjectValue: objectValue,
	}
}

// IsList reports whether the node is a collection listing
func (n ManagementNode) IsList() bool {
	return n.ObjectValue == ""
}

// IsGroupMember reports whether the node addresses a member link of a group
func (n ManagementNode) IsGroupMember() bool {
	return n.ObjectType == constants.TypeGroup && n.SubPath != ""
}

// Child returns a node for a child resource of n
func (n ManagementNode) Child(segment, value string) ManagementNode {
	return ManagementNode{
		Kind:        KindForSegment(n.ObjectType, segment),
		ObjectType:  n.ObjectType,
		ObjectValue: n.ObjectValue,
		SubPath:     segment,
		SubValue:    value,
	}
}

// SubsystemChild returns a node below a subsystem of target n
func (n ManagementNode) SubsystemChild(nqn, segment, value string) ManagementNode {
	child := n.Child(segment, value)
	child.Subsystem = nqn
	return child
}

// Self returns the node of the object being viewed, dropping child selectors
func (n ManagementNode) Self() ManagementNode {
	if n.IsList() {
		return NewListNode(n.ObjectType)
	}
	return NewDetailNode(n.ObjectType, n.ObjectValue)
}

// WithFields returns a copy of n carrying the given form values
func (n ManagementNode) WithFields(fields map[string]interface{}) ManagementNode {
	n.Fields = fields
	return n
}
