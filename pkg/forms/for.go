package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
)

// ErrNotDialog is returned for affordances that navigate instead of opening
// a dialog
var ErrNotDialog = errors.New("affordance does not open a dialog")

// NeedsOptions reports whether the dialog of aff picks from existing objects
// and returns their object type. Callers fetch the list before calling For.
func NeedsOptions(aff render.Affordance) (string, bool) {
	if aff.Action != uri.ActionAdd {
		return "", false
	}
	node := aff.Node
	switch {
	case node.IsGroupMember():
		return strings.Trim(node.SubPath, "/"), true
	case node.Kind == models.KindAllowedHost:
		return constants.TypeHost, true
	}
	return "", false
}

// For opens the dialog behind an affordance. options feeds pick-list dialogs
// and is ignored by the others.
func For(aff render.Affordance, options []string) (*Dialog, error) {
	if aff.IsNavigation() {
		return nil, ErrNotDialog
	}

	node := aff.Node
	switch aff.Action {
	case uri.ActionDelete, uri.ActionShutdown, uri.ActionRefresh, uri.ActionReconfigure:
		return Confirm(node, aff.Action), nil
	case uri.ActionAdd, uri.ActionEdit:
	default:
		return nil, fmt.Errorf("no dialog for %s %s", aff.Action, uri.Path(node))
	}

	if _, ok := NeedsOptions(aff); ok {
		if node.Kind == models.KindAllowedHost {
			return AllowedHost(node, options), nil
		}
		return Member(node, options), nil
	}

	switch node.Kind {
	case models.KindTarget:
		return Target(node, aff.Action, aff.Prefill), nil
	case models.KindHost:
		return Host(node, aff.Action, aff.Prefill), nil
	case models.KindGroup:
		return Group(node, aff.Action, aff.Prefill), nil
	case models.KindSubsystem:
		return Subsystem(node, aff.Action, aff.Prefill), nil
	case models.KindNamespace:
		return Namespace(node, aff.Action, aff.Prefill), nil
	case models.KindPortID:
		return PortID(node, aff.Action, aff.Prefill), nil
	case models.KindTransport, models.KindInterface:
		if node.ObjectType == constants.TypeHost {
			return Transport(node, aff.Action, aff.Prefill), nil
		}
	}
	return nil, fmt.Errorf("no %s dialog for %s", aff.Action, node.Kind)
}
