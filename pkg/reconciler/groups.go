package reconciler

import (
	"context"
	"fmt"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// GroupReconciler handles groups. Unlike targets and hosts, the membership
// lists of a defined group are authoritative: members not listed are
// unlinked.
type GroupReconciler struct {
	client *client.DemClient
	groups *client.GroupManager
	logger *utils.Logger
}

// NewGroupReconciler creates a new group reconciler
func NewGroupReconciler(c *client.DemClient) *GroupReconciler {
	return &GroupReconciler{
		client: c,
		groups: c.Groups(),
		logger: c.Logger(),
	}
}

// ReconcileGroups reconciles group definitions
func (gr *GroupReconciler) ReconcileGroups(ctx context.Context, groups []*models.Group) error {
	gr.logger.Info("Reconciling %d groups...", len(groups))

	for _, def := range groups {
		group, err := gr.groups.Ensure(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("failed to reconcile group %s: %w", def.Name, err)
		}

		for _, memberType := range []string{constants.TypeTarget, constants.TypeHost} {
			wanted := def.Hosts
			if memberType == constants.TypeTarget {
				wanted = def.Targets
			}

			added, removed, err := gr.groups.Sync(ctx, group, memberType, wanted)
			if err != nil {
				return fmt.Errorf("failed to sync %ss of group %s: %w", memberType, def.Name, err)
			}
			if added > 0 || removed > 0 {
				gr.logger.Success("  ✓ Group %s: linked %s, unlinked %d",
					def.Name, utils.Plural(added, memberType), removed)
			}
		}
	}

	return nil
}
