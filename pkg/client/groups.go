package client

import (
	"context"
	"fmt"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

// GroupManager handles groups and their member links
type GroupManager struct {
	client *DemClient
}

// NewGroupManager creates a new group manager
func NewGroupManager(client *DemClient) *GroupManager {
	return &GroupManager{client: client}
}

// Ensure ensures a group exists, creating it if necessary
func (gm *GroupManager) Ensure(ctx context.Context, name string) (*models.Group, error) {
	node := models.NewDetailNode(constants.TypeGroup, name)

	obj, err := gm.client.Lookup(ctx, node)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		return models.DecodeGroup(obj)
	}

	if _, err := gm.client.ApplyTo(ctx, node, nil, map[string]interface{}{constants.TagName: name}); err != nil {
		// Another console may have created it in the meantime
		gm.client.logger.Warning("Group creation failed, retrying lookup: %v", err)
		obj, lookupErr := gm.client.Lookup(ctx, node)
		if lookupErr != nil || obj == nil {
			return nil, fmt.Errorf("failed to create group %s: %w", name, err)
		}
		return models.DecodeGroup(obj)
	}

	gm.client.logger.Success("Created group: %s", name)
	return &models.Group{Name: name}, nil
}

// Link adds a target or host to a group
func (gm *GroupManager) Link(ctx context.Context, group, memberType, alias string) error {
	node := models.NewDetailNode(constants.TypeGroup, group).Child(memberType, "")
	req, err := uri.NewRequest(node.WithFields(map[string]interface{}{constants.TagAlias: alias}), uri.ActionAdd)
	if err != nil {
		return err
	}
	if _, err := gm.client.Do(ctx, req); err != nil {
		return fmt.Errorf("failed to link %s %s to group %s: %w", memberType, alias, group, err)
	}
	return nil
}

// Unlink removes a target or host from a group
func (gm *GroupManager) Unlink(ctx context.Context, group, memberType, alias string) error {
	node := models.NewDetailNode(constants.TypeGroup, group).Child(memberType, alias)
	req, err := uri.NewRequest(node, uri.ActionDelete)
	if err != nil {
		return err
	}
	if _, err := gm.client.Do(ctx, req); err != nil {
		return fmt.Errorf("failed to unlink %s %s from group %s: %w", memberType, alias, group, err)
	}
	return nil
}

// Sync links the missing members of one type and unlinks the ones not
// wanted. It returns how many links were added and removed.
func (gm *GroupManager) Sync(ctx context.Context, group *models.Group, memberType string, wanted []string) (int, int, error) {
	current := group.Hosts
	if memberType == constants.TypeTarget {
		current = group.Targets
	}

	added, removed := 0, 0
	for _, alias := range wanted {
		if utils.Contains(current, alias) {
			continue
		}
		if err := gm.Link(ctx, group.Name, memberType, alias); err != nil {
			return added, removed, err
		}
		added++
	}
	for _, alias := range current {
		if utils.Contains(wanted, alias) {
			continue
		}
		if err := gm.Unlink(ctx, group.Name, memberType, alias); err != nil {
			return added, removed, err
		}
		removed++
	}
	return added, removed, nil
}

// IsMember reports whether alias is linked to the group
func (gm *GroupManager) IsMember(group *models.Group, memberType, alias string) bool {
	if memberType == constants.TypeTarget {
		return utils.Contains(group.Targets, alias)
	}
	return utils.Contains(group.Hosts, alias)
}
