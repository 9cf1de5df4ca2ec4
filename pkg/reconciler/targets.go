package reconciler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// TargetReconciler handles target definitions: the target itself, its fabric
// ports and its subsystems with their namespaces and allowed hosts
type TargetReconciler struct {
	client *client.DemClient
	logger *utils.Logger
}

// NewTargetReconciler creates a new target reconciler
func NewTargetReconciler(c *client.DemClient) *TargetReconciler {
	return &TargetReconciler{
		client: c,
		logger: c.Logger(),
	}
}

// ReconcileTargets reconciles target definitions
func (tr *TargetReconciler) ReconcileTargets(ctx context.Context, targets []*models.Target) error {
	tr.logger.Info("Reconciling %d targets...", len(targets))

	for i, target := range targets {
		tr.logger.Debug("──── Target %d/%d: %s ────", i+1, len(targets), target.Alias)
		if err := tr.reconcileTarget(ctx, target); err != nil {
			return fmt.Errorf("failed to reconcile target %s: %w", target.Alias, err)
		}
	}

	return nil
}

func (tr *TargetReconciler) reconcileTarget(ctx context.Context, target *models.Target) error {
	node := models.NewDetailNode(constants.TypeTarget, target.Alias)

	obj, err := tr.client.Apply(ctx, node, targetPayload(target))
	if err != nil {
		return err
	}

	tr.logger.Debug("  Reconciling ports for %s...", target.Alias)
	if err := tr.reconcilePorts(ctx, node, obj, target.PortIDs); err != nil {
		return fmt.Errorf("failed to reconcile ports: %w", err)
	}

	tr.logger.Debug("  Reconciling subsystems for %s...", target.Alias)
	if err := tr.reconcileSubsystems(ctx, node, obj, target.Subsystems); err != nil {
		return fmt.Errorf("failed to reconcile subsystems: %w", err)
	}

	return nil
}

// reconcilePorts applies each port against the one with the same id
func (tr *TargetReconciler) reconcilePorts(ctx context.Context, node models.ManagementNode, obj client.Object, ports []models.PortID) error {
	existing := children(obj, constants.TagPortIDs)

	for _, port := range ports {
		id := strconv.Itoa(port.PortID)
		_, current := findChild(existing, constants.TagPortID, id)

		child := node.Child(constants.SegPortID, "")
		if current != nil {
			child = node.Child(constants.SegPortID, id)
		}
		if _, err := tr.client.ApplyTo(ctx, child, current, portPayload(port)); err != nil {
			return err
		}
	}

	return nil
}

func (tr *TargetReconciler) reconcileSubsystems(ctx context.Context, node models.ManagementNode, obj client.Object, subsystems []models.Subsystem) error {
	existing := children(obj, constants.TagSubsystems)

	for _, ss := range subsystems {
		tr.logger.Debug("    Subsystem: %s", ss.SubNQN)
		_, current := findChild(existing, constants.TagSubNQN, ss.SubNQN)

		child := node.Child(constants.SegSubsystem, "")
		if current != nil {
			child = node.Child(constants.SegSubsystem, ss.SubNQN)
		}
		if _, err := tr.client.ApplyTo(ctx, child, current, subsystemPayload(ss)); err != nil {
			return err
		}

		if err := tr.reconcileNamespaces(ctx, node, ss, current); err != nil {
			return fmt.Errorf("subsystem %s: %w", ss.SubNQN, err)
		}
		if err := tr.reconcileAllowedHosts(ctx, node, ss, current); err != nil {
			return fmt.Errorf("subsystem %s: %w", ss.SubNQN, err)
		}
	}

	return nil
}

// reconcileNamespaces applies each namespace against the one with the same
// NSID. current is the subsystem as the DEM reported it, nil when new.
func (tr *TargetReconciler) reconcileNamespaces(ctx context.Context, node models.ManagementNode, ss models.Subsystem, current map[string]interface{}) error {
	existing := children(current, constants.TagNSIDs)

	for _, ns := range ss.Namespaces {
		id := strconv.Itoa(ns.NSID)
		_, found := findChild(existing, constants.TagNSID, id)

		child := node.SubsystemChild(ss.SubNQN, constants.SegNamespace, "")
		if found != nil {
			child = node.SubsystemChild(ss.SubNQN, constants.SegNamespace, id)
		}
		if _, err := tr.client.ApplyTo(ctx, child, found, namespacePayload(ns)); err != nil {
			return err
		}
	}

	return nil
}

// reconcileAllowedHosts links the defined hosts that are not yet allowed.
// A subsystem open to any host has no list to maintain.
func (tr *TargetReconciler) reconcileAllowedHosts(ctx context.Context, node models.ManagementNode, ss models.Subsystem, current map[string]interface{}) error {
	if ss.AllowAnyHost {
		return nil
	}

	allowed := names(current, constants.TagHosts)
	for _, alias := range ss.Hosts {
		if utils.Contains(allowed, alias) {
			continue
		}
		child := node.SubsystemChild(ss.SubNQN, constants.SegHost, "")
		if _, err := tr.client.ApplyTo(ctx, child, nil, map[string]interface{}{constants.TagAlias: alias}); err != nil {
			return fmt.Errorf("failed to allow host %s: %w", alias, err)
		}
	}

	return nil
}
