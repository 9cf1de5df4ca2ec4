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

// HostReconciler handles host definitions and their fabric interfaces
type HostReconciler struct {
	client *client.DemClient
	logger *utils.Logger
}

// NewHostReconciler creates a new host reconciler
func NewHostReconciler(c *client.DemClient) *HostReconciler {
	return &HostReconciler{
		client: c,
		logger: c.Logger(),
	}
}

// ReconcileHosts reconciles host definitions
func (hr *HostReconciler) ReconcileHosts(ctx context.Context, hosts []*models.Host) error {
	hr.logger.Info("Reconciling %d hosts...", len(hosts))

	for _, host := range hosts {
		node := models.NewDetailNode(constants.TypeHost, host.Alias)
		payload := map[string]interface{}{
			constants.TagAlias:   host.Alias,
			constants.TagHostNQN: host.HostNQN,
		}

		obj, err := hr.client.Apply(ctx, node, payload)
		if err != nil {
			return fmt.Errorf("failed to reconcile host %s: %w", host.Alias, err)
		}

		if err := hr.reconcileInterfaces(ctx, node, obj, host.Interfaces); err != nil {
			return fmt.Errorf("failed to reconcile interfaces of host %s: %w", host.Alias, err)
		}
	}

	return nil
}

// reconcileInterfaces adds missing fabric interfaces and updates the service
// id of known ones. Interfaces are addressed by their position in the host
// object; the ones not defined are left alone.
func (hr *HostReconciler) reconcileInterfaces(ctx context.Context, node models.ManagementNode, obj client.Object, wanted []models.Transport) error {
	existing := children(obj, constants.TagInterfaces)

	for i, tr := range wanted {
		hr.logger.Debug("    Interface %d/%d: %s %s", i+1, len(wanted), tr.TrType, tr.TrAddr)

		index, current := findTransport(existing, tr)
		child := node.Child(constants.SegInterface, "")
		if index >= 0 {
			child = node.Child(constants.SegInterface, strconv.Itoa(index))
		}
		if _, err := hr.client.ApplyTo(ctx, child, current, transportPayload(tr)); err != nil {
			return err
		}
	}

	return nil
}
