package reconciler

import (
	"context"

	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/loader"
)

const rule = "═══════════════════════════════════════════════════════"

// Run reconciles a full set of definitions in dependency order: hosts first
// so subsystems can allow them, then targets, then the groups linking both.
func Run(ctx context.Context, c *client.DemClient, defs *loader.Definitions) error {
	logger := c.Logger()

	logger.Info(rule)
	logger.Info("Phase 1: Hosts")
	logger.Info(rule)
	if err := NewHostReconciler(c).ReconcileHosts(ctx, defs.Hosts); err != nil {
		return err
	}

	logger.Info(rule)
	logger.Info("Phase 2: Targets")
	logger.Info(rule)
	if err := NewTargetReconciler(c).ReconcileTargets(ctx, defs.Targets); err != nil {
		return err
	}

	logger.Info(rule)
	logger.Info("Phase 3: Groups")
	logger.Info(rule)
	if err := NewGroupReconciler(c).ReconcileGroups(ctx, defs.Groups); err != nil {
		return err
	}

	logger.Info(rule)
	if c.IsDryRun() {
		logger.Warning("DRY RUN COMPLETE: No changes applied")
	} else {
		logger.Success("SYNC COMPLETE: Changes applied successfully")
	}
	logger.Info(rule)

	c.Cache().InvalidateAll()
	return nil
}
