package client

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

// Lookup fetches the object a detail node addresses. A missing object is
// returned as nil without error.
func (c *DemClient) Lookup(ctx context.Context, node models.ManagementNode) (Object, error) {
	obj, err := c.Get(ctx, uri.Path(node))
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", uri.Describe(node), err)
	}
	return obj, nil
}

// Apply creates or updates the object at node (idempotent)
func (c *DemClient) Apply(ctx context.Context, node models.ManagementNode, desired map[string]interface{}) (Object, error) {
	c.logger.Debug("  → Applying %s", uri.Describe(node))

	existing, err := c.Lookup(ctx, node)
	if err != nil {
		return nil, err
	}
	return c.ApplyTo(ctx, node, existing, desired)
}

// ApplyTo creates the object at node when existing is nil, otherwise sends
// desired when it differs from existing. Callers holding the parent object
// use it to apply children without fetching each of them.
func (c *DemClient) ApplyTo(ctx context.Context, node models.ManagementNode, existing Object, desired map[string]interface{}) (Object, error) {
	if existing == nil {
		c.logger.Success("  ✓ Creating %s", uri.Describe(node))
		c.printDiff("CREATE", nil, desired)
		if err := c.send(ctx, node, uri.ActionAdd, desired); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", uri.Describe(node), err)
		}
		return Object(desired), nil
	}

	changes := c.calculateDiff(existing, desired)
	if len(changes) == 0 {
		c.logger.Debug("  = No changes for %s", uri.Describe(node))
		return existing, nil
	}

	c.logger.Info("  ⟳ Updating %s", uri.Describe(node))
	c.printDiff("UPDATE", existing, changes)
	if err := c.send(ctx, node, uri.ActionEdit, desired); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", uri.Describe(node), err)
	}
	c.logger.Success("  ✓ Update complete")
	return Object(desired), nil
}

func (c *DemClient) send(ctx context.Context, node models.ManagementNode, action uri.Action, payload map[string]interface{}) error {
	req, err := uri.NewRequest(node.WithFields(payload), action)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// printDiff prints a visual diff for console visibility
func (c *DemClient) printDiff(action string, existing Object, changes map[string]interface{}) {
	if c.dryRun {
		return
	}

	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	c.logger.Debug("    ┌─ Changes ────────────────────")
	for _, key := range keys {
		if action == "CREATE" {
			c.logger.Success("    │ + %s: %v", key, c.formatValue(changes[key]))
			continue
		}
		c.logger.Warning("    │ ~ %s:", key)
		c.logger.Warning("    │   - %v", c.formatValue(existing[key]))
		c.logger.Success("    │   + %v", c.formatValue(changes[key]))
	}
	c.logger.Debug("    └──────────────────────────────")
}

// formatValue formats a value for display
func (c *DemClient) formatValue(val interface{}) string {
	if val == nil {
		return "<nil>"
	}

	switch v := val.(type) {
	case string:
		return fmt.Sprintf("\"%s\"", v)
	case []interface{}:
		if len(v) == 0 {
			return "[]"
		}
		return fmt.Sprintf("[...%d items]", len(v))
	case map[string]interface{}:
		if len(v) == 0 {
			return "{}"
		}
		return fmt.Sprintf("{...%d fields}", len(v))
	default:
		return utils.StringValue(v)
	}
}

// calculateDiff compares an existing object with the desired state. Only the
// desired keys are compared; the DEM reports more than a form sends.
func (c *DemClient) calculateDiff(existing Object, desired map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{})

	for key, desiredValue := range desired {
		if desiredValue == nil {
			continue
		}

		existingValue, exists := existing[key]
		if !exists || !valuesEqual(existingValue, desiredValue) {
			changes[key] = desiredValue
		}
	}

	return changes
}

// valuesEqual compares a decoded JSON value with a payload value. Numbers
// compare by value whatever their Go type; maps compare key by key.
func valuesEqual(a, b interface{}) bool {
	if an, ok := number(a); ok {
		bn, ok := number(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !valuesEqual(v, bv[k]) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
