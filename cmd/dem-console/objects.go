package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/uri"
)

func showCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "show [location]",
		Short: "Show a DEM page, e.g. target, target/t1, host/h1/logpage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := uri.Dem
			if len(args) == 1 {
				var err error
				if loc, err = uri.ParseLocation(args[0]); err != nil {
					return err
				}
			}
			if filter != "" {
				var err error
				if loc, err = loc.WithFilter(filter); err != nil {
					return err
				}
			}
			return show(cmd.Context(), loc)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Target list filter: rdma, tcp, fc, oob, inband or local")
	return cmd
}

func show(ctx context.Context, loc uri.Location) error {
	c, err := connect()
	if err != nil {
		return err
	}
	f, err := c.Show(ctx, loc)
	if err != nil {
		return err
	}
	return render.WriteText(os.Stdout, f)
}

func addCmd() *cobra.Command {
	return dialogCmd(uri.ActionAdd, "add <resource> [field=value...]",
		"Add an object, e.g. add target alias=t1 mode=LocalMgmt, add target/t1/subsystem subnqn=...")
}

func editCmd() *cobra.Command {
	return dialogCmd(uri.ActionEdit, "edit <resource> [field=value...]",
		"Edit an object starting from its current values, e.g. edit target/t1 refresh=5")
}

// dialogCmd fills the add or edit dialog the DEM page offers for a resource
// with field=value arguments and submits it
func dialogCmd(action uri.Action, use, short string) *cobra.Command {
	var fields bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			d, err := openDialog(cmd.Context(), c, action, args[0])
			if err != nil {
				return err
			}
			if fields {
				printFields(d)
				return nil
			}

			for _, arg := range args[1:] {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid argument %q, expected field=value", arg)
				}
				if err := d.Set(key, value); err != nil {
					return err
				}
			}
			return submit(cmd, c, d)
		},
	}

	cmd.Flags().BoolVar(&fields, "fields", false, "List the dialog fields and their current values")
	return cmd
}

// openDialog finds the affordance offering action on resource on the page
// that shows it, so edits start from the values the DEM holds
func openDialog(ctx context.Context, c *client.DemClient, action uri.Action, resource string) (*forms.Dialog, error) {
	node, err := uri.ParseResource(resource)
	if err != nil {
		return nil, err
	}

	loc := uri.LocationOf(node)
	f, err := c.Show(ctx, loc)
	if err != nil {
		return nil, err
	}
	aff, ok := f.Find(action, uri.Path(node))
	if !ok {
		return nil, fmt.Errorf("%s offers no %s on %s", loc.Ref(), action, uri.Path(node))
	}

	var options []string
	if objectType, ok := forms.NeedsOptions(aff); ok {
		if options, err = c.Options(ctx, objectType); err != nil {
			return nil, err
		}
	}
	return forms.For(aff, options)
}

func printFields(d *forms.Dialog) {
	fmt.Println(d.Title)
	for _, in := range d.Active() {
		line := fmt.Sprintf("  %-10s %s", in.Key, in.Label)
		if in.Value != "" && in.Kind != forms.InputPassword {
			line += " = " + in.Value
		}
		if len(in.Options) > 0 {
			line += fmt.Sprintf(" %v", in.Options)
		}
		fmt.Println(line)
	}
}

// submit validates a dialog and sends its request
func submit(cmd *cobra.Command, c *client.DemClient, d *forms.Dialog) error {
	logger := c.Logger()
	if result := d.Validate(); !result.OK() {
		for _, text := range result.Texts() {
			logger.Error(text, nil)
		}
		return fmt.Errorf("%s: invalid input", d.Title)
	}

	req, err := d.Request()
	if err != nil {
		return err
	}
	if _, err := c.Do(cmd.Context(), req); err != nil {
		logger.Error("Failed: "+d.Title, err)
		return err
	}
	if !c.IsDryRun() {
		logger.Success("%s: %s", d.Title, req)
	}
	return nil
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <resource>",
		Short: "Delete an object, e.g. delete target/t1/portid/1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := uri.ParseResource(args[0])
			if err != nil {
				return err
			}
			c, err := connect()
			if err != nil {
				return err
			}
			d := forms.Confirm(node, uri.ActionDelete)
			if !confirm(yes, d.Title) {
				return nil
			}
			return submit(cmd, c, d)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func linkCmd() *cobra.Command {
	return memberCmd("link", "Add a target or host to a group")
}

func unlinkCmd() *cobra.Command {
	return memberCmd("unlink", "Remove a target or host from a group")
}

func memberCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:       name + " <group> <target|host> <alias>",
		Short:     short,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{constants.TypeTarget, constants.TypeHost},
		RunE: func(cmd *cobra.Command, args []string) error {
			group, memberType, alias := args[0], args[1], args[2]
			if memberType != constants.TypeTarget && memberType != constants.TypeHost {
				return fmt.Errorf("invalid member type %q, expected target or host", memberType)
			}
			c, err := connect()
			if err != nil {
				return err
			}

			if name == "link" {
				err = c.Groups().Link(cmd.Context(), group, memberType, alias)
			} else {
				err = c.Groups().Unlink(cmd.Context(), group, memberType, alias)
			}
			if err != nil {
				return err
			}
			if !c.IsDryRun() {
				c.Logger().Success("%sed %s %s in group %s", name, memberType, alias, group)
			}
			return nil
		},
	}
}
