package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/uri"
)

// targetMethodCmd posts a bodyless method to one target
func targetMethodCmd(use, short string, action uri.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <target>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			node := uri.Location{Type: constants.TypeTarget, Value: args[0]}.Node()
			return submit(cmd, c, forms.Confirm(node, action))
		},
	}
}

func refreshCmd() *cobra.Command {
	return targetMethodCmd(constants.MethodRefresh, "Ask the DEM to re-read a target", uri.ActionRefresh)
}

func reconfigCmd() *cobra.Command {
	return targetMethodCmd(constants.MethodReconfig, "Push the stored configuration to a target", uri.ActionReconfigure)
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage <target>",
		Short: "Show the usage of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd.Context(), uri.Location{Type: constants.TypeTarget, Value: args[0], Sub: constants.MethodUsage})
		},
	}
}

func logpageCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "logpage <target|host> <alias>",
		Short:     "Show the discovery log page of a target or host",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{constants.TypeTarget, constants.TypeHost},
		RunE: func(cmd *cobra.Command, args []string) error {
			objectType := args[0]
			if objectType != constants.TypeTarget && objectType != constants.TypeHost {
				return fmt.Errorf("invalid object type %q, expected target or host", objectType)
			}
			return show(cmd.Context(), uri.Location{Type: objectType, Value: args[1], Sub: constants.MethodLogPage})
		},
	}
}

func shutdownCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the DEM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			d := forms.Confirm(uri.Dem.Node(), uri.ActionShutdown)
			if !confirm(yes, d.Title+"?") {
				return nil
			}
			return submit(cmd, c, d)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
