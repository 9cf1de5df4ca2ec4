package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/pkg/redfish"
	"github.com/braunma/dem-console/pkg/utils"
)

func redfishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redfish",
		Short: "Read the Redfish storage service",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "subsystems",
			Short: "List the storage subsystems",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rf, err := redfishClient()
				if err != nil {
					return err
				}
				ids, err := rf.Subsystems(cmd.Context())
				if err != nil {
					return err
				}
				printList("Subsystems", ids)
				return nil
			},
		},
		&cobra.Command{
			Use:   "details <subsystem>",
			Short: "Show volumes, controllers and connections of a subsystem",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rf, err := redfishClient()
				if err != nil {
					return err
				}
				d, err := rf.SubsystemDetails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printDetails(d)
				return nil
			},
		},
		&cobra.Command{
			Use:   "hosts",
			Short: "List the host systems",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rf, err := redfishClient()
				if err != nil {
					return err
				}
				ids, err := rf.Systems(cmd.Context())
				if err != nil {
					return err
				}
				printList("Hosts", ids)
				return nil
			},
		},
		&cobra.Command{
			Use:   "targets",
			Short: "List the target servers and their transports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rf, err := redfishClient()
				if err != nil {
					return err
				}
				targets, err := rf.TargetSystems(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(utils.Paint(utils.RoleHeading, "Targets"))
				for _, t := range targets {
					fmt.Printf("  %s %s\n", utils.Paint(utils.RoleLabel, t.Name), utils.Paint(utils.RoleMuted, t.Address()))
				}
				return nil
			},
		},
	)
	return cmd
}

func redfishClient() (*redfish.Client, error) {
	if cfg.Redfish == "" {
		return nil, fmt.Errorf("no Redfish service: set redfish in the config file or DEM_REDFISH")
	}
	rf := redfish.NewClient(cfg.Redfish, structuredLogger())
	rf.SetTimeout(cfg.Timeout)
	return rf, nil
}

func printList(heading string, items []string) {
	fmt.Println(utils.Paint(utils.RoleHeading, heading))
	if len(items) == 0 {
		fmt.Println(utils.Paint(utils.RoleMuted, "  none"))
	}
	for _, item := range items {
		fmt.Println("  " + utils.Paint(utils.RoleValue, item))
	}
}

func printDetails(d *redfish.SubsystemDetails) {
	label := func(s string) string { return utils.Paint(utils.RoleLabel, s) }

	fmt.Printf("%s %s\n", utils.Paint(utils.RoleHeading, d.ID), d.Name)

	fmt.Println(label("Volumes"))
	for _, vn := range d.Volumes {
		fmt.Printf("  %s -> %s\n", vn.Volume, vn.Namespace)
	}

	fmt.Println(label("Controllers"))
	for _, c := range d.Controllers {
		fmt.Printf("  %s volumes: %s\n", c.Name, strings.Join(c.Volumes, ", "))
		for _, ep := range c.Endpoints {
			fmt.Printf("    %s\n", ep.Name)
			for _, tr := range ep.Transports {
				fmt.Printf("      %s\n", utils.Paint(utils.RoleMuted, tr.String()))
			}
		}
	}

	fmt.Println(label("Connections"))
	for _, conn := range d.Connections {
		fmt.Printf("  %s via %s\n", conn.Name, conn.TargetEndpoint)
		fmt.Printf("    initiators: %s\n", strings.Join(conn.Initiators, ", "))
		for i, vol := range conn.Volumes {
			access := ""
			if i < len(conn.Access) {
				access = strings.Join(conn.Access[i], "/")
			}
			fmt.Printf("    %s %s\n", vol, utils.Paint(utils.RoleAction, access))
		}
	}
}
