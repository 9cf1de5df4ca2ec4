package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/pkg/loader"
	"github.com/braunma/dem-console/pkg/reconciler"
	"github.com/braunma/dem-console/pkg/utils"
)

func applyCmd() *cobra.Command {
	var dataDir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the DEM with YAML definitions",
		Long:  `Create or update the hosts, targets and groups defined under <dir>/targets, <dir>/hosts and <dir>/groups`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			if !cmd.Flags().Changed("data-dir") && cfg.Definitions != "" {
				dataDir = cfg.Definitions
			}
			dir, err := resolveDataDir(dataDir, logger)
			if err != nil {
				logger.Error("Failed to resolve data directory", err)
				return err
			}

			c, err := connect()
			if err != nil {
				logger.Error("Failed to connect", err)
				return err
			}

			dataLoader := loader.NewDataLoader(dir, logger)
			defs, err := dataLoader.LoadAll()
			if err != nil {
				logger.Error("Failed to load definitions", err)
				return err
			}
			logger.Info("Loaded %s, %s and %s",
				utils.Plural(len(defs.Targets), "target"),
				utils.Plural(len(defs.Hosts), "host"),
				utils.Plural(len(defs.Groups), "group"))

			ctx := cmd.Context()
			if err := reconciler.Run(ctx, c, defs); err != nil {
				logger.Error("Failed to apply definitions", err)
				if !watch {
					return err
				}
			}
			if !watch {
				return nil
			}

			log := structuredLogger()
			watcher := loader.NewWatcher(dataLoader, log, func(defs *loader.Definitions) error {
				return reconciler.Run(ctx, c, defs)
			})
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", ".", "Directory holding targets/, hosts/ and groups/")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-apply whenever a definition file changes")
	return cmd
}

// resolveDataDir falls back to the bundled example/ definitions when dir has
// none of the definition folders
func resolveDataDir(dir string, logger *utils.Logger) (string, error) {
	if hasDefinitions(dir) {
		logger.Info("Using data directory: %s", dir)
		return dir, nil
	}

	examplePath := "example"
	if hasDefinitions(examplePath) {
		logger.Warning("No definitions found in '%s', falling back to '%s'", dir, examplePath)
		return examplePath, nil
	}
	return "", fmt.Errorf("no valid data directory found: checked '%s' and '%s'", dir, examplePath)
}

func hasDefinitions(dir string) bool {
	for _, folder := range []string{loader.TargetsFolder, loader.HostsFolder, loader.GroupsFolder} {
		if info, err := os.Stat(filepath.Join(dir, folder)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
