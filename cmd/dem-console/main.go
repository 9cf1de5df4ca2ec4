package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/config"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/utils"
)

var (
	configFile string
	v          = config.New()
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dem-console",
		Short: "NVMe-oF Distributed Endpoint Manager console",
		Long:  `Browse and manage the targets, hosts and groups of an NVMe-oF DEM`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(v, configFile)
			return err
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Configuration file path (default dem-console.yaml)")
	flags.String("address", "", "DEM address, used by login")
	flags.Int("port", 0, "DEM port, used by login")
	flags.Bool("dry-run", false, "Print writes without sending them")
	flags.String("log-level", "", "Log level of the long-running commands")
	flags.String("session-file", "", "Session file path")
	flags.String("timeout", "", "Timeout of each DEM request")
	for key, name := range map[string]string{
		config.KeyAddress:  "address",
		config.KeyPort:     "port",
		config.KeyDryRun:   "dry-run",
		config.KeyLogLevel: "log-level",
		config.KeySession:  "session-file",
		config.KeyTimeout:  "timeout",
	} {
		bindFlag(rootCmd, key, name)
	}

	rootCmd.AddCommand(
		loginCmd(), logoutCmd(), passwdCmd(),
		showCmd(), addCmd(), editCmd(), deleteCmd(),
		linkCmd(), unlinkCmd(),
		refreshCmd(), reconfigCmd(), usageCmd(), logpageCmd(), shutdownCmd(),
		applyCmd(), browseCmd(), serveCmd(), redfishCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bindFlag lets a flag override the config file and environment
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flag %s: %v\n", name, err)
		os.Exit(1)
	}
}

// newLogger returns the console logger of the short commands
func newLogger() *utils.Logger {
	return utils.NewLogger(cfg.DryRun)
}

func sessionStore() (*session.Store, error) {
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, err
	}
	return session.NewStore(path), nil
}

// connect opens a client for the saved session. Errors that end the session
// remove the session file.
func connect() (*client.DemClient, error) {
	return connectWith(newLogger())
}

func connectWith(logger *utils.Logger) (*client.DemClient, error) {
	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	sess, err := store.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("%w: run dem-console login first", err)
	}
	if err != nil {
		return nil, err
	}

	c := client.NewClientWithLogger(*sess, logger)
	c.SetTimeout(cfg.Timeout)
	c.OnDrop(func(err error) {
		if clearErr := store.Clear(); clearErr != nil {
			c.Logger().Warning("Failed to clear session: %v", clearErr)
			return
		}
		c.Logger().Warning("Session closed: %v", err)
	})
	return c, nil
}

// structuredLogger builds the logrus logger of serve, browse, redfish and
// apply --watch
func structuredLogger() *logrus.Logger {
	return cfg.NewLogger()
}
