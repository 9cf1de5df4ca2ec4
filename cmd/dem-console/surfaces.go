package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/internal/tui"
	"github.com/braunma/dem-console/internal/web"
	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/config"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

func browseCmd() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse [location]",
		Short: "Browse the DEM in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := uri.Dem
			if len(args) == 1 {
				var err error
				if start, err = uri.ParseLocation(args[0]); err != nil {
					return err
				}
			}

			// the console logger would draw over the screen
			c, err := connectWith(utils.NewLoggerTo(io.Discard, io.Discard, cfg.DryRun))
			if err != nil {
				return err
			}

			log := structuredLogger()
			log.SetOutput(io.Discard)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			}

			return tui.Run(cmd.Context(), c, start, log)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write the browser log to this file")
	return cmd
}

// sessionConnector opens a client per request from the saved session, so a
// login or logout in another shell takes effect without a restart
type sessionConnector struct {
	store *session.Store
}

func (sc sessionConnector) Connect() (web.Backend, error) {
	sess, err := sc.store.Load()
	if err != nil {
		return nil, err
	}
	c := client.NewClient(*sess, cfg.DryRun)
	c.SetTimeout(cfg.Timeout)
	return c, nil
}

func (sc sessionConnector) Drop() error {
	return sc.store.Clear()
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console as HTML pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionStore()
			if err != nil {
				return err
			}
			server := web.NewServer(sessionConnector{store: store}, structuredLogger())
			return server.Start(cmd.Context(), cfg.Listen)
		},
	}

	cmd.Flags().String("listen", "", "Listen address (default "+constants.DefaultListenAddr+")")
	bindFlag(cmd, config.KeyListen, "listen")
	return cmd
}
