package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braunma/dem-console/pkg/client"
	"github.com/braunma/dem-console/pkg/forms"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
)

func loginCmd() *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a DEM and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			if cfg.Address == "" {
				return fmt.Errorf("no DEM address: set --address or address in the config file")
			}
			if password == "" {
				password = prompt(fmt.Sprintf("Password for %s: ", user))
			}

			sess := session.New(cfg.Address, cfg.Port, user, password)
			c := client.NewClient(sess, false)
			c.SetTimeout(cfg.Timeout)

			logger.Info("Logging in to %s...", sess.BaseURL())
			if _, err := c.Show(cmd.Context(), uri.Dem); err != nil {
				logger.Error("Login failed", err)
				return err
			}

			store, err := sessionStore()
			if err != nil {
				return err
			}
			if err := store.Save(sess); err != nil {
				return err
			}
			logger.Success("Logged in to %s:%d as %s", sess.Address, sess.Port, user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "DEM user")
	cmd.Flags().StringVarP(&password, "password", "p", "", "DEM password (prompted when empty)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			newLogger().Success("Logged out")
			return nil
		},
	}
}

func passwdCmd() *cobra.Command {
	var user, password, newUser, newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Reset the DEM user and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			c, err := connect()
			if err != nil {
				return err
			}
			if password == "" {
				password = prompt("Current password: ")
			}
			if newPassword == "" {
				newPassword = prompt("New password: ")
			}
			if newUser == "" {
				newUser = user
			}

			sess := c.Session()
			d := forms.Signature(sess.Token)
			for key, value := range map[string]string{
				forms.FieldOldUser:     user,
				forms.FieldOldPassword: password,
				forms.FieldNewUser:     newUser,
				forms.FieldNewPassword: newPassword,
				forms.FieldConfirm:     newPassword,
			} {
				if err := d.Set(key, value); err != nil {
					return err
				}
			}

			if err := submit(cmd, c, d); err != nil {
				return err
			}
			if c.IsDryRun() {
				return nil
			}

			sess.Token = forms.NewToken(d)
			store, err := sessionStore()
			if err != nil {
				return err
			}
			if err := store.Save(sess); err != nil {
				return err
			}
			logger.Success("Credentials changed, session updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Current DEM user")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Current password (prompted when empty)")
	cmd.Flags().StringVar(&newUser, "new-user", "", "New DEM user (default: unchanged)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (prompted when empty)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// prompt reads one line from stdin
func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm asks a yes/no question unless --yes was given
func confirm(yes bool, question string) bool {
	if yes {
		return true
	}
	answer := strings.ToLower(prompt(question + " [y/N] "))
	return answer == "y" || answer == "yes"
}
