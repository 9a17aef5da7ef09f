package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TimeoutWarden/internal/ipc"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend the session, as the inactivity warning's primary button does",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.Extend(); err != nil {
				return fmt.Errorf("extend failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session extended")
			return nil
		})
	},
}

var dismissCmd = &cobra.Command{
	Use:       "dismiss <inactivity|total_length>",
	Short:     "Hide a warning without acting on it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(warning.Inactivity), string(warning.TotalLength)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return withClient(func(c *ipc.Client) error {
			if err := c.Dismiss(kind.ModalType()); err != nil {
				return fmt.Errorf("dismiss failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s warning\n", kind)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.Logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Re-read the timeout cookie and evaluate it now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			action, err := c.Poll()
			if err != nil {
				return fmt.Errorf("poll failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Decision:", action)
			return nil
		})
	},
}

// parseKind accepts a kind name or its modal type.
func parseKind(s string) (warning.Kind, error) {
	for _, k := range warning.Kinds {
		if s == string(k) {
			return k, nil
		}
	}
	return warning.KindForModalType(s)
}

func init() {
	rootCmd.AddCommand(extendCmd, dismissCmd, logoutCmd, pollCmd)
}
