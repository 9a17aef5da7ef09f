package arg

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TimeoutWarden/internal/ipc"
)

var rootCmd = &cobra.Command{
	Use:   "twctl",
	Short: "twctl is the command line tool for TimeoutWarden",
	Long: `twctl talks to a running timeoutwardend over the session D-Bus.
It can show the session timeout status, extend or end the session,
dismiss warnings, and decode or encode timeout cookies.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withClient dials the daemon for the duration of fn.
func withClient(fn func(c *ipc.Client) error) error {
	c, err := ipc.Dial()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
