package arg

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TimeoutWarden/internal/session"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
)

var policy = session.DefaultPolicy()

var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Decode or produce session timeout cookie values",
}

var cookieDecodeCmd = &cobra.Command{
	Use:   "decode [value]",
	Short: "Decode a timeout cookie value (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			value = string(data)
		}
		return decodeCookie(cmd.OutOrStdout(), value)
	},
}

var cookieEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the cookie value a server would issue for a session starting now",
	Example: `  twctl cookie encode --inactivity 2m --inactivity-warning 1m
  twctl cookie encode --max-length 1h --total-warning 10m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec session.SessionRecord
		now := time.Now()
		rec.Start(now)
		fmt.Fprintln(cmd.OutOrStdout(), rec.Schedule(policy, now).Encode())
		return nil
	},
}

func decodeCookie(w io.Writer, value string) error {
	value = strings.TrimPrefix(strings.TrimSpace(value), timeoutCookieName+"=")
	s, err := timeout.Decode(value)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		fmt.Fprintln(w, "warning:", err)
	}
	return nil
}

// policyFlags binds the session limits onto cmd.
func policyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.DurationVar(&policy.InactivityTimeout, "inactivity", policy.InactivityTimeout, "inactivity timeout")
	f.DurationVar(&policy.MaxLength, "max-length", policy.MaxLength, "maximum session length")
	f.DurationVar(&policy.InactivityWarning, "inactivity-warning", policy.InactivityWarning, "warn this long before the inactivity timeout")
	f.DurationVar(&policy.TotalWarning, "total-warning", policy.TotalWarning, "warn this long before the maximum length")
}

func init() {
	policyFlags(cookieEncodeCmd)
	cookieCmd.AddCommand(cookieDecodeCmd, cookieEncodeCmd)
	rootCmd.AddCommand(cookieCmd)
}
