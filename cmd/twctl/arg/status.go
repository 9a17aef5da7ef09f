package arg

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/ipc"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

var output string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session timeout status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			st, err := c.Status()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			return writeStatus(cmd.OutOrStdout(), st, output, time.Now())
		})
	},
}

func writeStatus(w io.Writer, st handler.Status, format string, now time.Time) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}

	fmt.Fprintf(w, "Phase:     %s\n", st.Phase)
	if !st.CheckedAt.IsZero() {
		fmt.Fprintf(w, "Checked:   %s (%s ago)\n", st.CheckedAt.Format("15:04:05"), now.Sub(st.CheckedAt).Round(time.Second))
	}
	fmt.Fprintf(w, "Decision:  %s\n", st.Decision)
	if st.Reason != "" {
		fmt.Fprintf(w, "Reason:    %s\n", st.Reason)
	}

	if s := st.Schedule; s != nil {
		serverNow := s.ServerNow(now)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Inactivity warning: %s\n", formatUntil(s.InactivityWarning-serverNow))
		fmt.Fprintf(w, "Inactivity timeout: %s\n", formatUntil(s.InactivityTimeout-serverNow))
		fmt.Fprintf(w, "Total warning:      %s\n", formatUntil(s.TotalWarning-serverNow))
		fmt.Fprintf(w, "Total timeout:      %s\n", formatUntil(s.TotalTimeout-serverNow))
		fmt.Fprintf(w, "Clock skew:         %ds\n", s.Skew)
	} else {
		fmt.Fprintln(w, "\nNo session timeout data")
	}

	fmt.Fprintln(w, "\nWarnings:")
	for _, k := range warning.Kinds {
		ws := st.Warnings[k]
		state := "hidden"
		switch {
		case ws.Inert:
			state = "unavailable"
		case ws.Visible:
			state = "visible"
		}
		fmt.Fprintf(w, "  %-13s %s", k, state)
		if ws.LastShown != 0 {
			fmt.Fprintf(w, " (last shown for %s)", time.Unix(ws.LastShown, 0).Format("15:04:05"))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func formatUntil(seconds int64) string {
	if seconds <= 0 {
		return fmt.Sprintf("passed %s ago", formatDuration(time.Duration(-seconds)*time.Second))
	}
	return "in " + formatDuration(time.Duration(seconds)*time.Second)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func init() {
	statusCmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(statusCmd)
}
