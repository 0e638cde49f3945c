package cli

import (
	"Go2NetSentry/internal/api"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show detector thresholds and counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	var s api.StatusResponse
	if err := newClient().do(http.MethodGet, "/api/v1/status", &s); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ticks:        %d\n", s.Ticks)
	fmt.Fprintf(out, "Bandwidth:    %d KB/cycle\n", s.Bandwidth)
	fmt.Fprintf(out, "Window:       %d cycles (limit %d KB)\n", s.NumCycles, s.LimitKB)
	fmt.Fprintf(out, "Ban time:     %s (manual unban only)\n", s.BanTime)
	fmt.Fprintf(out, "Known hosts:  %d\n", s.KnownHosts)
	fmt.Fprintf(out, "Banned hosts: %d\n", s.BannedHosts)
	return nil
}
