package cli

import (
	"Go2NetSentry/internal/api"
	"Go2NetSentry/internal/model"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bansCmd)
	rootCmd.AddCommand(banCmd)
	rootCmd.AddCommand(unbanCmd)
}

var bansCmd = &cobra.Command{
	Use:   "bans",
	Short: "List banned hosts in ban order",
	Args:  cobra.NoArgs,
	RunE:  runBans,
}

var banCmd = &cobra.Command{
	Use:   "ban HOST",
	Short: "Add a host to the blacklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBan(cmd, args[0], http.MethodPut)
	},
}

var unbanCmd = &cobra.Command{
	Use:   "unban HOST",
	Short: "Remove a host from the blacklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBan(cmd, args[0], http.MethodDelete)
	},
}

func runBans(cmd *cobra.Command, args []string) error {
	var entries []model.BanEntry
	if err := newClient().do(http.MethodGet, "/api/v1/blacklist", &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Blacklist is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tTICK\tBANNED AT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Host, e.Tick, e.BannedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func setBan(cmd *cobra.Command, host, method string) error {
	var resp api.BanResponse
	if err := newClient().do(method, hostPath("/api/v1/blacklist/%s", host), &resp); err != nil {
		return err
	}

	switch {
	case resp.Banned && resp.Changed:
		fmt.Fprintf(cmd.OutOrStdout(), "Banned %s\n", resp.Host)
	case resp.Banned:
		fmt.Fprintf(cmd.OutOrStdout(), "%s was already banned\n", resp.Host)
	case resp.Changed:
		fmt.Fprintf(cmd.OutOrStdout(), "Unbanned %s\n", resp.Host)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s was not banned\n", resp.Host)
	}
	return nil
}
