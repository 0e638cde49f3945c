package cli

import (
	"Go2NetSentry/internal/query"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of events")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history HOST",
	Short: "Show recorded ban and unban events of a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("%s?limit=%d", hostPath("/api/v1/history/%s", args[0]), historyLimit)
	var events []query.BanEvent
	if err := newClient().do(http.MethodGet, path, &events); err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded events for %s.\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTICK\tACTION\tEVENT")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Tick, e.Action, e.EventID)
	}
	return w.Flush()
}
