package cli

import (
	"Go2NetSentry/internal/api"
	"Go2NetSentry/internal/model"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(samplesCmd)
}

var hostsCmd = &cobra.Command{
	Use:     "hosts",
	Aliases: []string{"ls"},
	Short:   "List known hosts with their latest sample",
	Args:    cobra.NoArgs,
	RunE:    runHosts,
}

var samplesCmd = &cobra.Command{
	Use:   "samples HOST",
	Short: "Show every slot of a host's sample window",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamples,
}

func runHosts(cmd *cobra.Command, args []string) error {
	var hosts []model.HostRate
	if err := newClient().do(http.MethodGet, "/api/v1/hosts", &hosts); err != nil {
		return err
	}
	if len(hosts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hosts observed yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tRATE (KB)")
	for _, h := range hosts {
		rate := "-"
		if h.Present {
			rate = fmt.Sprintf("%d", h.RateKB)
		}
		fmt.Fprintf(w, "%s\t%s\n", h.Host, rate)
	}
	return w.Flush()
}

func runSamples(cmd *cobra.Command, args []string) error {
	var resp api.SamplesResponse
	if err := newClient().do(http.MethodGet, hostPath("/api/v1/hosts/%s/samples", args[0]), &resp); err != nil {
		return err
	}

	slots := make([]string, len(resp.Samples))
	for i, s := range resp.Samples {
		if s == nil {
			slots[i] = "-"
		} else {
			slots[i] = fmt.Sprintf("%d", *s)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]\n", resp.Host, strings.Join(slots, " "))
	return nil
}
