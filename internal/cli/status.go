package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var probeTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every configured backend endpoint",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "overall probe timeout")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	app := newApp(setup())
	defer func() { _ = app.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	results := app.Probe(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SERVICE\tPROVIDER\tREACHABLE\tSTATUS\tLATENCY\tERROR")

	down := 0
	for _, r := range results {
		status := "-"
		if r.Reachable {
			status = fmt.Sprint(r.StatusCode)
		} else {
			down++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
			r.Service, r.Provider, r.Reachable, status, r.Latency.Round(time.Millisecond), r.Error)
	}
	_ = w.Flush()

	if len(results) == 0 {
		fmt.Println("no backends configured")
		os.Exit(1)
	}
	if down == len(results) {
		os.Exit(1)
	}
}
