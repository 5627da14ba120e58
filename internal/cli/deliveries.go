package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/core/domain"
)

var activeOnly bool

var deliveriesCmd = &cobra.Command{
	Use:   "deliveries [carrier_id]",
	Short: "List a carrier's deliveries",
	Args:  cobra.ExactArgs(1),
	Run:   runDeliveries,
}

func init() {
	deliveriesCmd.Flags().BoolVar(&activeOnly, "active", false, "hide completed and cancelled deliveries")
	rootCmd.AddCommand(deliveriesCmd)
}

func runDeliveries(cmd *cobra.Command, args []string) {
	carrierID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid carrier id: %v\n", err)
		os.Exit(1)
	}

	app := newApp(setup())
	defer func() { _ = app.Close() }()

	res := app.Services().Deliveries.ForCarrier(context.Background(), carrierID)
	if !res.IsOk() {
		slog.Error("Failed to list deliveries", "carrier_id", carrierID, "error", res.Err())
		os.Exit(1)
	}

	deliveries := res.Value()
	if activeOnly {
		deliveries = domain.ActiveDeliveries(deliveries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tSALE\tSTATUS\tADDRESS")
	for _, d := range deliveries {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", d.ID, d.SaleID, d.Status, d.Address)
	}
	_ = w.Flush()
}
