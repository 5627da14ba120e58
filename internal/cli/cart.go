package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/storefront"
)

var cartCmd = &cobra.Command{
	Use:   "cart [client_id]",
	Short: "Show a client's cart",
	Args:  cobra.ExactArgs(1),
	Run:   runCart,
}

func init() {
	rootCmd.AddCommand(cartCmd)
}

func runCart(cmd *cobra.Command, args []string) {
	clientID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid client id: %v\n", err)
		os.Exit(1)
	}

	app := newApp(setup())
	defer func() { _ = app.Close() }()

	items := app.Services().Cart.Items(context.Background(), clientID)
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tMODEL\tSIZE\tQTY\tPRICE")
	for _, it := range items {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.2f\n", it.ID, it.ModelID, it.Size, it.Quantity, it.Price)
	}
	_ = w.Flush()
	fmt.Printf("total: %.2f\n", storefront.Total(items))
}
