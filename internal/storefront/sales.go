package storefront

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/notify"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// Sales turns carts into sales.
type Sales struct {
	client *rpc.Client
	cart   *Cart
	pub    notify.Publisher
	log    *slog.Logger
}

func NewSales(client *rpc.Client, cart *Cart, pub notify.Publisher) *Sales {
	return &Sales{
		client: client,
		cart:   cart,
		pub:    pub,
		log:    slog.Default().With("component", "sales"),
	}
}

// Checkout sells the client's current cart and then clears it. A failure
// to clear the cart does not fail the sale.
func (s *Sales) Checkout(ctx context.Context, clientID int64) domain.Result[domain.Sale] {
	items := s.cart.Items(ctx, clientID)
	if len(items) == 0 {
		return domain.Fail[domain.Sale](ErrEmptyCart)
	}

	res := s.Create(ctx, domain.SaleFromCart(clientID, items))
	if !res.IsOk() {
		return res
	}

	if err := s.cart.Clear(ctx, clientID); err != nil {
		s.log.Warn("sale created but cart not cleared remotely", "client_id", clientID, "error", err)
	}
	return res
}

// Create registers a sale.
func (s *Sales) Create(ctx context.Context, sale domain.Sale) domain.Result[domain.Sale] {
	res := rpc.Call[domain.Sale](ctx, s.client, provider.Post("/ventas", sale))
	publishIf(s.pub, domain.AggregateSales, res)
	if res.IsNoContent() {
		return domain.Ok(sale)
	}
	return res
}

func (s *Sales) List(ctx context.Context) domain.Result[[]domain.Sale] {
	return chain[domain.Sale](ctx, s.client, "/ventas", "/api/ventas")
}

func (s *Sales) ForClient(ctx context.Context, clientID int64) domain.Result[[]domain.Sale] {
	return chain[domain.Sale](ctx, s.client,
		rpc.Path("ventas", "cliente", clientID),
		fmt.Sprintf("/ventas?clienteId=%d", clientID),
	)
}
