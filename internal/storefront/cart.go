package storefront

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/cache"
	"github.com/vietddude/storefront/internal/infra/notify"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// Cart is a client's cart, cached per client and keyed by model and size.
type Cart struct {
	client *rpc.Client
	pub    notify.Publisher
	items  *cache.Cache[int64, int64, domain.CartItem]
}

func NewCart(client *rpc.Client, pub notify.Publisher) *Cart {
	return &Cart{
		client: client,
		pub:    pub,
		items: cache.New[int64, int64, domain.CartItem]("cart", cache.Identity[int64, domain.CartItem]{
			ID:     func(it domain.CartItem) int64 { return it.ID },
			WithID: func(it domain.CartItem, id int64) domain.CartItem { it.ID = id; return it },
			TempID: cache.TimestampID,
		}),
	}
}

// Items returns the client's cart, or the last known cart when the sales
// service fails or answers empty.
func (c *Cart) Items(ctx context.Context, clientID int64) []domain.CartItem {
	return c.items.Fetch(ctx, clientID, func(ctx context.Context) domain.Result[[]domain.CartItem] {
		return chain[domain.CartItem](ctx, c.client,
			rpc.Path("carrito", clientID),
			rpc.Path("carrito", "cliente", clientID),
		)
	})
}

// Put adds a line or replaces the line with the same model and size. The
// returned line is the cached copy; err reports a remote failure.
func (c *Cart) Put(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	req := provider.Post("/carrito", item)
	if item.ID != 0 {
		req = provider.Put(rpc.Path("carrito", item.ID), item)
	}

	stored, res := c.items.Upsert(ctx, item.ClientID, domain.CartLineKey, item, func(ctx context.Context) domain.Result[int64] {
		return idOf(rpc.Call[domain.CartItem](ctx, c.client, req), func(it domain.CartItem) int64 { return it.ID }, item.ID)
	})
	publishIf(c.pub, domain.AggregateCart, res)
	return stored, res.Err()
}

// Remove deletes a line. The local cart drops it even if the backend fails.
func (c *Cart) Remove(ctx context.Context, clientID, itemID int64) error {
	res := c.items.Remove(ctx, clientID, itemID, func(ctx context.Context) domain.Result[bool] {
		return rpc.CallAck(ctx, c.client, provider.Delete(rpc.Path("carrito", itemID)))
	})
	publishIf(c.pub, domain.AggregateCart, res)
	return res.Err()
}

// Clear empties the client's cart. The local cart is dropped even if the
// backend fails.
func (c *Cart) Clear(ctx context.Context, clientID int64) error {
	res := c.items.Clear(ctx, clientID, func(ctx context.Context) domain.Result[bool] {
		return rpc.CallAck(ctx, c.client, provider.Delete(rpc.Path("carrito", "cliente", clientID)))
	})
	publishIf(c.pub, domain.AggregateCart, res)
	return res.Err()
}

// Cached returns the cart as last seen, without a remote call.
func (c *Cart) Cached(clientID int64) []domain.CartItem {
	return c.items.Snapshot(clientID)
}

// Total sums price × quantity over items.
func Total(items []domain.CartItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
