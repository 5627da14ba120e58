package storefront

import (
	"context"
	"fmt"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/cache"
	"github.com/vietddude/storefront/internal/infra/notify"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// Catalog reads brands, sizes and models, and keeps per-model stock in the
// entity cache.
type Catalog struct {
	client *rpc.Client
	pub    notify.Publisher
	stock  *cache.Cache[int64, int64, domain.Stock]
}

func NewCatalog(client *rpc.Client, pub notify.Publisher) *Catalog {
	return &Catalog{
		client: client,
		pub:    pub,
		stock: cache.New[int64, int64, domain.Stock]("stock", cache.Identity[int64, domain.Stock]{
			ID:     func(s domain.Stock) int64 { return s.ID },
			WithID: func(s domain.Stock, id int64) domain.Stock { s.ID = id; return s },
			TempID: cache.TimestampID,
		}),
	}
}

func (c *Catalog) Brands(ctx context.Context) domain.Result[[]domain.Brand] {
	return chain[domain.Brand](ctx, c.client, "/marcas", "/api/marcas")
}

func (c *Catalog) Sizes(ctx context.Context) domain.Result[[]domain.Size] {
	return chain[domain.Size](ctx, c.client, "/tallas", "/api/tallas")
}

func (c *Catalog) Models(ctx context.Context) domain.Result[[]domain.Model] {
	return chain[domain.Model](ctx, c.client, "/modelos", "/api/modelos")
}

// ModelsByBrand tries every route the inventory service has exposed for
// this listing.
func (c *Catalog) ModelsByBrand(ctx context.Context, brandID int64) domain.Result[[]domain.Model] {
	return chain[domain.Model](ctx, c.client,
		rpc.Path("modelos", "marca", brandID),
		fmt.Sprintf("/modelos?marcaId=%d", brandID),
		rpc.Path("marcas", brandID, "modelos"),
	)
}

// Stock returns the model's stock lines, falling back to the last known
// lines when the inventory service is unreachable.
func (c *Catalog) Stock(ctx context.Context, modelID int64) []domain.Stock {
	return c.stock.Fetch(ctx, modelID, func(ctx context.Context) domain.Result[[]domain.Stock] {
		return chain[domain.Stock](ctx, c.client,
			rpc.Path("inventario", "modelo", modelID),
			fmt.Sprintf("/inventario?modeloId=%d", modelID),
		)
	})
}

// SetStock creates or updates one stock line. The returned line is the
// cached copy; err reports a remote failure, in which case the line carries
// a temporary id.
func (c *Catalog) SetStock(ctx context.Context, s domain.Stock) (domain.Stock, error) {
	req := provider.Post("/inventario", s)
	if s.ID != 0 {
		req = provider.Put(rpc.Path("inventario", s.ID), s)
	}

	stored, res := c.stock.Upsert(ctx, s.ModelID, domain.StockKey, s, func(ctx context.Context) domain.Result[int64] {
		return idOf(rpc.Call[domain.Stock](ctx, c.client, req), func(st domain.Stock) int64 { return st.ID }, s.ID)
	})
	publishIf(c.pub, domain.AggregateInventory, res)
	return stored, res.Err()
}

// Available reports the quantity of size for modelID from the cached view.
func (c *Catalog) Available(ctx context.Context, modelID int64, size string) int {
	for _, s := range c.Stock(ctx, modelID) {
		if s.Size == size {
			return s.Quantity
		}
	}
	return 0
}
