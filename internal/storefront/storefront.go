// Package storefront holds the client-side services the storefront is built
// from. Each one reads through the fallback chain or the entity cache and
// publishes a change signal after a successful mutation.
package storefront

import (
	"context"
	"errors"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/notify"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
)

var (
	// ErrInvalidTransition is returned, without calling the backend, for a
	// delivery status change the backend would reject.
	ErrInvalidTransition = errors.New("invalid delivery status transition")

	// ErrEmptyCart is returned when checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Clients bundles one rpc client per backend service.
type Clients struct {
	Inventory  *rpc.Client
	Sales      *rpc.Client
	Deliveries *rpc.Client
	People     *rpc.Client
	Geography  *rpc.Client
}

// NewClients builds a client per service on router.
func NewClients(router routing.Router) Clients {
	return Clients{
		Inventory:  rpc.NewClient(domain.ServiceInventory, router),
		Sales:      rpc.NewClient(domain.ServiceSales, router),
		Deliveries: rpc.NewClient(domain.ServiceDeliveries, router),
		People:     rpc.NewClient(domain.ServicePeople, router),
		Geography:  rpc.NewClient(domain.ServiceGeography, router),
	}
}

// Services is the whole storefront surface.
type Services struct {
	Catalog    *Catalog
	Cart       *Cart
	Deliveries *Deliveries
	People     *People
	Sales      *Sales
	Geography  *Geography
}

// NewServices wires every service on clients, publishing through pub.
func NewServices(clients Clients, pub notify.Publisher) *Services {
	cart := NewCart(clients.Sales, pub)
	return &Services{
		Catalog:    NewCatalog(clients.Inventory, pub),
		Cart:       cart,
		Deliveries: NewDeliveries(clients.Deliveries, pub),
		People:     NewPeople(clients.People),
		Sales:      NewSales(clients.Sales, cart, pub),
		Geography:  NewGeography(clients.Geography),
	}
}

// chain lists the first route and its legacy equivalents, in order.
func chain[T any](ctx context.Context, c *rpc.Client, routes ...string) domain.Result[[]T] {
	candidates := make([]routing.Candidate[T], 0, len(routes))
	for _, r := range routes {
		candidates = append(candidates, rpc.Candidate[T](c, getRoute(r)))
	}
	return routing.TryChain(ctx, candidates...)
}

// idOf turns a write response into the id the cache should store. A
// no-content answer to an update keeps the item's known id.
func idOf[T any](res domain.Result[T], id func(T) int64, known int64) domain.Result[int64] {
	if res.IsNoContent() && known != 0 {
		return domain.Ok(known)
	}
	return domain.Map(res, id)
}

// publishIf signals aggregate when res is a success.
func publishIf[T any](pub notify.Publisher, aggregate domain.Aggregate, res domain.Result[T]) {
	if res.IsOk() {
		pub.Publish(aggregate)
	}
}
