package storefront

import (
	"context"
	"fmt"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/notify"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// Deliveries lists and drives deliveries. Status is owned by the backend;
// transitions are checked locally only to avoid calls it would reject.
type Deliveries struct {
	client *rpc.Client
	pub    notify.Publisher
}

func NewDeliveries(client *rpc.Client, pub notify.Publisher) *Deliveries {
	return &Deliveries{client: client, pub: pub}
}

func (d *Deliveries) List(ctx context.Context) domain.Result[[]domain.Delivery] {
	return chain[domain.Delivery](ctx, d.client, "/entregas", "/api/entregas")
}

// ForCarrier lists a carrier's deliveries through every known route.
func (d *Deliveries) ForCarrier(ctx context.Context, carrierID int64) domain.Result[[]domain.Delivery] {
	return chain[domain.Delivery](ctx, d.client,
		rpc.Path("entregas", "repartidor", carrierID),
		fmt.Sprintf("/entregas?repartidorId=%d", carrierID),
		rpc.Path("repartidores", carrierID, "entregas"),
	)
}

// Pending lists deliveries with no carrier yet.
func (d *Deliveries) Pending(ctx context.Context) domain.Result[[]domain.Delivery] {
	return chain[domain.Delivery](ctx, d.client,
		"/entregas/pendientes",
		fmt.Sprintf("/entregas?estado=%s", domain.DeliveryPending),
	)
}

// Assign gives a delivery to a carrier.
func (d *Deliveries) Assign(ctx context.Context, deliveryID, carrierID int64) domain.Result[bool] {
	res := rpc.CallAck(ctx, d.client, provider.Put(
		rpc.Path("entregas", deliveryID, "asignar"),
		map[string]int64{"repartidorId": carrierID},
	))
	publishIf(d.pub, domain.AggregateDeliveries, res)
	return res
}

// Complete marks an in-progress delivery as delivered.
func (d *Deliveries) Complete(ctx context.Context, delivery domain.Delivery) domain.Result[bool] {
	if !delivery.Status.CanTransitionTo(domain.DeliveryCompleted) {
		return domain.Fail[bool](fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, delivery.Status, domain.DeliveryCompleted))
	}
	res := rpc.CallAck(ctx, d.client, provider.Put(rpc.Path("entregas", delivery.ID, "completar"), nil))
	publishIf(d.pub, domain.AggregateDeliveries, res)
	return res
}

// ChangeStatus moves a delivery to next.
func (d *Deliveries) ChangeStatus(ctx context.Context, delivery domain.Delivery, next domain.DeliveryStatus) domain.Result[bool] {
	if !delivery.Status.CanTransitionTo(next) {
		return domain.Fail[bool](fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, delivery.Status, next))
	}
	res := rpc.CallAck(ctx, d.client, provider.Put(
		rpc.Path("entregas", delivery.ID, "estado"),
		map[string]domain.DeliveryStatus{"estado": next},
	))
	publishIf(d.pub, domain.AggregateDeliveries, res)
	return res
}
