package domain

// DeliveryStatus is owned by the deliveries service; the client only observes it.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDIENTE"
	DeliveryInProgress DeliveryStatus = "EN_CAMINO"
	DeliveryCompleted  DeliveryStatus = "ENTREGADO"
	DeliveryCancelled  DeliveryStatus = "CANCELADO"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:    {DeliveryInProgress, DeliveryCancelled},
	DeliveryInProgress: {DeliveryCompleted, DeliveryCancelled},
}

// IsTerminal reports whether no further transition is possible.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryCompleted || s == DeliveryCancelled
}

// CanTransitionTo reports whether the backend accepts moving from s to next.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Delivery is a shipment of a sale, optionally assigned to a carrier.
type Delivery struct {
	ID        int64          `json:"id"`
	SaleID    int64          `json:"ventaId"`
	CarrierID int64          `json:"repartidorId,omitempty"`
	Address   string         `json:"direccion"`
	CommuneID int64          `json:"comunaId,omitempty"`
	Status    DeliveryStatus `json:"estado"`
}

// ActiveDeliveries drops deliveries in a terminal state.
func ActiveDeliveries(all []Delivery) []Delivery {
	out := make([]Delivery, 0, len(all))
	for _, d := range all {
		if !d.Status.IsTerminal() {
			out = append(out, d)
		}
	}
	return out
}
