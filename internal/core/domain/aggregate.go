package domain

// Service names a backend microservice.
type Service string

const (
	ServiceInventory  Service = "inventory"
	ServiceSales      Service = "sales"
	ServiceDeliveries Service = "deliveries"
	ServicePeople     Service = "people"
	ServiceGeography  Service = "geography"
)

// AllServices lists every backend the client talks to.
var AllServices = []Service{
	ServiceInventory,
	ServiceSales,
	ServiceDeliveries,
	ServicePeople,
	ServiceGeography,
}

// Aggregate names a backend-owned entity whose changes are broadcast.
type Aggregate string

const (
	AggregateCart       Aggregate = "cart"
	AggregateDeliveries Aggregate = "deliveries"
	AggregateSales      Aggregate = "sales"
	AggregateInventory  Aggregate = "inventory"
)

// AggregateService maps each tracked aggregate to the service that owns it.
var AggregateService = map[Aggregate]Service{
	AggregateCart:       ServiceSales,
	AggregateDeliveries: ServiceDeliveries,
	AggregateSales:      ServiceSales,
	AggregateInventory:  ServiceInventory,
}
