package domain

import "time"

// Sale is a confirmed purchase of a client's cart.
type Sale struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"clienteId"`
	Items     []SaleLine `json:"detalles"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"fecha"`
}

// SaleLine is one purchased model/size/quantity.
type SaleLine struct {
	ModelID  int64   `json:"modeloId"`
	Size     string  `json:"talla"`
	Quantity int     `json:"cantidad"`
	Price    float64 `json:"precio"`
}

// SaleFromCart builds the sale request for the given cart lines.
func SaleFromCart(clientID int64, items []CartItem) Sale {
	sale := Sale{ClientID: clientID}
	for _, it := range items {
		sale.Items = append(sale.Items, SaleLine{
			ModelID:  it.ModelID,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
		sale.Total += it.Price * float64(it.Quantity)
	}
	return sale
}
