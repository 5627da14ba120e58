package domain

import "fmt"

// CartItem is one line of a client's cart.
type CartItem struct {
	ID       int64   `json:"id"`
	ClientID int64   `json:"clienteId"`
	ModelID  int64   `json:"modeloId"`
	Size     string  `json:"talla"`
	Quantity int     `json:"cantidad"`
	Price    float64 `json:"precio,omitempty"`
}

// CartLineKey identifies a cart line inside one client's cart.
func CartLineKey(it CartItem) string {
	return fmt.Sprintf("%d:%s", it.ModelID, it.Size)
}
