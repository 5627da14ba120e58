package domain

// Brand is a product brand.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Size is a catalog size label.
type Size struct {
	ID    int64  `json:"id"`
	Label string `json:"talla"`
}

// Model is a sellable product model.
type Model struct {
	ID      int64   `json:"id"`
	BrandID int64   `json:"marcaId"`
	Name    string  `json:"nombre"`
	Price   float64 `json:"precio"`
	Image   string  `json:"imagen,omitempty"`
}

// Stock is the available quantity of one model in one size.
type Stock struct {
	ID       int64  `json:"id"`
	ModelID  int64  `json:"modeloId"`
	Size     string `json:"talla"`
	Quantity int    `json:"cantidad"`
}

// StockKey identifies a stock line inside one model's inventory.
func StockKey(s Stock) string {
	return s.Size
}
