package domain

// Client is a storefront customer.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Email   string `json:"email"`
	Phone   string `json:"telefono,omitempty"`
	Address string `json:"direccion,omitempty"`
}

// Role is a staff role.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Carrier is a person who can be assigned deliveries.
type Carrier struct {
	ID     int64  `json:"id"`
	Name   string `json:"nombre"`
	Phone  string `json:"telefono,omitempty"`
	Active bool   `json:"activo"`
}

// Region is a top-level geographic division.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Commune belongs to a region.
type Commune struct {
	ID       int64  `json:"id"`
	RegionID int64  `json:"regionId"`
	Name     string `json:"nombre"`
}
