package domain

import "time"

// Session is what gets persisted between process starts.
type Session struct {
	UserID  int64     `json:"userId"`
	Token   string    `json:"token"`
	Email   string    `json:"email"`
	SavedAt time.Time `json:"savedAt"`
}

// Profile is the full user record returned by the people service.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	RoleID   int64  `json:"rolId"`
	RoleName string `json:"rol"`
	Active   bool   `json:"activo"`
}
