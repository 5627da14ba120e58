package storage

import (
	"context"
	"errors"

	"github.com/vietddude/storefront/internal/core/domain"
)

var (
	// ErrSessionNotFound is returned when no session has been persisted
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore persists the authenticated session across process restarts
//
//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
type SessionStore interface {
	// Save stores the session, replacing any previous one
	Save(ctx context.Context, session domain.Session) error

	// Read returns the stored session or ErrSessionNotFound
	Read(ctx context.Context) (domain.Session, error)

	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
