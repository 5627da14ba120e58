package session

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
)

// ProfileFetcher loads a user's profile from the people service.
//
//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks
type ProfileFetcher interface {
	// FetchProfile returns the profile for userID. A no-content success
	// means the backend does not know the user.
	FetchProfile(ctx context.Context, userID int64) domain.Result[domain.Profile]
}
