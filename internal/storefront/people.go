package storefront

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// People reads clients, staff roles and carriers. It also serves the
// profile lookup the session engine verifies against.
type People struct {
	client *rpc.Client
}

func NewPeople(client *rpc.Client) *People {
	return &People{client: client}
}

func (p *People) Clients(ctx context.Context) domain.Result[[]domain.Client] {
	return chain[domain.Client](ctx, p.client, "/clientes", "/api/clientes")
}

func (p *People) Client(ctx context.Context, id int64) domain.Result[domain.Client] {
	return rpc.Call[domain.Client](ctx, p.client, provider.Get(rpc.Path("clientes", id)))
}

func (p *People) Roles(ctx context.Context) domain.Result[[]domain.Role] {
	return chain[domain.Role](ctx, p.client, "/roles", "/api/roles")
}

func (p *People) Carriers(ctx context.Context) domain.Result[[]domain.Carrier] {
	return chain[domain.Carrier](ctx, p.client, "/repartidores", "/usuarios/repartidores")
}

// ActiveCarriers keeps only carriers that can take deliveries.
func (p *People) ActiveCarriers(ctx context.Context) domain.Result[[]domain.Carrier] {
	return domain.Map(p.Carriers(ctx), func(all []domain.Carrier) []domain.Carrier {
		out := make([]domain.Carrier, 0, len(all))
		for _, c := range all {
			if c.Active {
				out = append(out, c)
			}
		}
		return out
	})
}

// FetchProfile loads a user's profile.
func (p *People) FetchProfile(ctx context.Context, userID int64) domain.Result[domain.Profile] {
	return rpc.Call[domain.Profile](ctx, p.client, provider.Get(rpc.Path("usuarios", userID)))
}
