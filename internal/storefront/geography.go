package storefront

import (
	"context"
	"fmt"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc"
)

type Geography struct {
	client *rpc.Client
}

func NewGeography(client *rpc.Client) *Geography {
	return &Geography{client: client}
}

func (g *Geography) Regions(ctx context.Context) domain.Result[[]domain.Region] {
	return chain[domain.Region](ctx, g.client, "/regiones", "/api/regiones")
}

func (g *Geography) Communes(ctx context.Context, regionID int64) domain.Result[[]domain.Commune] {
	return chain[domain.Commune](ctx, g.client,
		rpc.Path("comunas", "region", regionID),
		rpc.Path("regiones", regionID, "comunas"),
		fmt.Sprintf("/comunas?regionId=%d", regionID),
	)
}
