package storefront

import (
	"net/url"
	"strings"

	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// getRoute turns "/path?k=v" into a GET request.
func getRoute(route string) provider.Request {
	path, rawQuery, found := strings.Cut(route, "?")
	req := provider.Get(path)
	if !found {
		return req
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return req
	}
	req.Query = q
	return req
}
